package scraper

// Keyword vocabularies driving the scrape heuristics. Matching is always
// done against lowercased text.

var materialKeywords = []string{
	"organic cotton", "recycled polyester", "hemp", "bamboo", "linen",
	"wool", "cashmere", "silk", "leather", "synthetic", "polyester",
	"nylon", "spandex", "elastane", "modal", "tencel", "lyocell",
}

var sustainabilityKeywords = []string{
	"carbon neutral", "renewable energy", "fair trade", "organic",
	"recycled", "sustainable", "eco-friendly", "zero waste",
	"circular economy", "supply chain", "transparency",
	"certifications", "b-corp", "climate positive",
}

// linkGroup pairs a related-link type with the keywords that select it.
type linkGroup struct {
	keywords []string
	linkType string
}

var linkGroups = []linkGroup{
	{keywords: []string{"sustainability", "environment", "green"}, linkType: "sustainability"},
	{keywords: []string{"about", "company", "story"}, linkType: "about"},
	{keywords: []string{"responsibility", "impact", "social"}, linkType: "responsibility"},
	{keywords: []string{"materials", "sourcing", "supply"}, linkType: "sourcing"},
}
