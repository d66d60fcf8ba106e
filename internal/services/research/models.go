package research

// SearchResult is one snippet returned by a provider.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// QueryResult groups the kept results for one issued query.
type QueryResult struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// Sentinel strings distinguishable from an empty block.
const (
	NoDataSentinel     = "No external research data available."
	NoFindingsSentinel = "External research completed but no specific findings available."
)

// queryTemplates are the canned research angles. Only the first few are
// dispatched per run; the rest stay as reserve templates.
var queryTemplates = []string{
	"%s sustainability report",
	"%s environmental impact",
	"%s B-Corp certification",
	"%s labor practices worker treatment",
	"%s supply chain transparency",
	"%s carbon footprint emissions",
	"%s ethical sourcing materials",
	"%s sustainability controversy criticism",
}

const resultsPerQuery = 3
