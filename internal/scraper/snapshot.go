package scraper

// Link is a hyperlink captured from the rendered page.
type Link struct {
	Href string
	Text string
}

// PageSnapshot is everything the scrape heuristics need from a rendered
// page, captured in one pass. Fields for absent elements stay empty; the
// heuristics treat empty as "not found" and move on.
type PageSnapshot struct {
	URL      string
	Hostname string

	Title    string
	BodyText string

	// Company-name candidate sources, in lookup order
	OGSiteName      string // meta[property="og:site_name"]
	ApplicationName string // meta[name="application-name"]
	LogoAlt         string // .logo img alt
	BrandAlt        string // .brand img alt
	HeaderLogoText  string // header .logo text
	FirstHeading    string // first h1

	MetaDescription string
	Links           []Link
}
