package scraper

import (
	"regexp"
	"strings"

	"github.com/ecoguard/ecoguard/internal/domain"
)

// maxCandidateLen rejects whole-paragraph "names" from h1/title lookups.
const maxCandidateLen = 100

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

// Scrape runs all page heuristics over a snapshot and returns the structured
// result. It is pure: no I/O, no mutation of the snapshot.
func Scrape(snap *PageSnapshot) *domain.ScrapedPage {
	return &domain.ScrapedPage{
		PageText:           snap.BodyText,
		CompanyName:        ExtractCompanyName(snap),
		PageType:           identifyPageType(snap),
		Materials:          extractMaterials(snap.BodyText),
		SustainabilityInfo: extractSustainabilityInfo(snap.BodyText),
		RelatedLinks:       findRelatedLinks(snap.Links),
		Meta: domain.PageMeta{
			Title:       snap.Title,
			Description: snap.MetaDescription,
			Domain:      snap.Hostname,
			URL:         snap.URL,
		},
	}
}

// ExtractCompanyName walks the candidate sources in fixed priority order and
// returns the first cleaned, non-gibberish candidate under 100 characters.
// When nothing qualifies it falls back to the hostname.
func ExtractCompanyName(snap *PageSnapshot) string {
	candidates := []string{
		snap.OGSiteName,
		snap.ApplicationName,
		snap.LogoAlt,
		snap.BrandAlt,
		snap.HeaderLogoText,
		snap.FirstHeading,
		snap.Title,
	}

	for _, candidate := range candidates {
		name := CleanCandidate(candidate)
		if name == "" || len(name) >= maxCandidateLen {
			continue
		}
		if IsGibberish(name) {
			continue
		}
		return name
	}

	return ResolveFromDomain(snap.Hostname)
}

// identifyPageType classifies the page by ordered keyword membership.
// First match wins, no scoring.
func identifyPageType(snap *PageSnapshot) domain.PageType {
	url := strings.ToLower(snap.URL)
	title := strings.ToLower(snap.Title)
	content := strings.ToLower(snap.BodyText)

	if strings.Contains(url, "sustainability") || strings.Contains(url, "environment") ||
		strings.Contains(title, "sustainability") || strings.Contains(content, "sustainability") {
		return domain.PageTypeSustainability
	}
	if strings.Contains(url, "about") || strings.Contains(title, "about") {
		return domain.PageTypeAbout
	}
	if strings.Contains(url, "product") || strings.Contains(title, "product") {
		return domain.PageTypeProduct
	}
	return domain.PageTypeGeneral
}

func extractMaterials(bodyText string) []string {
	text := strings.ToLower(bodyText)
	found := []string{}

	for _, material := range materialKeywords {
		if strings.Contains(text, material) {
			found = append(found, material)
		}
	}

	return found
}

// extractSustainabilityInfo keeps, per matched keyword, the first sentence
// containing it. Sentences are split on ., ! and ?.
func extractSustainabilityInfo(bodyText string) []string {
	text := strings.ToLower(bodyText)
	var sentences []string
	info := []string{}

	for _, keyword := range sustainabilityKeywords {
		if !strings.Contains(text, keyword) {
			continue
		}
		if sentences == nil {
			sentences = sentenceSplitRe.Split(bodyText, -1)
		}
		for _, sentence := range sentences {
			if strings.Contains(strings.ToLower(sentence), keyword) {
				info = append(info, strings.TrimSpace(sentence))
				break
			}
		}
	}

	return info
}

// findRelatedLinks emits one record per keyword-group match; a link matching
// several groups appears once per group.
func findRelatedLinks(links []Link) []domain.RelatedLink {
	related := []domain.RelatedLink{}

	for _, link := range links {
		if link.Href == "" {
			continue
		}
		text := strings.ToLower(link.Text)
		href := strings.ToLower(link.Href)

		for _, group := range linkGroups {
			for _, keyword := range group.keywords {
				if strings.Contains(text, keyword) || strings.Contains(href, keyword) {
					related = append(related, domain.RelatedLink{
						Type: group.linkType,
						URL:  link.Href,
						Text: strings.TrimSpace(link.Text),
					})
					break
				}
			}
		}
	}

	return related
}
