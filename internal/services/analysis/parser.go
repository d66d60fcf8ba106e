package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ecoguard/ecoguard/internal/domain"
)

// Parser turns a free-text model reply into structured scores. It is pure
// and deterministic: the same text always yields the same result.

// ParsedResponse is the structured form of one model reply.
type ParsedResponse struct {
	OverallScore   *int // nil when no valid score was found
	Breakdown      domain.BreakdownScores
	KeyFindings    []string
	Improvements   []string
	Certifications []string
	Confidence     domain.Confidence
}

// Overall score patterns, tried in priority order. The first textual match
// decides: an out-of-range number stops the search rather than falling
// through to a later pattern.
var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)overall\s+score[:\s]*(\d{1,3})\s*/\s*100`),
	regexp.MustCompile(`(?i)score[:\s]*(\d{1,3})\s*/\s*100`),
	regexp.MustCompile(`(\d{1,3})\s*/\s*100`),
	regexp.MustCompile(`(?i)score[:\s]*(\d{1,3})`),
	regexp.MustCompile(`(?i)(\d{1,3})\s*out\s*of\s*100`),
}

type categoryPatterns struct {
	name     string
	patterns []*regexp.Regexp
}

var breakdownCategories = []categoryPatterns{
	makeCategory("environmental"),
	makeCategory("social"),
	makeCategory("governance"),
	makeCategory("materials"),
}

func makeCategory(name string) categoryPatterns {
	return categoryPatterns{
		name: name,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)` + name + `[:\s]*?(\d{1,2})\s*/\s*25`),
			regexp.MustCompile(`(?i)` + name + `[:\s]*?(\d{1,2})\s*out\s*of\s*25`),
			regexp.MustCompile(`(?i)` + name + `[:\s]*?(\d{1,2})\s*points?`),
		},
	}
}

var findingsHeadings = []*regexp.Regexp{
	regexp.MustCompile(`(?i)key findings?[:\s]*`),
	regexp.MustCompile(`(?i)findings?[:\s]*`),
	regexp.MustCompile(`(?i)notable[:\s]*`),
}

var improvementHeadings = []*regexp.Regexp{
	regexp.MustCompile(`(?i)improvements?\s+needed[:\s]*`),
	regexp.MustCompile(`(?i)recommendations?[:\s]*`),
	regexp.MustCompile(`(?i)suggestions?[:\s]*`),
	regexp.MustCompile(`(?i)improvements?[:\s]*`),
}

// Section boundaries. Findings stop at the improvements block too; the
// improvements section only stops at certifications or confidence.
var (
	findingsBoundaryRe    = regexp.MustCompile(`(?i)improvement|recommendation|certifications?|confidence`)
	improvementBoundaryRe = regexp.MustCompile(`(?i)certifications?|confidence`)
)

var (
	bulletRe       = regexp.MustCompile(`[•\-*]\s*([^\n\r•\-*]+)`)
	sentenceTermRe = regexp.MustCompile(`[.!?]+`)
)

var certificationVocab = []string{
	"B-Corp", "LEED", "Fair Trade", "Organic", "FSC", "Cradle to Cradle",
	"Carbon Neutral", "ENERGY STAR", "Rainforest Alliance", "GOTS",
}

// Placeholders substituted when a section yields nothing. The lists are
// never left empty.
var (
	findingsPlaceholder = []string{
		"Analysis completed - detailed findings may require additional processing",
	}
	improvementsPlaceholder = []string{
		"Consider implementing comprehensive sustainability reporting",
		"Explore opportunities for renewable energy adoption",
		"Enhance supply chain transparency and monitoring",
	}
)

// Parse extracts all structured fields from a raw model reply.
func Parse(text string) *ParsedResponse {
	score := extractScore(text)

	findings := extractSectionItems(text, findingsHeadings, findingsBoundaryRe, "Finding")
	if len(findings) == 0 {
		findings = append([]string{}, findingsPlaceholder...)
	}

	improvements := extractSectionItems(text, improvementHeadings, improvementBoundaryRe, "Improvement")
	if len(improvements) == 0 {
		improvements = append([]string{}, improvementsPlaceholder...)
	}

	return &ParsedResponse{
		OverallScore:   score,
		Breakdown:      extractBreakdown(text),
		KeyFindings:    findings,
		Improvements:   improvements,
		Certifications: extractCertifications(text),
		Confidence:     calculateConfidence(text, score),
	}
}

func extractScore(text string) *int {
	for _, pattern := range scorePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		score, err := strconv.Atoi(match[1])
		if err != nil || score < 0 || score > 100 {
			return nil
		}
		return &score
	}
	return nil
}

func extractBreakdown(text string) domain.BreakdownScores {
	scores := map[string]int{}

	for _, category := range breakdownCategories {
		score := 0
		for _, pattern := range category.patterns {
			if match := pattern.FindStringSubmatch(text); match != nil {
				score, _ = strconv.Atoi(match[1])
				break
			}
		}
		scores[category.name] = clamp(score, 0, 25)
	}

	return domain.BreakdownScores{
		Environmental: scores["environmental"],
		Social:        scores["social"],
		Governance:    scores["governance"],
		Materials:     scores["materials"],
	}
}

// extractSectionItems locates a section by its heading, bounds it at the
// next recognized heading or end of text, and pulls out bullet lines. With
// no bullets it falls back to sentences longer than 20 characters.
func extractSectionItems(text string, headings []*regexp.Regexp, boundary *regexp.Regexp, excludeWord string) []string {
	var items []string

	for _, heading := range headings {
		loc := heading.FindStringIndex(text)
		if loc == nil {
			continue
		}

		section := text[loc[1]:]
		if end := boundary.FindStringIndex(section); end != nil {
			section = section[:end[0]]
		}

		for _, match := range bulletRe.FindAllStringSubmatch(section, -1) {
			clean := strings.TrimSpace(match[1])
			if len(clean) > 10 && !strings.Contains(clean, "[") && !strings.Contains(clean, excludeWord) {
				items = append(items, clean)
			}
		}

		if len(items) == 0 {
			var sentences []string
			for _, s := range sentenceTermRe.Split(section, -1) {
				if trimmed := strings.TrimSpace(s); len(trimmed) > 20 {
					sentences = append(sentences, trimmed)
				}
			}
			if len(sentences) > 3 {
				sentences = sentences[:3]
			}
			items = append(items, sentences...)
		}

		break
	}

	if len(items) > 5 {
		items = items[:5]
	}
	return items
}

func extractCertifications(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}

	for _, cert := range certificationVocab {
		if strings.Contains(lower, strings.ToLower(cert)) {
			found = append(found, cert)
		}
	}

	return found
}

// calculateConfidence applies the High check before the Low check, so text
// matching both reports High.
func calculateConfidence(text string, score *int) domain.Confidence {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "verified") || strings.Contains(lower, "certified") || score != nil {
		return domain.ConfidenceHigh
	}
	if strings.Contains(lower, "unclear") || strings.Contains(lower, "limited") {
		return domain.ConfidenceLow
	}
	return domain.ConfidenceMedium
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
