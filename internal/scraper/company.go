package scraper

import (
	"regexp"
	"strings"
)

// Company name resolution. Everything here is best-effort: the output is a
// display label, never an identity.

// knownCompanies maps bare domain labels to their proper display names.
var knownCompanies = map[string]string{
	"marinabaysands": "Marina Bay Sands",
	"tesla":          "Tesla",
	"apple":          "Apple",
	"microsoft":      "Microsoft",
	"google":         "Google",
	"amazon":         "Amazon",
	"patagonia":      "Patagonia",
	"nike":           "Nike",
	"adidas":         "Adidas",
	"unilever":       "Unilever",
	"bmw":            "BMW",
	"toyota":         "Toyota",
	"walmart":        "Walmart",
	"target":         "Target",
	"starbucks":      "Starbucks",
	"mcdonalds":      "McDonald's",
	"cocacola":       "Coca-Cola",
	"pepsi":          "Pepsi",
	"facebook":       "Meta",
	"instagram":      "Instagram",
	"linkedin":       "LinkedIn",
	"twitter":        "Twitter",
	"youtube":        "YouTube",
}

// commonWords are corporate terms used to break a glued-together domain
// label into words.
var commonWords = []string{
	"bay", "sands", "hotel", "resort", "group", "company", "corp", "inc",
	"tech", "technologies", "systems", "solutions", "services", "international",
	"global", "worldwide", "enterprises", "industries", "partners", "ventures",
	"capital", "investments", "financial", "bank", "insurance", "media",
	"entertainment", "studios", "productions", "communications", "networks",
	"eco", "green", "works", "labs", "shop", "store",
}

var (
	vowelRe         = regexp.MustCompile(`[aeiouAEIOU]`)
	consonantRe     = regexp.MustCompile(`[bcdfghjklmnpqrstvwxyzBCDFGHJKLMNPQRSTVWXYZ]`)
	camelBoundaryRe = regexp.MustCompile(`([a-z])([A-Z])`)
	letterDigitRe   = regexp.MustCompile(`([a-z])(\d)`)
	digitLetterRe   = regexp.MustCompile(`(\d)([a-z])`)
	wordSplitRe     = regexp.MustCompile(`[\s\-_]+`)
)

var trailingSuffixes = []string{
	"- home", "- homepage", "- official site", "- website",
}

// IsGibberish reports whether text looks like a random token rather than a
// human-readable name.
func IsGibberish(text string) bool {
	if len(text) < 3 {
		return true
	}

	vowels := len(vowelRe.FindAllString(text, -1))
	consonants := len(consonantRe.FindAllString(text, -1))

	if consonants > vowels*3 && len(text) > 8 {
		return true
	}
	if hasRepeatedSubstring(text) {
		return true
	}
	if len(text) > 15 && vowels < 2 {
		return true
	}
	if maxConsonantRun(text) >= 5 {
		return true
	}

	return false
}

// hasRepeatedSubstring reports whether some substring of length >= 2 occurs
// three or more times in a row.
func hasRepeatedSubstring(text string) bool {
	for size := 2; size <= len(text)/3; size++ {
		for start := 0; start+size*3 <= len(text); start++ {
			chunk := text[start : start+size]
			if text[start+size:start+size*2] == chunk && text[start+size*2:start+size*3] == chunk {
				return true
			}
		}
	}
	return false
}

func maxConsonantRun(text string) int {
	run, best := 0, 0
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' && !strings.ContainsRune("aeiou", r) {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

// CleanCandidate strips site-title decoration from a scraped name: anything
// after a pipe or bullet separator, and trailing "- home" style suffixes.
func CleanCandidate(name string) string {
	for _, sep := range []string{"|", "•", "·"} {
		if idx := strings.Index(name, sep); idx >= 0 {
			name = name[:idx]
		}
	}
	name = strings.TrimSpace(name)

	lower := strings.ToLower(name)
	for _, suffix := range trailingSuffixes {
		if strings.HasSuffix(lower, suffix) {
			name = strings.TrimSpace(name[:len(name)-len(suffix)])
			break
		}
	}

	return strings.TrimSpace(name)
}

// ResolveFromDomain derives a display name from a hostname. Known brands map
// to their exact names; everything else goes through word splitting, with a
// literal "Company" placeholder when the label is unusable.
func ResolveFromDomain(hostname string) string {
	if hostname == "" {
		return "Unknown Company"
	}

	name := strings.TrimPrefix(hostname, "www.")
	if idx := strings.Index(name, "."); idx >= 0 {
		name = name[:idx]
	}

	if known, ok := knownCompanies[strings.ToLower(name)]; ok {
		return known
	}

	if IsGibberish(name) {
		return "Company"
	}

	return smartSplit(name)
}

// smartSplit breaks a glued domain label into title-cased words using the
// corporate word list plus camelCase and digit boundaries.
func smartSplit(label string) string {
	result := label

	for _, word := range commonWords {
		lower := strings.ToLower(result)
		idx := strings.Index(lower, word)
		if idx < 0 {
			continue
		}
		var sb strings.Builder
		for idx >= 0 {
			sb.WriteString(result[:idx])
			sb.WriteString(" ")
			sb.WriteString(result[idx : idx+len(word)])
			sb.WriteString(" ")
			result = result[idx+len(word):]
			lower = strings.ToLower(result)
			idx = strings.Index(lower, word)
		}
		sb.WriteString(result)
		result = sb.String()
	}

	result = camelBoundaryRe.ReplaceAllString(result, "$1 $2")
	result = letterDigitRe.ReplaceAllString(result, "$1 $2")
	result = digitLetterRe.ReplaceAllString(result, "$1 $2")

	words := wordSplitRe.Split(result, -1)
	titled := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		titled = append(titled, strings.ToUpper(w[:1])+strings.ToLower(w[1:]))
	}

	out := strings.TrimSpace(strings.Join(titled, " "))
	if out == "" {
		return "Company"
	}
	return out
}
