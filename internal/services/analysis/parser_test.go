package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoguard/ecoguard/internal/domain"
)

func TestParse_OverallScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *int
	}{
		{"canonical format", "Overall Score: 73 / 100", intPtr(73)},
		{"score slash form", "Score: 88/100", intPtr(88)},
		{"bare fraction", "The company earns 65/100 overall.", intPtr(65)},
		{"score colon only", "score: 42", intPtr(42)},
		{"out of form", "We rate it 55 out of 100.", intPtr(55)},
		{"no score at all", "No numeric rating was possible.", nil},
		{"out of range stops search", "Rated 130/100 overall.", nil},
		{"zero is valid", "Overall Score: 0/100", intPtr(0)},
		{"hundred is valid", "Overall Score: 100/100", intPtr(100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			if tt.want == nil {
				assert.Nil(t, got.OverallScore)
			} else {
				require.NotNil(t, got.OverallScore)
				assert.Equal(t, *tt.want, *got.OverallScore)
			}
		})
	}
}

func TestParse_Breakdown(t *testing.T) {
	text := `Overall Score: 70/100
Environmental: 18/25
Social: 15 out of 25
Governance: 20 points
Materials: 12/25`

	got := Parse(text)

	assert.Equal(t, 18, got.Breakdown.Environmental)
	assert.Equal(t, 15, got.Breakdown.Social)
	assert.Equal(t, 20, got.Breakdown.Governance)
	assert.Equal(t, 12, got.Breakdown.Materials)
}

func TestParse_BreakdownClamped(t *testing.T) {
	// Out-of-range sub-scores clamp to [0,25]
	got := Parse("Environmental: 30/25")
	assert.Equal(t, 25, got.Breakdown.Environmental)
}

func TestParse_BreakdownDefaultsZero(t *testing.T) {
	got := Parse("No category data here.")

	assert.Equal(t, 0, got.Breakdown.Environmental)
	assert.Equal(t, 0, got.Breakdown.Social)
	assert.Equal(t, 0, got.Breakdown.Governance)
	assert.Equal(t, 0, got.Breakdown.Materials)
}

func TestParse_BreakdownNotReconciled(t *testing.T) {
	// The overall score and the category sum come from the same free text
	// and are allowed to disagree.
	text := `Overall Score: 90/100
Environmental: 5/25
Social: 5/25
Governance: 5/25
Materials: 5/25`

	got := Parse(text)

	require.NotNil(t, got.OverallScore)
	assert.Equal(t, 90, *got.OverallScore)
	assert.Equal(t, 20, got.Breakdown.Sum())
}

func TestParse_KeyFindingsBullets(t *testing.T) {
	text := `KEY FINDINGS:
• Uses renewable energy across all factories
• Published an externally audited impact report
- Supply chain partially traceable

IMPROVEMENTS NEEDED:
• Expand recycling program coverage`

	got := Parse(text)

	require.Len(t, got.KeyFindings, 3)
	assert.Equal(t, "Uses renewable energy across all factories", got.KeyFindings[0])
	assert.Equal(t, "Supply chain partially traceable", got.KeyFindings[2])

	require.Len(t, got.Improvements, 1)
	assert.Equal(t, "Expand recycling program coverage", got.Improvements[0])
}

func TestParse_SentenceFallback(t *testing.T) {
	text := "Key Findings: The company discloses emissions data annually. It also funds reforestation projects worldwide. Confidence: Medium"

	got := Parse(text)

	require.NotEmpty(t, got.KeyFindings)
	assert.Equal(t, "The company discloses emissions data annually", got.KeyFindings[0])
}

func TestParse_FindingsCappedAtFive(t *testing.T) {
	text := `Key Findings:
• First finding about renewable energy
• Second finding about water usage
• Third finding about fair wages
• Fourth finding about certifications held
• Fifth finding about emissions tracking
• Sixth finding that should be dropped
Confidence: High`

	got := Parse(text)

	assert.Len(t, got.KeyFindings, 5)
}

func TestParse_PlaceholdersWhenEmpty(t *testing.T) {
	got := Parse("Nothing useful here.")

	require.Len(t, got.KeyFindings, 1)
	assert.Equal(t, "Analysis completed - detailed findings may require additional processing", got.KeyFindings[0])

	require.Len(t, got.Improvements, 3)
	assert.Equal(t, "Consider implementing comprehensive sustainability reporting", got.Improvements[0])
}

func TestParse_Certifications(t *testing.T) {
	text := "The company is b-corp certified and its buildings are LEED gold. Products carry the fair trade label."

	got := Parse(text)

	assert.Equal(t, []string{"B-Corp", "LEED", "Fair Trade"}, got.Certifications)
}

func TestParse_Confidence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Confidence
	}{
		{"certified implies high", "All claims are certified by auditors.", domain.ConfidenceHigh},
		{"score implies high", "Overall Score: 50/100", domain.ConfidenceHigh},
		{"unclear implies low", "The data is unclear at best.", domain.ConfidenceLow},
		{"limited implies low", "Only limited information was available.", domain.ConfidenceLow},
		{"default medium", "Some general statements about the company.", domain.ConfidenceMedium},
		// High is checked before Low, so text containing both reports High
		{"both high and low markers", "Claims are verified but data is limited.", domain.ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text).Confidence)
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	text := `Overall Score: 73 / 100
Environmental: 18/25
Social: 20/25
KEY FINDINGS:
• Strong renewable energy commitments
IMPROVEMENTS NEEDED:
• Improve packaging recyclability
CERTIFICATIONS FOUND: B-Corp
CONFIDENCE: High`

	first := Parse(text)
	second := Parse(text)

	assert.Equal(t, first, second)
}

func intPtr(v int) *int { return &v }
