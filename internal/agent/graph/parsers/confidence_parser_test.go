package parsers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestParseDiagnosis(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		wantConfidence int
		wantNarrative  string
	}{
		{
			name:           "trailing marker",
			content:        "Migration-induced gap: webhook secret was not rotated.\n\nCONFIDENCE_SCORE: 73",
			wantConfidence: 73,
			wantNarrative:  "Migration-induced gap: webhook secret was not rotated.",
		},
		{
			name:           "no marker falls back",
			content:        "Legacy platform issue.",
			wantConfidence: DefaultConfidence,
			wantNarrative:  "Legacy platform issue.",
		},
		{
			name:           "malformed marker falls back and is stripped",
			content:        "Unclear.\nCONFIDENCE_SCORE: high",
			wantConfidence: DefaultConfidence,
			wantNarrative:  "Unclear.\nhigh",
		},
		{
			name:           "no space after colon",
			content:        "Gap.\nCONFIDENCE_SCORE:91",
			wantConfidence: 91,
			wantNarrative:  "Gap.",
		},
		{
			name:           "first match wins",
			content:        "CONFIDENCE_SCORE: 40\nRevised view.\nCONFIDENCE_SCORE: 95",
			wantConfidence: 40,
			wantNarrative:  "Revised view.",
		},
		{
			name:           "clamped above 100",
			content:        "Sure.\nCONFIDENCE_SCORE: 250",
			wantConfidence: 100,
			wantNarrative:  "Sure.",
		},
		{
			name:           "markdown emphasis",
			content:        "Gap.\n**CONFIDENCE_SCORE: 88**",
			wantConfidence: 88,
			wantNarrative:  "Gap.",
		},
		{
			name:           "overflowing integer falls back",
			content:        "Odd.\nCONFIDENCE_SCORE: 99999999999999999999999",
			wantConfidence: DefaultConfidence,
			wantNarrative:  "Odd.",
		},
		{
			name:           "marker rebuilt by stripping a nested one",
			content:        "Root cause found. CONFIDENCE_CONFIDENCE_SCORE: 5SCORE: 73",
			wantConfidence: 5,
			wantNarrative:  "Root cause found.",
		},
		{
			name:           "score on the next line",
			content:        "Gap.\nCONFIDENCE_SCORE:\n73",
			wantConfidence: 73,
			wantNarrative:  "Gap.",
		},
		{
			name:           "empty",
			content:        "",
			wantConfidence: DefaultConfidence,
			wantNarrative:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDiagnosis(tt.content)
			assert.Equal(t, tt.wantConfidence, got.Confidence)
			assert.Equal(t, tt.wantNarrative, got.Narrative)
			assert.NotContains(t, got.Narrative, "CONFIDENCE_SCORE")
			assert.GreaterOrEqual(t, got.Confidence, 0)
			assert.LessOrEqual(t, got.Confidence, 100)
		})
	}
}

func TestParseConfidence_Idempotent(t *testing.T) {
	content := "nothing to see here"
	assert.Equal(t, ParseConfidence(content), ParseConfidence(content))
	assert.Equal(t, 85, ParseConfidence(content))
}

func TestParseDiagnosis_TruncatesOversizedContent(t *testing.T) {
	content := strings.Repeat("a", maxContentLen+10) + "\nCONFIDENCE_SCORE: 10"
	got := ParseDiagnosis(content)
	assert.Equal(t, DefaultConfidence, got.Confidence)
	assert.Len(t, got.Narrative, maxContentLen)
}

func TestParseDiagnosis_TruncatesOnRuneBoundary(t *testing.T) {
	// "é" is two bytes, so maxContentLen+1 bytes of it end mid-rune
	content := "a" + strings.Repeat("é", maxContentLen/2)
	got := ParseDiagnosis(content)
	assert.True(t, utf8.ValidString(got.Narrative))
	assert.LessOrEqual(t, len(got.Narrative), maxContentLen)
	assert.Equal(t, maxContentLen-1, len(got.Narrative))
}
