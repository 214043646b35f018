package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/support-triage-poc/server/internal/agent/model"
	logx "github.com/support-triage-poc/server/pkg/logger"
)

// DefaultConfidence is used when the model answer carries no usable score.
const DefaultConfidence = 85

const (
	minConfidence = 0
	maxConfidence = 100
	maxContentLen = 64 * 1024 // 64KB
)

var (
	scoreRe  = regexp.MustCompile(`CONFIDENCE_SCORE:\s*(\d+)`)
	markerRe = regexp.MustCompile(`[ \t]*\**[ \t]*CONFIDENCE_SCORE:(?:\s*\d+)?[ \t]*\**[ \t]*`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
)

// ParseDiagnosis extracts the confidence score from a model answer and returns
// the answer with every score marker removed. It never fails: a missing,
// malformed or oversized score falls back to DefaultConfidence.
func ParseDiagnosis(content string) model.DiagnosisResult {
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "confidence_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = truncateUTF8(content, maxContentLen)
	}

	return model.DiagnosisResult{
		Narrative:  StripMarker(content),
		Confidence: ParseConfidence(content),
	}
}

// ParseConfidence returns the first CONFIDENCE_SCORE value clamped to [0,100].
func ParseConfidence(content string) int {
	m := scoreRe.FindStringSubmatch(content)
	if m == nil {
		logx.Debug().Str("component", "confidence_parser").Msg("no confidence marker; using default")
		return DefaultConfidence
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		logx.Warn().Str("component", "confidence_parser").Str("raw", m[1]).Msg("unparseable confidence; using default")
		return DefaultConfidence
	}
	return clamp(v, minConfidence, maxConfidence)
}

// StripMarker removes every confidence marker and the whitespace around it.
// Removing one marker can join its neighbours into a new one, so it repeats
// until none is left.
func StripMarker(content string) string {
	out := content
	for markerRe.MatchString(out) {
		out = markerRe.ReplaceAllString(out, "")
	}
	out = blankRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
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
