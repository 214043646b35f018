package risk

import (
	"strings"

	"github.com/support-triage-poc/server/internal/agent/model"
)

// Rule maps an issue code predicate to a risk tier.
type Rule struct {
	Name    string
	Match   func(issueCode string) bool
	Risk    model.RiskLevel
	Action  model.ActionType
	Message string
}

// ContainsAny matches issue codes containing any of the given substrings.
// Matching is case-sensitive.
func ContainsAny(subs ...string) func(string) bool {
	return func(issueCode string) bool {
		for _, s := range subs {
			if strings.Contains(issueCode, s) {
				return true
			}
		}
		return false
	}
}

// Fallback is applied when no rule matches. Unknown issues are always treated as High risk.
var Fallback = model.Classification{
	RiskLevel:  model.RiskHigh,
	ActionType: model.ActionHumanApprovalRequired,
	Message:    "Possible data-integrity issue detected. Our engineering team is actively investigating and a human approver has been notified.",
}

// DefaultRules are checked in order; the first match wins.
var DefaultRules = []Rule{
	{
		Name:    "configuration",
		Match:   ContainsAny("Mismatch", "Signature"),
		Risk:    model.RiskLow,
		Action:  model.ActionAutoFix,
		Message: "Minor configuration issue detected and auto-resolved. No further action is needed.",
	},
	{
		Name:    "third_party_delay",
		Match:   ContainsAny("Timeout"),
		Risk:    model.RiskMedium,
		Action:  model.ActionDelayNotice,
		Message: "Temporary delay from a third-party service. It should clear on its own; no action is needed from you.",
	},
}

// Classifier assigns a risk tier to an issue code from an ordered rule table.
type Classifier struct {
	rules []Rule
}

// NewClassifier uses DefaultRules when no rules are given.
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify is pure and total: every issue code, including "", yields a classification.
func (c *Classifier) Classify(issueCode string) model.Classification {
	for _, r := range c.rules {
		if r.Match != nil && r.Match(issueCode) {
			return model.Classification{
				RiskLevel:  r.Risk,
				ActionType: r.Action,
				Message:    r.Message,
			}
		}
	}
	return Fallback
}
