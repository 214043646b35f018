package conversations

import (
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/support-triage-poc/server/internal/agent/model"
)

// ToMessage converts a transcript turn to an Eino message.
func ToMessage(t model.Turn) (*schema.Message, error) {
	switch t.Role {
	case model.RoleUser:
		return schema.UserMessage(t.Text), nil
	case model.RoleSystem:
		return schema.SystemMessage(t.Text), nil
	case model.RoleAssistant:
		return schema.AssistantMessage(t.Text, nil), nil
	}
	return nil, fmt.Errorf("unsupported transcript role %s", t.Role)
}

// BuildDiagnosisContext returns the transcript history followed by the system
// directive, which is the full context sent to the generator. The transcript
// itself is not modified.
func BuildDiagnosisContext(history model.Transcript, directive string) ([]*schema.Message, error) {
	messages := make([]*schema.Message, 0, len(history)+1)
	for i, t := range history {
		if t.Text == "" {
			continue
		}
		m, err := ToMessage(t)
		if err != nil {
			return nil, fmt.Errorf("transcript turn %d: %w", i, err)
		}
		messages = append(messages, m)
	}
	messages = append(messages, schema.SystemMessage(directive))
	return messages, nil
}
