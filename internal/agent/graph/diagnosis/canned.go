package diagnosis

import (
	"context"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// DefaultCannedAnswer is served by offline runs.
const DefaultCannedAnswer = `Root cause: MIGRATION-INDUCED GAP.
The merchant is part-way through the Hosted-to-Headless migration and the reported error lines up with a component that changed during the move. The legacy platform never produced this signal for this account.
Recommended next step: re-sync the migrated configuration and confirm with the merchant.
CONFIDENCE_SCORE: 92`

// CannedChatModel is an offline generator returning a fixed answer. It records
// every request it receives.
type CannedChatModel struct {
	Content string
	Err     error
	Usage   *schema.TokenUsage

	mu    sync.Mutex
	calls [][]*schema.Message
}

// NewCannedChatModel serves content, or DefaultCannedAnswer when content is empty.
func NewCannedChatModel(content string) *CannedChatModel {
	if content == "" {
		content = DefaultCannedAnswer
	}
	return &CannedChatModel{Content: content}
}

func (m *CannedChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	out := schema.AssistantMessage(m.Content, nil)
	if m.Usage != nil {
		out.ResponseMeta = &schema.ResponseMeta{Usage: m.Usage}
	}
	return out, nil
}

func (m *CannedChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

var _ einomodel.BaseChatModel = (*CannedChatModel)(nil)

// Calls returns the message lists received so far.
func (m *CannedChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.calls))
	copy(out, m.calls)
	return out
}
