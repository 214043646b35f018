package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	errx "github.com/support-triage-poc/server/internal/core/error"
)

// deadlineChatModel bounds every generator call and normalises its errors.
type deadlineChatModel struct {
	inner   einomodel.BaseChatModel
	timeout time.Duration
}

// WithDeadline returns a chat model whose calls fail with a gateway-timeout
// AppError once timeout elapses. Other generator errors become bad-gateway AppErrors.
func WithDeadline(inner einomodel.BaseChatModel, timeout time.Duration) einomodel.BaseChatModel {
	return &deadlineChatModel{inner: inner, timeout: timeout}
}

func (m *deadlineChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	out, err := m.inner.Generate(ctx, input, opts...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return nil, errx.WrapGeneration(err)
	}
	return out, nil
}

// Stream is served from a single Generate call; the workflow never streams.
func (m *deadlineChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (m *deadlineChatModel) GetType() string {
	return "DeadlineChatModel"
}

func (m *deadlineChatModel) IsCallbacksEnabled() bool {
	return components.IsCallbacksEnabled(m.inner)
}
