package diagnosis

import (
	"context"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/support-triage-poc/server/internal/agent/graph/conversations"
	"github.com/support-triage-poc/server/internal/agent/graph/parsers"
	"github.com/support-triage-poc/server/internal/agent/graph/prompts"
	"github.com/support-triage-poc/server/internal/agent/model"
	logx "github.com/support-triage-poc/server/pkg/logger"
)

const (
	NodeBuildContext = "DiagnosisContext"
	NodeGenerate     = "DiagnosisChatModel"
	NodeParse        = "DiagnosisParser"
)

// Config holds the diagnosis stage settings.
type Config struct {
	// Timeout bounds each generator call. Zero disables the bound.
	Timeout time.Duration
}

// Client asks the text generator for a diagnosis and extracts its confidence score.
type Client struct {
	chat     einomodel.BaseChatModel
	runnable compose.Runnable[model.DiagnosisRequest, model.DiagnosisResult]
}

// NewClient wraps chat with the configured deadline and compiles the diagnosis chain.
func NewClient(ctx context.Context, chat einomodel.BaseChatModel, cfg Config) (*Client, error) {
	if chat == nil {
		return nil, fmt.Errorf("diagnosis chat model is nil")
	}

	c := &Client{chat: WithDeadline(chat, cfg.Timeout)}

	runnable, err := c.Chain().Compile(ctx, compose.WithGraphName("diagnosis"))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling diagnosis chain")
		return nil, fmt.Errorf("error compiling diagnosis chain: %w", err)
	}
	c.runnable = runnable
	return c, nil
}

// Chain returns a fresh, uncompiled diagnosis chain so it can be embedded as a
// sub-graph of the workflow.
func (c *Client) Chain() *compose.Chain[model.DiagnosisRequest, model.DiagnosisResult] {
	return compose.NewChain[model.DiagnosisRequest, model.DiagnosisResult]().
		AppendLambda(compose.InvokableLambda(buildContext), compose.WithNodeName(NodeBuildContext)).
		AppendChatModel(c.chat, compose.WithNodeName(NodeGenerate)).
		AppendLambda(compose.InvokableLambda(parseAnswer), compose.WithNodeName(NodeParse))
}

// Diagnose sends transcript plus the diagnosis directive to the generator.
// Generator failures are returned, never retried.
func (c *Client) Diagnose(ctx context.Context, transcript model.Transcript, migrationStatus, lastError string) (model.DiagnosisResult, error) {
	out, err := c.runnable.Invoke(ctx, model.DiagnosisRequest{
		Transcript:      transcript,
		MigrationStatus: migrationStatus,
		LastError:       lastError,
	})
	if err != nil {
		return model.DiagnosisResult{}, fmt.Errorf("diagnose: %w", err)
	}
	return out, nil
}

func buildContext(ctx context.Context, req model.DiagnosisRequest) ([]*schema.Message, error) {
	directive, err := prompts.RenderDiagnosisSystem(ctx, req.MigrationStatus, req.LastError)
	if err != nil {
		return nil, fmt.Errorf("render diagnosis prompt: %w", err)
	}
	msgs, err := conversations.BuildDiagnosisContext(req.Transcript, directive)
	if err != nil {
		return nil, fmt.Errorf("build diagnosis context: %w", err)
	}
	return msgs, nil
}

func parseAnswer(_ context.Context, msg *schema.Message) (model.DiagnosisResult, error) {
	if msg == nil {
		return model.DiagnosisResult{}, fmt.Errorf("generator returned no message")
	}
	res := parsers.ParseDiagnosis(msg.Content)
	if msg.ResponseMeta != nil {
		res.Usage = msg.ResponseMeta.Usage
	}
	return res, nil
}
