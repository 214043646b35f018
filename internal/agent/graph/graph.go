package graph

import (
	"context"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/support-triage-poc/server/internal/agent/graph/diagnosis"
	"github.com/support-triage-poc/server/internal/agent/graph/nodes"
	"github.com/support-triage-poc/server/internal/agent/graph/observers"
	"github.com/support-triage-poc/server/internal/agent/graph/outcome"
	"github.com/support-triage-poc/server/internal/agent/graph/risk"
	"github.com/support-triage-poc/server/internal/agent/model"
	logx "github.com/support-triage-poc/server/pkg/logger"
)

// Runner executes one triage run per call. Runs share no mutable state.
type Runner interface {
	Run(ctx context.Context, in model.TriageInput) (*model.FinalState, error)
}

// Config holds everything needed to compose the triage workflow end-to-end.
// This is a convenience layer over GraphConfig that also constructs the chat model
// and the three stage components.
type Config struct {
	APIKey    string
	BaseURL   string
	Diagnosis model.DiagnosisModelConfig

	// ChatModel replaces the Gemini model, e.g. for offline runs.
	ChatModel einomodel.BaseChatModel
	// Rules replaces the default risk rule table when non-empty.
	Rules []risk.Rule
	// Verify is the post-action health probe; nil assumes the system is stable.
	Verify outcome.VerifyFunc
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	Diagnosis  *diagnosis.Client
	Classifier *risk.Classifier
	Resolver   *outcome.Resolver
	// ModelName is used to price generator usage.
	ModelName string
}

// GraphBuilder handles the construction of the triage graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TriageInput, *model.FinalState]
}

type graphRunner struct {
	runnable compose.Runnable[model.TriageInput, *model.FinalState]
}

func (r *graphRunner) Run(ctx context.Context, in model.TriageInput) (*model.FinalState, error) {
	runID := uuid.NewString()
	start := time.Now()

	logx.Info().
		Str("run_id", runID).
		Str("incident_id", in.Incident.ID).
		Str("issue_code", in.Incident.IssueCode).
		Msg("Triage run started")

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().
			Err(err).
			Str("run_id", runID).
			Str("incident_id", in.Incident.ID).
			Dur("elapsed", time.Since(start)).
			Msg("Triage run failed")
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("triage run %s produced no final state", runID)
	}

	logx.Info().
		Str("run_id", runID).
		Str("incident_id", out.IncidentID).
		Int("confidence", out.Confidence).
		Str("risk_level", string(out.RiskLevel)).
		Str("action_type", string(out.ActionType)).
		Str("outcome", string(out.Outcome)).
		Dur("elapsed", time.Since(start)).
		Msg("Triage run completed")
	return out, nil
}

// BuildTriageGraph composes the chat model and stage components, builds the graph,
// and returns a Runner.
func BuildTriageGraph(ctx context.Context, cfg Config) (Runner, error) {
	chat := cfg.ChatModel
	if chat == nil {
		cm, err := nodes.NewDiagnosisChatModel(ctx, nodes.ChatModelConfig{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			DiagnosisConfig: &cfg.Diagnosis,
		})
		if err != nil {
			return nil, err
		}
		chat = cm
	}

	dc, err := diagnosis.NewClient(ctx, chat, diagnosis.Config{Timeout: cfg.Diagnosis.Timeout})
	if err != nil {
		return nil, err
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		Diagnosis:  dc,
		Classifier: risk.NewClassifier(cfg.Rules...),
		Resolver:   outcome.NewResolver(cfg.Verify),
		ModelName:  cfg.Diagnosis.Model,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Triage graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled triage graph:
// START -> InputConverter -> Diagnosis -> RiskClassifier -> OutcomeResolver -> Finalizer -> END.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TriageInput, *model.FinalState], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Diagnosis == nil || config.Classifier == nil || config.Resolver == nil {
		return nil, fmt.Errorf("stage components are not properly initialized")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TriageInput, *model.FinalState](
			compose.WithGenLocalState(func(ctx context.Context) *model.ConversationState {
				return &model.ConversationState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	steps := []func() error{
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeInputConverter,
				nodes.NewInputConverterNode(),
				compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
			)
		},
		func() error {
			return b.graph.AddGraphNode(nodes.NodeDiagnosis,
				b.config.Diagnosis.Chain(),
				compose.WithStatePostHandler(nodes.NewDiagnosisPostHandler(b.config.ModelName)),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeRiskClassifier,
				nodes.NewRiskClassifierNode(b.config.Classifier),
				compose.WithStatePostHandler(nodes.NewRiskClassifierPostHandler()),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeOutcome,
				nodes.NewOutcomeNode(b.config.Resolver),
				compose.WithStatePostHandler(nodes.NewOutcomePostHandler()),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeFinalizer, nodes.NewFinalizerNode())
		},
	}

	for _, add := range steps {
		if err := add(); err != nil {
			logx.Error().Err(err).Msg("Error adding node")
			return fmt.Errorf("error adding node: %w", err)
		}
	}
	return nil
}

// addEdges wires the strictly linear flow; there are no branches or cycles.
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeDiagnosis},
		{nodes.NodeDiagnosis, nodes.NodeRiskClassifier},
		{nodes.NodeRiskClassifier, nodes.NodeOutcome},
		{nodes.NodeOutcome, nodes.NodeFinalizer},
		{nodes.NodeFinalizer, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TriageInput, *model.FinalState], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName("triage"),
		compose.WithMaxRunSteps(10),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
