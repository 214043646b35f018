package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/support-triage-poc/server/internal/agent/graph"
	"github.com/support-triage-poc/server/internal/agent/model"
	errx "github.com/support-triage-poc/server/internal/core/error"
	"github.com/support-triage-poc/server/internal/signals"
)

var (
	runTicket string
	runJSON   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Triage the demo tickets once and print the reasoning and decision",
	Long: `Pulls the demo signals, joins each ticket with its merchant's latest error
and runs the triage workflow. Nothing is applied or audited; use serve for the
approval flow.`,
	RunE: runTriage,
}

func init() {
	runCmd.Flags().StringVar(&runTicket, "ticket", "", "only triage this ticket id")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print final states as JSON")
}

func runTriage(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	runner, err := graph.BuildTriageGraph(ctx, appCfg.graphConfig(offline))
	if err != nil {
		return fmt.Errorf("build triage graph: %w", err)
	}

	sig, err := signals.Generate(time.Now())
	if err != nil {
		return err
	}
	incidents, err := selectIncidents(sig.Incidents(), runTicket)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var results []*model.FinalState
	for _, inc := range incidents {
		final, err := runner.Run(ctx, model.TriageInput{
			Incident:        inc,
			MigrationStatus: sig.MigrationStatus(inc.MerchantID),
		})
		if err != nil {
			return fmt.Errorf("triage %s: %w", inc.ID, err)
		}
		if runJSON {
			results = append(results, final)
			continue
		}
		printFinalState(out, inc, final)
	}

	if runJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return nil
}

func selectIncidents(all []model.IncidentRecord, ticketID string) ([]model.IncidentRecord, error) {
	if ticketID == "" {
		return all, nil
	}
	for _, inc := range all {
		if inc.ID == ticketID {
			return []model.IncidentRecord{inc}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errx.ErrTicketNotFound, ticketID)
}

func printFinalState(w io.Writer, inc model.IncidentRecord, f *model.FinalState) {
	fmt.Fprintf(w, "=== %s (%s) ===\n", inc.ID, inc.IssueCode)
	fmt.Fprintf(w, "Migration: %s\n", f.MigrationStatus)
	fmt.Fprintf(w, "Confidence: %d%%", f.Confidence)
	if f.NeedsReview() {
		fmt.Fprint(w, "  [low confidence, review before acting]")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Risk: %s  Action: %s  Outcome: %s\n", f.RiskLevel, f.ActionType, f.Outcome)
	if f.CostUSD > 0 {
		fmt.Fprintf(w, "Cost: $%.6f\n", f.CostUSD)
	}
	fmt.Fprintf(w, "\nReasoning:\n%s\n\nDecision:\n%s\n\n", f.Narrative(), f.Decision())
}
