package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cendekia-ai/cendekia"
	"github.com/cendekia-ai/cendekia/internal/model"
)

func newApp(cmd *cobra.Command) (*cendekia.App, error) {
	return cendekia.New(
		cendekia.WithVersion(version),
		cendekia.WithLogger(newLogger(cmd)),
	)
}

// --- serve ---

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}
}

// --- ask ---

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Run one question through the workflow",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			question := strings.Join(args, " ")
			out, queryID, err := app.Ask(cmd.Context(), question)
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return printJSON(struct {
					model.Outcome
					QueryID string `json:"query_id,omitempty"`
				}{out, queryID})
			}
			printOutcome(out, queryID)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the raw outcome as JSON")
	return cmd
}

func printOutcome(out model.Outcome, queryID string) {
	if !out.Success {
		fmt.Printf("failed: %s\n", out.Error)
		return
	}
	if out.SQLQuery != "" {
		fmt.Printf("SQL:\n%s\n\n", out.SQLQuery)
		fmt.Printf("%d rows returned\n\n", out.SQLResult.RowCount)
	}
	if out.StrategyResponse != "" {
		fmt.Printf("%s\n\n", out.StrategyResponse)
	}
	for _, insight := range out.Insights {
		fmt.Printf("  - %s\n", insight)
	}
	if len(out.Suggestions) > 0 {
		fmt.Println("\nFollow-up questions:")
		for _, s := range out.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
	if queryID != "" {
		fmt.Printf("\nquery id for feedback: %s\n", queryID)
	}
}

// --- train ---

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Seed the knowledge index with the baseline corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.Train(ctx); err != nil {
				return err
			}
			counts, err := app.Knowledge().Summary(ctx)
			if err != nil {
				return err
			}
			for _, kind := range model.Kinds() {
				fmt.Printf("%-15s %d\n", kind, counts[kind])
			}
			return nil
		},
	}
}

// --- feedback ---

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Inspect and settle feedback on generated queries",
	}
	cmd.AddCommand(feedbackStatsCmd(), feedbackPendingCmd(), feedbackSubmitCmd(), feedbackApplyCmd())
	return cmd
}

func feedbackStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate feedback statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.Feedback().Stats(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "total\t%d\n", stats.Total)
			fmt.Fprintf(w, "correct\t%d\n", stats.Correct)
			fmt.Fprintf(w, "incorrect\t%d\n", stats.Incorrect)
			fmt.Fprintf(w, "no feedback\t%d\n", stats.NoFeedback)
			fmt.Fprintf(w, "success rate\t%.1f%%\n", stats.SuccessRate)
			fmt.Fprintf(w, "correction rate\t%.1f%%\n", stats.CorrectionRate)
			return w.Flush()
		},
	}
}

func feedbackPendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List queries awaiting review, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			pending, err := app.Feedback().PendingReview(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Println("no queries pending review")
				return nil
			}
			for _, rec := range pending {
				fmt.Printf("%s  %s\n  %s\n  %s\n\n",
					rec.QueryID, rec.Timestamp.Format("2006-01-02 15:04"),
					rec.Question, rec.GeneratedSQL)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 10, "maximum entries to list (0 = all)")
	return cmd
}

func feedbackSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit [query-id]",
		Short: "Settle one pending review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			correct, _ := cmd.Flags().GetBool("correct")
			corrected, _ := cmd.Flags().GetString("corrected-sql")
			notes, _ := cmd.Flags().GetString("notes")

			ok, err := app.Feedback().Submit(cmd.Context(), args[0], correct, corrected, notes)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("query id %s is unknown or its review is already closed", args[0])
			}
			fmt.Println("feedback recorded")
			return nil
		},
	}
	cmd.Flags().Bool("correct", false, "mark the generated SQL as correct")
	cmd.Flags().String("corrected-sql", "", "the corrected SQL for an incorrect query")
	cmd.Flags().String("notes", "", "reviewer notes")
	return cmd
}

func feedbackApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply [corrections.json]",
		Short: "Bulk-apply corrections from a JSON file",
		Long: `Bulk-apply corrections from a JSON file.

The file holds an array of corrections:

  [{"query_id": "…", "is_correct": false, "corrected_sql": "SELECT …"}]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading corrections: %w", err)
			}
			var corrections []model.Correction
			if err := json.Unmarshal(data, &corrections); err != nil {
				return fmt.Errorf("parsing corrections: %w", err)
			}

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			applied := app.Feedback().BulkApply(cmd.Context(), corrections)
			fmt.Printf("applied %d of %d corrections\n", applied, len(corrections))
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
