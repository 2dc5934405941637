package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cognicore/beliefnet/pkg/beliefnet/analytics"
	"github.com/cognicore/beliefnet/pkg/beliefnet/store/sqlite"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// KeyCount is one observed variable with its observation count.
type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// FactRecord is one recorded evidence assignment.
type FactRecord struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

// ResultRecord is one recorded posterior.
type ResultRecord struct {
	Posterior float64 `json:"posterior"`
}

// HistoryReport summarizes recorded inference activity.
type HistoryReport struct {
	Facts         int64          `json:"facts"`
	Results       int64          `json:"results"`
	MeanPosterior float64        `json:"mean_posterior"`
	MinPosterior  float64        `json:"min_posterior"`
	MaxPosterior  float64        `json:"max_posterior"`
	TopKeys       []KeyCount     `json:"top_keys,omitempty"`
	RecentFacts   []FactRecord   `json:"recent_facts,omitempty"`
	RecentResults []ResultRecord `json:"recent_results,omitempty"`
}

// NewHistoryCommand returns the history subcommand, a read-only view
// over the recorded question database.
func NewHistoryCommand(rootOpts *RootOptions, e Env) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Summarize the recorded facts and results",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", e.Database, "SQLite database to summarize")
	cmd.Flags().IntVar(&opts.Limit, "limit", 5, "number of recent entries to show")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if opts.Database == "" {
		msg := "no database: pass --db or set BELIEFNET_DB"
		_ = formatter.Error(ErrCodeInput, msg, "")
		return NewExitError(ExitCommandError, msg)
	}
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeIO, err.Error(), "")
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	ctx := cmd.Context()
	st, err := sqlite.OpenSQLite(ctx, opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeIO, err.Error(), "")
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer st.Close()

	summary, err := analytics.Summarize(ctx, st)
	if err != nil {
		_ = formatter.Error(ErrCodeIO, err.Error(), "")
		return WrapExitError(ExitFailure, "summarize history", err)
	}

	report := HistoryReport{
		Facts:         summary.FactCount,
		Results:       summary.ResultCount,
		MeanPosterior: summary.MeanPosterior,
		MinPosterior:  summary.MinPosterior,
		MaxPosterior:  summary.MaxPosterior,
	}
	for _, stat := range summary.TopKeys(opts.Limit) {
		report.TopKeys = append(report.TopKeys, KeyCount{Key: stat.Key, Count: stat.Count})
	}

	facts, err := st.Facts(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "read facts", err)
	}
	for _, f := range tail(facts, opts.Limit) {
		report.RecentFacts = append(report.RecentFacts, FactRecord{Key: f.Key, Value: f.Value})
	}

	results, err := st.Results(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "read results", err)
	}
	for _, r := range tail(results, opts.Limit) {
		report.RecentResults = append(report.RecentResults, ResultRecord{Posterior: r.Posterior})
	}

	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	fmt.Fprintf(formatter.Writer, "%d facts, %d results recorded\n", report.Facts, report.Results)
	if report.Results > 0 {
		fmt.Fprintf(formatter.Writer, "posterior: mean %.4f, min %.4f, max %.4f\n",
			report.MeanPosterior, report.MinPosterior, report.MaxPosterior)
	}
	if len(report.TopKeys) > 0 {
		fmt.Fprintln(formatter.Writer, "observed variables:")
		for _, kc := range report.TopKeys {
			fmt.Fprintf(formatter.Writer, "  %s  %d\n", kc.Key, kc.Count)
		}
	}
	if len(report.RecentFacts) > 0 {
		fmt.Fprintln(formatter.Writer, "recent facts:")
		for _, f := range report.RecentFacts {
			fmt.Fprintf(formatter.Writer, "  %s=%d\n", f.Key, f.Value)
		}
	}
	if len(report.RecentResults) > 0 {
		fmt.Fprintln(formatter.Writer, "recent results:")
		for _, r := range report.RecentResults {
			fmt.Fprintf(formatter.Writer, "  %.4f\n", r.Posterior)
		}
	}
	return nil
}

// tail returns the last n elements of s.
func tail[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
