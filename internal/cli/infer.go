package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/beliefnet/pkg/beliefnet"
	"github.com/cognicore/beliefnet/pkg/beliefnet/config"
	"github.com/cognicore/beliefnet/pkg/beliefnet/evidence"
	"github.com/cognicore/beliefnet/pkg/beliefnet/inference"
	"github.com/cognicore/beliefnet/pkg/beliefnet/justify"
	"github.com/cognicore/beliefnet/pkg/beliefnet/model"
	"github.com/cognicore/beliefnet/pkg/beliefnet/store/sqlite"
)

// InferOptions holds flags for the infer command.
type InferOptions struct {
	*RootOptions
	Network  string
	Target   string
	Evidence []string
	Database string
}

// StateProbability is one posterior cell.
type StateProbability struct {
	State       int     `json:"state"`
	Probability float64 `json:"probability"`
}

// InferReport is the machine-readable result of one query.
type InferReport struct {
	Target        string             `json:"target"`
	Evidence      map[string]int     `json:"evidence,omitempty"`
	Posterior     []StateProbability `json:"posterior"`
	Positive      float64            `json:"positive"`
	Elimination   []string           `json:"elimination,omitempty"`
	Justification string             `json:"justification"`
}

// NewInferCommand returns the infer subcommand: one query, evidence
// from flags, recording only when a database is configured.
func NewInferCommand(rootOpts *RootOptions, e Env) *cobra.Command {
	opts := &InferOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Run one exact query against a network",
		Long: `Compute the posterior distribution of a target variable given observed
evidence, by variable elimination.

Example:
  beliefnet infer --network grades.yaml --target Nota -e Inteligencia=1 -e Asistencia=1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Network, "network", e.Network, "path to the network definition YAML")
	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "query variable")
	cmd.Flags().StringArrayVarP(&opts.Evidence, "evidence", "e", nil, "observed variable as Name=state (repeatable)")
	cmd.Flags().StringVar(&opts.Database, "db", e.Database, "SQLite database for recording facts and results")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runInfer(opts *InferOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	net, err := buildNetwork(formatter, opts.Network)
	if err != nil {
		return err
	}

	ev, err := evidence.Parse(opts.Evidence...)
	if err != nil {
		return reportQueryError(formatter, err)
	}

	sys, err := openSystem(cmd.Context(), net, opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeIO, err.Error(), "")
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer sys.Close()

	res, err := sys.Ask(cmd.Context(), opts.Target, ev)
	if err != nil {
		return reportQueryError(formatter, err)
	}

	return outputInferReport(formatter, buildReport(opts.Target, res))
}

// buildNetwork loads and builds a network definition, rendering any
// problem through the formatter.
func buildNetwork(f *OutputFormatter, path string) (*model.Network, error) {
	if path == "" {
		msg := "no network definition: pass --network or set BELIEFNET_NETWORK"
		_ = f.Error(ErrCodeInput, msg, "")
		return nil, NewExitError(ExitCommandError, msg)
	}

	def, err := config.Load(path)
	if err != nil {
		_ = f.Error(ErrCodeIO, err.Error(), "")
		return nil, WrapExitError(ExitCommandError, "load network definition", err)
	}
	net, err := def.Build()
	if err != nil {
		return nil, outputValidationFailure(f, err)
	}
	slog.Debug("network ready", "path", path, "variables", len(net.Variables()))
	return net, nil
}

// openSystem assembles the facade, attaching a SQLite store when a
// database path is configured.
func openSystem(ctx context.Context, net *model.Network, dbPath string) (*beliefnet.System, error) {
	opts := beliefnet.Options{Network: net}
	if dbPath != "" {
		st, err := sqlite.OpenSQLite(ctx, dbPath)
		if err != nil {
			return nil, err
		}
		opts.Store = st
		slog.Debug("database attached", "path", dbPath)
	}
	return beliefnet.New(opts), nil
}

func buildReport(target string, res inference.Result) InferReport {
	report := InferReport{
		Target:        target,
		Elimination:   res.Elimination,
		Justification: justify.Describe(res),
	}
	if res.Evidence.Len() > 0 {
		report.Evidence = res.Evidence.All()
	}
	dist := res.Distribution()
	for state, p := range dist {
		report.Posterior = append(report.Posterior, StateProbability{State: state, Probability: p})
	}
	if len(dist) > 1 {
		report.Positive = dist[1]
	} else {
		report.Positive = dist[0]
	}
	return report
}

func outputInferReport(f *OutputFormatter, r InferReport) error {
	if f.Format == "json" {
		return f.Success(r)
	}

	posState := 1
	if len(r.Posterior) < 2 {
		posState = 0
	}
	if len(r.Evidence) > 0 {
		fmt.Fprintf(f.Writer, "P(%s=%d | %s) = %.4f\n", r.Target, posState, evidenceText(r.Evidence), r.Positive)
	} else {
		fmt.Fprintf(f.Writer, "P(%s=%d) = %.4f\n", r.Target, posState, r.Positive)
	}
	for _, cell := range r.Posterior {
		fmt.Fprintf(f.Writer, "  %s=%d  %.4f\n", r.Target, cell.State, cell.Probability)
	}
	if len(r.Elimination) > 0 {
		fmt.Fprintf(f.Writer, "eliminated: %s\n", strings.Join(r.Elimination, ", "))
	}
	return nil
}

func evidenceText(ev map[string]int) string {
	names := make([]string, 0, len(ev))
	for name := range ev {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, len(names))
	for i, name := range names {
		pairs[i] = fmt.Sprintf("%s=%d", name, ev[name])
	}
	return strings.Join(pairs, ", ")
}
