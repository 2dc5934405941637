package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/beliefnet/pkg/beliefnet/config"
	"github.com/cognicore/beliefnet/pkg/beliefnet/model"
)

// ValidationResult is the validate payload inside the JSON envelope.
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	Variables int    `json:"variables,omitempty"`
	Edges     int    `json:"edges,omitempty"`
	Problem   string `json:"problem,omitempty"`
}

// NewValidateCommand returns the validate subcommand.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <network.yaml>",
		Short: "Build and validate a network definition",
		Long: `Build a network from a YAML definition and run the full validation:
acyclic structure, one conditional distribution per variable, matching
scopes and cardinalities, and unit probability mass per parent assignment.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	def, err := config.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeIO, err.Error(), "")
		return WrapExitError(ExitCommandError, "load network definition", err)
	}

	net, err := def.Build()
	if err != nil {
		return outputValidationFailure(formatter, err)
	}

	result := ValidationResult{
		Valid:     true,
		Variables: len(net.Variables()),
		Edges:     countEdges(net),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ network valid (%d variables, %d dependencies)\n",
		result.Variables, result.Edges)
	return nil
}

func outputValidationFailure(f *OutputFormatter, err error) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		_ = enc.Encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Problem: err.Error()},
			Error:  &CLIError{Code: ErrCodeModel, Message: err.Error()},
		})
	} else {
		fmt.Fprintln(f.Writer, "✗ invalid network")
		fmt.Fprintf(f.Writer, "  %s\n", err)
	}
	return WrapExitError(ExitFailure, "validation failed", err)
}

func countEdges(net *model.Network) int {
	var edges int
	for _, v := range net.Variables() {
		if parents, ok := net.Parents(v.Name); ok {
			edges += len(parents)
		}
	}
	return edges
}
