package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/beliefnet/pkg/beliefnet/config"
)

// VariableInfo describes one network variable.
type VariableInfo struct {
	Name        string   `json:"name"`
	Cardinality int      `json:"cardinality"`
	Parents     []string `json:"parents,omitempty"`
	TableCells  int      `json:"table_cells"`
}

// NetworkSummary describes a built network.
type NetworkSummary struct {
	Variables []VariableInfo `json:"variables"`
}

// NewShowCommand returns the show subcommand, which prints the
// structure of a definition without querying it.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <network.yaml>",
		Short:         "Print the variables and dependencies of a network",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runShow(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	summary := NetworkSummary{}
	for _, v := range net.Variables() {
		info := VariableInfo{Name: v.Name, Cardinality: v.Card}
		if parents, ok := net.Parents(v.Name); ok {
			info.Parents = parents
		}
		if cpd, ok := net.Conditional(v.Name); ok {
			info.TableCells = cpd.Size()
		}
		summary.Variables = append(summary.Variables, info)
	}

	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	for _, info := range summary.Variables {
		line := fmt.Sprintf("%s (%d states)", info.Name, info.Cardinality)
		if len(info.Parents) > 0 {
			line += " <- " + strings.Join(info.Parents, ", ")
		}
		fmt.Fprintf(formatter.Writer, "%s  [%d cells]\n", line, info.TableCells)
	}
	return nil
}
