package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cognicore/beliefnet/pkg/beliefnet/evidence"
	"github.com/cognicore/beliefnet/pkg/beliefnet/internalerr"
	"github.com/cognicore/beliefnet/pkg/beliefnet/model"
)

// AskOptions holds flags for the ask command.
type AskOptions struct {
	*RootOptions
	Network  string
	Target   string
	Vars     []string
	Database string
}

// NewAskCommand returns the interactive ask subcommand.
func NewAskCommand(rootOpts *RootOptions, e Env) *cobra.Command {
	opts := &AskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Interactively collect evidence and run a query",
		Long: `Prompt for each evidence variable one at a time, then compute the
posterior of the target. Leave an answer blank to skip a variable.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Network, "network", e.Network, "path to the network definition YAML")
	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "query variable")
	cmd.Flags().StringSliceVar(&opts.Vars, "vars", nil, "evidence variables to prompt for (default: all but the target)")
	cmd.Flags().StringVar(&opts.Database, "db", e.Database, "SQLite database for recording facts and results")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runAsk(opts *AskOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	net, err := buildNetwork(formatter, opts.Network)
	if err != nil {
		return err
	}

	questions, err := buildQuestions(net, opts.Target, opts.Vars)
	if err != nil {
		_ = formatter.Error(ErrCodeInput, err.Error(), "")
		return WrapExitError(ExitCommandError, "bad question set", err)
	}

	answers, err := promptEvidence(questions, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return WrapExitError(ExitCommandError, "prompt", err)
	}

	ev, err := answersToEvidence(answers)
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

// evidenceQuestion is one prompt in the interactive form.
type evidenceQuestion struct {
	Name string
	Card int
}

// buildQuestions selects the variables to prompt for. With no explicit
// list, every variable except the target is asked in registration order.
func buildQuestions(net *model.Network, target string, only []string) ([]evidenceQuestion, error) {
	if _, ok := net.Variable(target); !ok {
		return nil, fmt.Errorf("unknown target %q: %w", target, internalerr.ErrUnknownVariable)
	}

	if len(only) == 0 {
		var questions []evidenceQuestion
		for _, v := range net.Variables() {
			if v.Name == target {
				continue
			}
			questions = append(questions, evidenceQuestion{Name: v.Name, Card: v.Card})
		}
		return questions, nil
	}

	questions := make([]evidenceQuestion, 0, len(only))
	for _, name := range only {
		v, ok := net.Variable(name)
		if !ok {
			return nil, fmt.Errorf("unknown variable %q: %w", name, internalerr.ErrUnknownVariable)
		}
		if v.Name == target {
			continue
		}
		questions = append(questions, evidenceQuestion{Name: v.Name, Card: v.Card})
	}
	return questions, nil
}

// answersToEvidence drops blank answers and parses the rest.
func answersToEvidence(answers map[string]string) (evidence.Set, error) {
	pairs := make([]string, 0, len(answers))
	for name, raw := range answers {
		if raw == "" {
			continue
		}
		pairs = append(pairs, name+"="+raw)
	}
	return evidence.Parse(pairs...)
}

// promptModel is a bubbletea model that asks for one variable at a time.
type promptModel struct {
	questions []evidenceQuestion
	idx       int
	inputs    []textinput.Model
	done      bool
}

func newPromptModel(questions []evidenceQuestion) promptModel {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = fmt.Sprintf("0..%d or blank to skip", q.Card-1)
		ti.CharLimit = 8
		inputs[i] = ti
	}
	m := promptModel{
		questions: questions,
		inputs:    inputs,
	}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.idx]
	return fmt.Sprintf("%s [0..%d]: %s\n", q.Name, q.Card-1, m.inputs[m.idx].View())
}

// promptEvidence runs the TUI and returns raw answers keyed by variable.
func promptEvidence(questions []evidenceQuestion, in io.Reader, out io.Writer) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	m := newPromptModel(questions)
	p := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out))
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(promptModel)
	if !ok || !final.done {
		return nil, fmt.Errorf("prompt cancelled")
	}
	answers := make(map[string]string, len(questions))
	for i, q := range questions {
		answers[q.Name] = strings.TrimSpace(final.inputs[i].Value())
	}
	return answers, nil
}
