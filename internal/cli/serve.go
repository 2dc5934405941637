package cli

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"

	"github.com/cognicore/beliefnet/pkg/beliefnet"
	"github.com/cognicore/beliefnet/pkg/beliefnet/evidence"
	"github.com/cognicore/beliefnet/pkg/beliefnet/factor"
	"github.com/cognicore/beliefnet/pkg/beliefnet/internalerr"
)

// maxConns caps concurrent connections on the local form server.
const maxConns = 64

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Network  string
	Listen   string
	Database string
}

// NewServeCommand returns the serve subcommand hosting the query form.
func NewServeCommand(rootOpts *RootOptions, e Env) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a local HTML form for running queries",
		Long: `Serve a small HTML form over HTTP. Submitting the form runs one query
and renders the posterior; facts and results are recorded when a
database is attached.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Network, "network", e.Network, "path to the network definition YAML")
	cmd.Flags().StringVar(&opts.Listen, "listen", e.Listen, "address to listen on")
	cmd.Flags().StringVar(&opts.Database, "db", e.Database, "SQLite database for recording facts and results")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	network, err := buildNetwork(formatter, opts.Network)
	if err != nil {
		return err
	}

	sys, err := openSystem(cmd.Context(), network, opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeIO, err.Error(), "")
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer sys.Close()

	listener, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		_ = formatter.Error(ErrCodeIO, err.Error(), "")
		return WrapExitError(ExitCommandError, "listen", err)
	}
	listener = netutil.LimitListener(listener, maxConns)

	server := &http.Server{
		Handler:           newWebHandler(sys, network.Variables()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	slog.Info("listening", "addr", listener.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	}
}

const formPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>beliefnet</title></head>
<body>
<h1>beliefnet</h1>
<form method="post" action="/infer">
<p><label>Target:
<select name="target">
{{range .Variables}}<option value="{{.Name}}">{{.Name}}</option>
{{end}}</select>
</label></p>
{{range .Variables}}<p><label>{{.Name}} [0..{{.Max}}]:
<input name="ev.{{.Name}}" placeholder="blank to skip"></label></p>
{{end}}<p><button type="submit">Infer</button></p>
</form>
</body>
</html>
`

const resultPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>beliefnet</title></head>
<body>
<h1>P({{.Report.Target}}={{.PosState}}{{if .Evidence}} | {{.Evidence}}{{end}}) = {{printf "%.4f" .Report.Positive}}</h1>
<table>
<tr><th>state</th><th>probability</th></tr>
{{range .Report.Posterior}}<tr><td>{{.State}}</td><td>{{printf "%.4f" .Probability}}</td></tr>
{{end}}</table>
{{if .Report.Elimination}}<p>eliminated: {{range $i, $n := .Report.Elimination}}{{if $i}}, {{end}}{{$n}}{{end}}</p>
{{end}}<p>{{.Report.Justification}}</p>
<p><a href="/">back</a></p>
</body>
</html>
`

type formVariable struct {
	Name string
	Max  int
}

type formData struct {
	Variables []formVariable
}

type resultData struct {
	Report   InferReport
	PosState int
	Evidence string
}

// webHandler answers the form and query routes.
type webHandler struct {
	sys    *beliefnet.System
	vars   []factor.Variable
	form   *template.Template
	result *template.Template
}

func newWebHandler(sys *beliefnet.System, vars []factor.Variable) http.Handler {
	h := &webHandler{
		sys:    sys,
		vars:   vars,
		form:   template.Must(template.New("form").Parse(formPage)),
		result: template.Must(template.New("result").Parse(resultPage)),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.handleForm)
	mux.HandleFunc("/infer", h.handleInfer)
	return mux
}

func (h *webHandler) handleForm(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := formData{}
	for _, v := range h.vars {
		data.Variables = append(data.Variables, formVariable{Name: v.Name, Max: v.Card - 1})
	}
	if err := h.form.Execute(w, data); err != nil {
		slog.Error("render form", "error", err)
	}
}

func (h *webHandler) handleInfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	target := r.FormValue("target")
	var pairs []string
	for _, v := range h.vars {
		raw := strings.TrimSpace(r.FormValue("ev." + v.Name))
		if raw == "" {
			continue
		}
		pairs = append(pairs, v.Name+"="+raw)
	}
	ev, err := evidence.Parse(pairs...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.sys.Ask(r.Context(), target, ev)
	if err != nil {
		status := http.StatusInternalServerError
		if inputShaped(err) ||
			errors.Is(err, internalerr.ErrUnknownVariable) ||
			errors.Is(err, internalerr.ErrEmptyQuery) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	report := buildReport(target, res)
	posState := 1
	if len(report.Posterior) < 2 {
		posState = 0
	}
	data := resultData{
		Report:   report,
		PosState: posState,
		Evidence: evidenceText(report.Evidence),
	}
	if err := h.result.Execute(w, data); err != nil {
		slog.Error("render result", "error", err)
	}
}
