package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gradesYAML = `variables:
  - name: Inteligencia
    cardinality: 2
  - name: Dificultad
    cardinality: 2
  - name: Asistencia
    cardinality: 2
  - name: Nota
    cardinality: 2

conditionals:
  - variable: Inteligencia
    table:
      - [0.7]
      - [0.3]
  - variable: Dificultad
    table:
      - [0.6]
      - [0.4]
  - variable: Asistencia
    table:
      - [0.8]
      - [0.2]
  - variable: Nota
    parents: [Inteligencia, Dificultad, Asistencia]
    table:
      - [0.9, 0.7, 0.8, 0.1, 0.8, 0.6, 0.7, 0.3]
      - [0.1, 0.3, 0.2, 0.9, 0.2, 0.4, 0.3, 0.7]
`

// writeGradesNetwork writes the student grade model to a temp file and
// returns its path.
func writeGradesNetwork(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grades.yaml")
	require.NoError(t, os.WriteFile(path, []byte(gradesYAML), 0o644))
	return path
}

func TestRootCommandSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"validate", "show", "infer", "ask", "serve", "history"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestRootCommandRejectsBadFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "xml", "validate", "whatever.yaml"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("BELIEFNET_NETWORK", "grades.yaml")
	t.Setenv("BELIEFNET_DB", "facts.db")
	t.Setenv("BELIEFNET_LISTEN", "127.0.0.1:9000")

	e, err := loadEnv()
	require.NoError(t, err)
	assert.Equal(t, "grades.yaml", e.Network)
	assert.Equal(t, "facts.db", e.Database)
	assert.Equal(t, "127.0.0.1:9000", e.Listen)
}

func TestLoadEnvListenDefault(t *testing.T) {
	t.Setenv("BELIEFNET_LISTEN", "placeholder")
	os.Unsetenv("BELIEFNET_LISTEN")

	e, err := loadEnv()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8415", e.Listen)
}
