package cli

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/beliefnet/pkg/beliefnet/config"
	"github.com/cognicore/beliefnet/pkg/beliefnet/internalerr"
	"github.com/cognicore/beliefnet/pkg/beliefnet/model"
)

func buildTestNetwork(t *testing.T) *model.Network {
	t.Helper()
	def, err := config.Load(writeGradesNetwork(t))
	require.NoError(t, err)
	net, err := def.Build()
	require.NoError(t, err)
	return net
}

func TestBuildQuestionsDefault(t *testing.T) {
	net := buildTestNetwork(t)

	questions, err := buildQuestions(net, "Nota", nil)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, "Inteligencia", questions[0].Name)
	assert.Equal(t, "Dificultad", questions[1].Name)
	assert.Equal(t, "Asistencia", questions[2].Name)
	assert.Equal(t, 2, questions[0].Card)
}

func TestBuildQuestionsExplicit(t *testing.T) {
	net := buildTestNetwork(t)

	questions, err := buildQuestions(net, "Nota", []string{"Asistencia", "Nota", "Inteligencia"})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "Asistencia", questions[0].Name)
	assert.Equal(t, "Inteligencia", questions[1].Name)
}

func TestBuildQuestionsUnknownTarget(t *testing.T) {
	net := buildTestNetwork(t)

	_, err := buildQuestions(net, "Suerte", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrUnknownVariable))
}

func TestBuildQuestionsUnknownVariable(t *testing.T) {
	net := buildTestNetwork(t)

	_, err := buildQuestions(net, "Nota", []string{"Inteligencia", "Suerte"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrUnknownVariable))
}

func TestAnswersToEvidence(t *testing.T) {
	ev, err := answersToEvidence(map[string]string{
		"Inteligencia": "1",
		"Dificultad":   "",
		"Asistencia":   "0",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ev.Len())

	state, ok := ev.Get("Inteligencia")
	require.True(t, ok)
	assert.Equal(t, 1, state)
	assert.False(t, ev.Has("Dificultad"))
}

func TestAnswersToEvidenceBadState(t *testing.T) {
	_, err := answersToEvidence(map[string]string{"Inteligencia": "alta"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidEvidence))
}

func typeRunes(m promptModel, s string) promptModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(promptModel)
}

func pressKey(m promptModel, key tea.KeyType) (promptModel, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	return next.(promptModel), cmd
}

func TestPromptModelAdvancesThroughQuestions(t *testing.T) {
	questions := []evidenceQuestion{
		{Name: "Inteligencia", Card: 2},
		{Name: "Asistencia", Card: 2},
	}
	m := newPromptModel(questions)
	assert.Equal(t, 0, m.idx)
	assert.False(t, m.done)

	m = typeRunes(m, "1")
	m, _ = pressKey(m, tea.KeyEnter)
	assert.Equal(t, 1, m.idx)
	assert.False(t, m.done)

	m = typeRunes(m, "0")
	m, cmd := pressKey(m, tea.KeyEnter)
	assert.True(t, m.done)
	require.NotNil(t, cmd)

	assert.Equal(t, "1", m.inputs[0].Value())
	assert.Equal(t, "0", m.inputs[1].Value())
}

func TestPromptModelBlankAnswerSkips(t *testing.T) {
	m := newPromptModel([]evidenceQuestion{{Name: "Dificultad", Card: 2}})

	m, cmd := pressKey(m, tea.KeyEnter)
	assert.True(t, m.done)
	require.NotNil(t, cmd)
	assert.Equal(t, "", m.inputs[0].Value())
}

func TestPromptModelEscCancels(t *testing.T) {
	m := newPromptModel([]evidenceQuestion{{Name: "Inteligencia", Card: 2}})

	m, cmd := pressKey(m, tea.KeyEsc)
	assert.False(t, m.done)
	require.NotNil(t, cmd)
}

func TestPromptModelView(t *testing.T) {
	questions := []evidenceQuestion{{Name: "Inteligencia", Card: 2}}
	m := newPromptModel(questions)
	assert.Contains(t, m.View(), "Inteligencia [0..1]:")

	m, _ = pressKey(m, tea.KeyEnter)
	assert.Equal(t, "", m.View())
}

func TestPromptEvidenceNoQuestions(t *testing.T) {
	answers, err := promptEvidence(nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, answers)
}
