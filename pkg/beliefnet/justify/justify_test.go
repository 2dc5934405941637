package justify

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/cognicore/beliefnet/pkg/beliefnet/evidence"
	"github.com/cognicore/beliefnet/pkg/beliefnet/factor"
	"github.com/cognicore/beliefnet/pkg/beliefnet/inference"
	"github.com/cognicore/beliefnet/pkg/beliefnet/model"
)

func mustFactor(t *testing.T, scope []factor.Variable, values []float64) factor.Factor {
	t.Helper()
	f, err := factor.New(scope, values)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// buildGradeNetwork mirrors the reference student grade model.
func buildGradeNetwork(t *testing.T) *model.Network {
	t.Helper()

	n := model.New()
	for _, name := range []string{"Inteligencia", "Dificultad", "Asistencia", "Nota"} {
		if err := n.AddVariable(name, 2); err != nil {
			t.Fatal(err)
		}
	}
	for _, parent := range []string{"Inteligencia", "Dificultad", "Asistencia"} {
		if err := n.AddDependency(parent, "Nota"); err != nil {
			t.Fatal(err)
		}
	}

	intel := factor.Variable{Name: "Inteligencia", Card: 2}
	diff := factor.Variable{Name: "Dificultad", Card: 2}
	attend := factor.Variable{Name: "Asistencia", Card: 2}
	grade := factor.Variable{Name: "Nota", Card: 2}

	set := func(name string, f factor.Factor) {
		t.Helper()
		if err := n.SetConditional(name, f); err != nil {
			t.Fatal(err)
		}
	}
	set("Inteligencia", mustFactor(t, []factor.Variable{intel}, []float64{0.7, 0.3}))
	set("Dificultad", mustFactor(t, []factor.Variable{diff}, []float64{0.6, 0.4}))
	set("Asistencia", mustFactor(t, []factor.Variable{attend}, []float64{0.8, 0.2}))
	set("Nota", mustFactor(t,
		[]factor.Variable{intel, diff, attend, grade},
		[]float64{
			0.9, 0.1, 0.7, 0.3, 0.8, 0.2, 0.1, 0.9,
			0.8, 0.2, 0.6, 0.4, 0.7, 0.3, 0.3, 0.7,
		}))

	if err := n.Validate(); err != nil {
		t.Fatal(err)
	}
	return n
}

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestDescribeWithEvidence(t *testing.T) {
	n := buildGradeNetwork(t)
	ev := evidence.New(map[string]int{"Inteligencia": 1, "Asistencia": 1})

	res, err := inference.New().Query(n, []string{"Nota"}, ev)
	if err != nil {
		t.Fatal(err)
	}
	golden(t).Assert(t, "grade_with_evidence", []byte(Describe(res)))
}

func TestDescribeMarginal(t *testing.T) {
	n := buildGradeNetwork(t)

	res, err := inference.New().Query(n, []string{"Nota"}, evidence.Set{})
	if err != nil {
		t.Fatal(err)
	}
	golden(t).Assert(t, "grade_marginal", []byte(Describe(res)))
}

func TestDescribeJointQuery(t *testing.T) {
	n := buildGradeNetwork(t)
	ev := evidence.New(map[string]int{"Inteligencia": 0})

	res, err := inference.New().Query(n, []string{"Dificultad", "Nota"}, ev)
	if err != nil {
		t.Fatal(err)
	}
	golden(t).Assert(t, "joint_two_variables", []byte(Describe(res)))
}

func TestDescribeDeterministic(t *testing.T) {
	n := buildGradeNetwork(t)
	ev := evidence.New(map[string]int{"Asistencia": 0})

	first, err := inference.New().Query(n, []string{"Nota"}, ev)
	if err != nil {
		t.Fatal(err)
	}
	second, err := inference.New().Query(n, []string{"Nota"}, ev)
	if err != nil {
		t.Fatal(err)
	}

	// Result IDs differ but the justification text must not
	if first.ID == second.ID {
		t.Fatal("two results share an ID")
	}
	if Describe(first) != Describe(second) {
		t.Errorf("same query produced different texts:\n%s\n%s", Describe(first), Describe(second))
	}
}

func TestJournalAppendOrder(t *testing.T) {
	j := NewJournal()

	j.Append("01A", "first")
	j.Append("01B", "second")
	j.Append("01C", "third")

	if j.Len() != 3 {
		t.Fatalf("Len = %d, want 3", j.Len())
	}
	entries := j.Entries()
	for i, want := range []string{"first", "second", "third"} {
		if entries[i].Text != want {
			t.Errorf("entries[%d].Text = %q, want %q", i, entries[i].Text, want)
		}
	}
	if entries[0].At.IsZero() {
		t.Error("entry has no timestamp")
	}
}

func TestJournalEntriesCopies(t *testing.T) {
	j := NewJournal()
	j.Append("01A", "original")

	entries := j.Entries()
	entries[0].Text = "tampered"

	if j.Entries()[0].Text != "original" {
		t.Error("mutating the returned slice changed the journal")
	}
}

func TestDescribeMentionsEvidence(t *testing.T) {
	n := buildGradeNetwork(t)
	ev := evidence.New(map[string]int{"Inteligencia": 1, "Asistencia": 1})

	res, err := inference.New().Query(n, []string{"Nota"}, ev)
	if err != nil {
		t.Fatal(err)
	}

	text := Describe(res)
	for _, fragment := range []string{"Asistencia=1", "Inteligencia=1", "P(Nota=1)=0.5200"} {
		if !strings.Contains(text, fragment) {
			t.Errorf("justification %q missing %q", text, fragment)
		}
	}
}
