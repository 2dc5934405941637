package evidence

import (
	"errors"
	"testing"

	"github.com/cognicore/beliefnet/pkg/beliefnet/internalerr"
)

func TestNewCopies(t *testing.T) {
	src := map[string]int{"A": 1}
	s := New(src)

	// Mutating the source map must not reach the set
	src["A"] = 0
	src["B"] = 1

	if got, _ := s.Get("A"); got != 1 {
		t.Errorf("Get(A) = %d, want 1", got)
	}
	if s.Has("B") {
		t.Error("set picked up a key added after construction")
	}
}

func TestAllCopies(t *testing.T) {
	s := New(map[string]int{"A": 1})
	m := s.All()
	m["A"] = 0

	if got, _ := s.Get("A"); got != 1 {
		t.Error("mutating All() result changed the set")
	}
}

func TestNamesSorted(t *testing.T) {
	s := New(map[string]int{"Zeta": 0, "Alpha": 1, "Mid": 2})

	names := s.Names()
	want := []string{"Alpha", "Mid", "Zeta"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestString(t *testing.T) {
	s := New(map[string]int{"B": 0, "A": 1})
	if got := s.String(); got != "A=1, B=0" {
		t.Errorf("String() = %q, want %q", got, "A=1, B=0")
	}

	var empty Set
	if got := empty.String(); got != "" {
		t.Errorf("empty String() = %q, want empty", got)
	}
}

func TestParse(t *testing.T) {
	s, err := Parse("Inteligencia=1", "Asistencia = 0")
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if got, _ := s.Get("Inteligencia"); got != 1 {
		t.Errorf("Inteligencia = %d, want 1", got)
	}
	if got, _ := s.Get("Asistencia"); got != 0 {
		t.Errorf("Asistencia = %d, want 0", got)
	}
}

func TestParseRejectsMalformedPairs(t *testing.T) {
	cases := []string{"Inteligencia", "=1", "Nota=high"}
	for _, c := range cases {
		if _, err := Parse(c); !errors.Is(err, internalerr.ErrInvalidEvidence) {
			t.Errorf("Parse(%q): got %v, want ErrInvalidEvidence", c, err)
		}
	}
}

func TestParseRejectsRepeatedVariable(t *testing.T) {
	if _, err := Parse("A=0", "A=1"); !errors.Is(err, internalerr.ErrDuplicate) {
		t.Errorf("repeated variable: got %v, want ErrDuplicate", err)
	}
}

func TestZeroSet(t *testing.T) {
	var s Set
	if s.Len() != 0 {
		t.Errorf("zero set Len = %d", s.Len())
	}
	if s.Has("A") {
		t.Error("zero set claims an observation")
	}
	if len(s.Names()) != 0 {
		t.Error("zero set has names")
	}
}
