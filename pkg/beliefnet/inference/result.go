package inference

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/beliefnet/pkg/beliefnet/evidence"
	"github.com/cognicore/beliefnet/pkg/beliefnet/factor"
)

// Result is one answered query: the normalized posterior over the query
// variables given the evidence, plus the elimination order that
// produced it. The ID ties the result to journal and store records.
type Result struct {
	ID          string
	Query       []string
	Posterior   factor.Factor
	Evidence    evidence.Set
	Elimination []string
}

// Prob reads the posterior probability of one full assignment of the
// query variables.
func (r Result) Prob(assignment map[string]int) (float64, error) {
	return r.Posterior.Value(assignment)
}

// Distribution returns the posterior values in the query order's
// lexicographic layout.
func (r Result) Distribution() []float64 {
	return r.Posterior.Values()
}

func newID() string {
	return ulid.MustNew(ulid.Now(), ulid.Monotonic(rand.Reader, 0)).String()
}
