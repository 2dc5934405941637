package analytics

import (
	"context"
	"sort"

	"github.com/cognicore/beliefnet/pkg/beliefnet/store"
)

// Summary aggregates the recorded inference history.
type Summary struct {
	FactCount   int64
	ResultCount int64
	KeyCounts   map[string]int64
	ValueCounts map[string]map[int]int64 // per variable, per observed state

	MeanPosterior float64
	MinPosterior  float64
	MaxPosterior  float64
}

// Summarize reads the full history from st and aggregates it.
func Summarize(ctx context.Context, st store.Store) (Summary, error) {
	facts, err := st.Facts(ctx)
	if err != nil {
		return Summary{}, err
	}
	results, err := st.Results(ctx)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		KeyCounts:   make(map[string]int64),
		ValueCounts: make(map[string]map[int]int64),
	}

	for _, f := range facts {
		if f.Key == "" {
			continue
		}
		s.FactCount++
		s.KeyCounts[f.Key]++
		if s.ValueCounts[f.Key] == nil {
			s.ValueCounts[f.Key] = make(map[int]int64)
		}
		s.ValueCounts[f.Key][f.Value]++
	}

	var total float64
	for i, r := range results {
		s.ResultCount++
		total += r.Posterior
		if i == 0 || r.Posterior < s.MinPosterior {
			s.MinPosterior = r.Posterior
		}
		if i == 0 || r.Posterior > s.MaxPosterior {
			s.MaxPosterior = r.Posterior
		}
	}
	if s.ResultCount > 0 {
		s.MeanPosterior = total / float64(s.ResultCount)
	}
	return s, nil
}

// KeyStat describes how often a variable was observed as evidence.
type KeyStat struct {
	Key   string
	Count int64
}

// TopKeys returns variables ranked by observation count, ties broken by name.
func (s Summary) TopKeys(limit int) []KeyStat {
	stats := make([]KeyStat, 0, len(s.KeyCounts))
	for key, count := range s.KeyCounts {
		stats = append(stats, KeyStat{Key: key, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Key < stats[j].Key
		}
		return stats[i].Count > stats[j].Count
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}
