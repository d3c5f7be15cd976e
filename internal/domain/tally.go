package domain

import (
	"math"
	"sort"
)

// OptionCount pairs an option with its raw vote count.
type OptionCount struct {
	OptionID string
	Text     string
	Votes    int64
}

// OptionShare is an option's slice of the final tally.
type OptionShare struct {
	OptionID   string  `json:"optionId"`
	Text       string  `json:"text"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// Tally is the aggregated result for one poll.
type Tally struct {
	TotalVotes int64         `json:"totalVotes"`
	Options    []OptionShare `json:"options"`
}

// ComputeTally turns raw per-option counts into totals and percentages.
// Percentages are rounded half-up to one decimal place; with zero votes
// every option reports exactly 0 rather than NaN. Individual percentages
// are not forced to sum to 100. When sortByVotes is set, options are
// ordered by descending count with ties keeping their submitted order.
func ComputeTally(counts []OptionCount, sortByVotes bool) Tally {
	var total int64
	for _, c := range counts {
		total += c.Votes
	}

	options := make([]OptionShare, len(counts))
	for i, c := range counts {
		share := OptionShare{
			OptionID: c.OptionID,
			Text:     c.Text,
			Votes:    c.Votes,
		}
		if total > 0 {
			share.Percentage = math.Round(float64(c.Votes)/float64(total)*1000) / 10
		}
		options[i] = share
	}

	tally := Tally{TotalVotes: total, Options: options}
	if sortByVotes {
		return tally.SortedByVotes()
	}
	return tally
}

// SortedByVotes returns a copy ordered by descending count, ties keeping
// their current order.
func (t Tally) SortedByVotes() Tally {
	options := make([]OptionShare, len(t.Options))
	copy(options, t.Options)
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Votes > options[j].Votes
	})
	return Tally{TotalVotes: t.TotalVotes, Options: options}
}
