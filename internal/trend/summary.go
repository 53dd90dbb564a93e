package trend

import "sort"

// KeywordDelta is the net change of one keyword between the first and last time point.
type KeywordDelta struct {
	Keyword string  `json:"keyword"`
	Delta   float64 `json:"delta"`
}

// KeywordPeak is one entry of the peak ranking. Rank starts at 1. Column is
// the keyword's position in the table, which tells repeated keywords apart.
type KeywordPeak struct {
	Rank    int     `json:"rank"`
	Keyword string  `json:"keyword"`
	Column  int     `json:"column"`
	Peak    float64 `json:"peak"`
}

// Summary holds the statistics derived from a Table.
type Summary struct {
	Deltas      []KeywordDelta `json:"deltas"`
	TopRiser    KeywordDelta   `json:"top_riser"`
	TopFaller   KeywordDelta   `json:"top_faller"`
	PeakRanking []KeywordPeak  `json:"peak_ranking"`
}

// Delta returns the net change of the first keyword with that name.
func (s *Summary) Delta(keyword string) (float64, bool) {
	for _, d := range s.Deltas {
		if d.Keyword == keyword {
			return d.Delta, true
		}
	}
	return 0, false
}

// Summarize computes per-keyword endpoint deltas, the top riser and faller,
// and the ranking by peak score.
//
// Deltas are last minus first, not a fitted slope: a keyword that spikes and
// returns to its starting level has a delta of zero. Every tie goes to the
// keyword entered first.
func Summarize(t *Table) (*Summary, error) {
	if t.Empty() {
		return nil, ErrEmptyInput
	}

	last := len(t.Index) - 1
	s := &Summary{
		Deltas:      make([]KeywordDelta, len(t.Keywords)),
		PeakRanking: make([]KeywordPeak, len(t.Keywords)),
	}

	riser, faller := 0, 0
	for k, kw := range t.Keywords {
		col := t.Series[k]
		s.Deltas[k] = KeywordDelta{Keyword: kw, Delta: col[last] - col[0]}

		if s.Deltas[k].Delta > s.Deltas[riser].Delta {
			riser = k
		}
		if s.Deltas[k].Delta < s.Deltas[faller].Delta {
			faller = k
		}

		peak := col[0]
		for _, v := range col[1:] {
			if v > peak {
				peak = v
			}
		}
		s.PeakRanking[k] = KeywordPeak{Keyword: kw, Column: k, Peak: peak}
	}
	s.TopRiser = s.Deltas[riser]
	s.TopFaller = s.Deltas[faller]

	sort.SliceStable(s.PeakRanking, func(i, j int) bool {
		return s.PeakRanking[i].Peak > s.PeakRanking[j].Peak
	})
	for i := range s.PeakRanking {
		s.PeakRanking[i].Rank = i + 1
	}

	return s, nil
}
