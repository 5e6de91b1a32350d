package markov_chain

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Cell is one frequency matrix entry with whether the transition was ever
// actually observed, i.e. counted before smoothing.
type Cell struct {
	Count    float64
	Observed bool
}

// Cells pairs the frequency matrix with the unsmoothed one.
func (m *Model) Cells() [][]Cell {
	out := make([][]Cell, len(m.Frequency))
	for i, row := range m.Frequency {
		out[i] = make([]Cell, len(row))
		for j, v := range row {
			observed := v > 0
			if i < len(m.Unsmoothed) && j < len(m.Unsmoothed[i]) {
				observed = m.Unsmoothed[i][j] > 0
			}
			out[i][j] = Cell{Count: v, Observed: observed}
		}
	}
	return out
}

// String renders the frequency matrix. Counts of transitions that were never
// observed carry a trailing '*'.
func (m *Model) String() string {
	var b strings.Builder
	if m.Label != "" {
		b.WriteString(m.Label)
		b.WriteByte('\n')
	}
	b.WriteString("frequencyMatrix:\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for _, s := range m.Vocabulary {
		fmt.Fprintf(tw, "%s\t", s)
	}
	fmt.Fprintln(tw)
	for i, row := range m.Cells() {
		fmt.Fprintf(tw, "%s\t", m.Vocabulary[i])
		for _, c := range row {
			fmt.Fprintf(tw, "%s\t", FormatCell(c))
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
	return b.String()
}

// FormatCell prints a count compactly, marking unobserved transitions.
func FormatCell(c Cell) string {
	s := strconv.FormatFloat(c.Count, 'g', 6, 64)
	if !c.Observed {
		s += "*"
	}
	return s
}
