// Package tableprinter writes calculation results as aligned text tables.
package tableprinter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.flow.arcalot.io/nodegraph/graph"
	"go.flow.arcalot.io/nodegraph/internal/tidy"
)

const (
	tabwriterMinWidth = 6
	tabwriterWidth    = 4
	tabwriterPadding  = 3
	tabwriterPadChar  = ' '
	tabwriterFlags    = tabwriter.FilterHTML
)

// NewTabWriter returns a tabwriter that transforms tabbed columns into aligned
// text.
func NewTabWriter(output io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(output, tabwriterMinWidth, tabwriterWidth, tabwriterPadding, tabwriterPadChar, tabwriterFlags)
}

// PrintTwoColumnTable writes a two column table with headers to a given
// output destination.
func PrintTwoColumnTable(output io.Writer, headers []string, rows [][]string) {
	w := NewTabWriter(output)

	for _, col := range headers {
		_, _ = fmt.Fprint(w, strings.ToUpper(col), "\t")
	}
	_, _ = fmt.Fprintln(w)

	for _, row := range rows {
		_, _ = fmt.Fprintln(w, row[0], "\t", row[1])
	}

	_ = w.Flush()
}

// PrintResult writes one row per calculated output of the nodes of g, grouped by node. Sub-graph results are left
// out.
func PrintResult(output io.Writer, g *graph.Graph, result graph.CalculationResult) {
	groups := map[string][]string{}
	for _, n := range g.Nodes() {
		outputs, ok := result[n.ID()]
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s (%s)", n.Title(), n.ID())
		for _, key := range n.Outputs().Keys() {
			if key == graph.CalculationResultsKey {
				continue
			}
			groups[label] = append(groups[label], fmt.Sprintf("%s=%v", key, outputs[key]))
		}
	}
	PrintTwoColumnTable(output, []string{"node", "output"}, tidy.UnnestLongerSorted(groups))
}
