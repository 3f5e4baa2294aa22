package pathstore

import (
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// branch records one state Suspend call for Visualize's benefit: pathstore
// itself only needs a FIFO (worklist.Worklist), but a debugging rendering of
// "which branch got suspended in which order" is worth keeping around,
// mirroring the teacher's own dot-graph debugging tool (utils/dot,
// vistool).
type branch struct {
	id   int
	note string
}

// Visualize renders the sequence of branches this store has ever suspended
// as a small left-to-right DOT graph and writes it to path in the given
// format ("svg", "png", ...). It uses the in-process graphviz renderer
// rather than shelling out to a `dot` binary, unlike the teacher's
// production path, since this core has no equivalent long-lived visualizer
// process to amortize that binary's startup cost over.
func (st *Store) Visualize(path, format string) error {
	var b strings.Builder
	b.WriteString("digraph paths {\n")
	b.WriteString(`  rankdir="LR";` + "\n")
	b.WriteString(`  node [shape="ellipse" style="filled" fillcolor="honeydew"];` + "\n")
	b.WriteString(`  root [label="entry"];` + "\n")
	for _, br := range st.history {
		fmt.Fprintf(&b, "  n%d [label=%q];\n", br.id, br.note)
		fmt.Fprintf(&b, "  root -> n%d;\n", br.id)
	}
	b.WriteString("}\n")

	g := graphviz.New()
	graph, err := graphviz.ParseBytes([]byte(b.String()))
	if err != nil {
		return fmt.Errorf("pathstore: parsing dot graph: %w", err)
	}
	defer graph.Close()
	defer g.Close()

	return g.RenderFilename(graph, graphviz.Format(format), path)
}
