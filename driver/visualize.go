package driver

import (
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/symwalk/symex/gotoprog"
)

// Visualize renders fn's control-flow graph (fallthrough and goto edges, one
// node per instruction) to path in the given format, following the
// teacher's own CFG-to-image convention (utils/dot, vistool) but driving
// go-graphviz's in-process renderer directly instead of shelling out to a
// `dot` binary.
func Visualize(fn *gotoprog.Function, path, format string) error {
	var b strings.Builder
	b.WriteString("digraph cfg {\n")
	b.WriteString(`  node [shape="box" fontname="monospace"];` + "\n")

	for pc := 0; pc < len(fn.Body); pc++ {
		instr := fn.Body[pc]
		fmt.Fprintf(&b, "  n%d [label=%q];\n", pc, fmt.Sprintf("%d: %s", pc, instr))
		for _, succ := range cfgSuccessors(fn, gotoprog.PC(pc)) {
			fmt.Fprintf(&b, "  n%d -> n%d;\n", pc, succ)
		}
	}
	b.WriteString("}\n")

	g := graphviz.New()
	graph, err := graphviz.ParseBytes([]byte(b.String()))
	if err != nil {
		return fmt.Errorf("driver: parsing dot graph: %w", err)
	}
	defer graph.Close()
	defer g.Close()

	return g.RenderFilename(graph, graphviz.Format(format), path)
}

func cfgSuccessors(fn *gotoprog.Function, pc gotoprog.PC) []gotoprog.PC {
	if int(pc) >= len(fn.Body) {
		return nil
	}
	instr := fn.Body[pc]
	switch instr.Kind {
	case gotoprog.EndFunction, gotoprog.Return, gotoprog.Throw:
		return nil
	case gotoprog.Goto:
		if instr.Cond.IsTrue() {
			return []gotoprog.PC{instr.Target}
		}
		if instr.Cond.IsFalse() {
			return []gotoprog.PC{pc + 1}
		}
		return []gotoprog.PC{pc + 1, instr.Target}
	case gotoprog.StartThread:
		return []gotoprog.PC{pc + 1, instr.Target}
	default:
		return []gotoprog.PC{pc + 1}
	}
}
