// Command symex drives one goto-program fixture through the symbolic
// execution core and hands the resulting equation(s) to the solver façade,
// following the teacher's flag-parse-then-phase-banner main() shape.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/symwalk/symex/config"
	"github.com/symwalk/symex/driver"
	"github.com/symwalk/symex/fixtures"
	"github.com/symwalk/symex/internal/logging"
	"github.com/symwalk/symex/solver"
	"github.com/symwalk/symex/utils/indenter"
)

func main() {
	opts := config.Default()
	fs := flag.NewFlagSet("symex", flag.ExitOnError)
	opts.RegisterFlags(fs)
	program := fs.String("program", "straight-line", "fixture program to run: "+strings.Join(fixtures.Names(), ", "))
	visualizeCFG := fs.String("visualize-cfg", "", "write the entry function's CFG to this image file and exit (format inferred from extension)")
	visualizePaths := fs.String("visualize-paths", "", "write the suspended-path tree to this image file")
	fs.Parse(os.Args[1:])

	if err := opts.MergeFile(); err != nil {
		log.Fatalln(err)
	}
	fs.Parse(os.Args[1:]) // flags win over a merged config file
	if err := opts.Validate(); err != nil {
		log.Fatalln(err)
	}

	prog, ok := fixtures.Load(*program)
	if !ok {
		log.Fatalf("symex: unknown -program %q (known: %s)", *program, strings.Join(fixtures.Names(), ", "))
	}

	if *visualizeCFG != "" {
		entry, _ := prog.GetFunction(prog.Entry)
		if err := driver.Visualize(entry, *visualizeCFG, imageFormat(*visualizeCFG)); err != nil {
			log.Fatalln(err)
		}
		return
	}

	lg := logging.New(opts.DebugLevel)
	lg.Phase("symbolic execution: %s", *program)

	results, store, err := driver.RunTraced(prog, opts)
	if err != nil {
		log.Fatalln(err)
	}

	if *visualizePaths != "" {
		if err := store.Visualize(*visualizePaths, imageFormat(*visualizePaths)); err != nil {
			log.Fatalln(err)
		}
	}

	bundle, err := solver.Build(opts)
	if err != nil {
		log.Fatalln(err)
	}
	defer bundle.Close()

	lg.Phase("solving %d path(s) with %s", len(results), bundle.Backend.Name())
	for pathIdx, res := range results {
		checks, err := bundle.Backend.Check(res.Equation)
		if err != nil {
			log.Fatalln(err)
		}
		lines := make([]string, len(checks))
		for i, c := range checks {
			lines[i] = fmt.Sprintf("%s: %s (%s)", c.Verdict, c.Step.Msg, c.Step.Source)
		}
		header := fmt.Sprintf("path %d: %d total VCCs, %d remaining", pathIdx, res.TotalVCCs, res.RemainingVCCs)
		block := indenter.Indenter().Start(header).NestStrings(lines...).End("")
		fmt.Println(block)
	}
}

func imageFormat(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 && i < len(path)-1 {
		return path[i+1:]
	}
	return "svg"
}
