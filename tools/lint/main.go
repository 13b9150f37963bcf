// Command lint runs the static analyzers fsnap is held to.
//
//	go run ./tools/lint ./...
package main

import (
	"github.com/kisielk/errcheck/errcheck"
	"go.uber.org/nilaway"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
)

// analyzers is the set run over the module.
var analyzers = []*analysis.Analyzer{
	// Copied locks deadlock the per-root lock table and the stores.
	copylock.Analyzer,
	errcheck.Analyzer,
	errorsas.Analyzer,
	// Snapshot walks and store calls take contexts; leaked cancels pile up in watch mode.
	lostcancel.Analyzer,
	nilaway.Analyzer,
	printf.Analyzer,
	structtag.Analyzer,
	unmarshal.Analyzer,
	unusedresult.Analyzer,
}

func main() {
	multichecker.Main(analyzers...)
}
