package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/llir/llvm/asm"
	"github.com/pkg/errors"
	"github.com/tliron/commonlog"

	"github.com/dshills/llopt/internal/mem2reg"
	"github.com/dshills/llopt/internal/opt"
	"github.com/dshills/llopt/internal/verify"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: llopt [flags] <input.ll> <output.ll>\n\n")
	fmt.Fprintf(os.Stderr, "Local optimizer for LLVM IR: dead code elimination, instruction\n")
	fmt.Fprintf(os.Stderr, "simplification, dominator-based CSE, and redundant load/store\n")
	fmt.Fprintf(os.Stderr, "elimination. Writes per-optimization counters to <output.ll>.stats.\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}

func main() {
	var runMem2Reg bool
	var noCSE bool
	var verbose bool
	var noVerify bool
	var help bool
	flag.BoolVar(&runMem2Reg, "mem2reg", false, "promote stack slots to SSA values before optimizing")
	flag.BoolVar(&noCSE, "no-cse", false, "skip the optimization pipeline entirely")
	flag.BoolVar(&verbose, "verbose", false, "dump statistics to stderr at exit")
	flag.BoolVar(&noVerify, "no", false, "skip post-optimization verification")
	flag.BoolVar(&help, "h", false, "show usage")
	flag.Usage = usage
	flag.Parse()

	if help {
		usage()
		os.Exit(0)
	}
	if flag.NArg() != 2 {
		usage()
		os.Exit(1)
	}
	input := flag.Arg(0)
	output := flag.Arg(1)

	if verbose {
		commonlog.Configure(2, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	mod, err := asm.ParseFile(input)
	if err != nil {
		color.Red("%v", errors.Wrapf(err, "parse %s", input))
		os.Exit(1)
	}

	optimizer := opt.New(mod)
	if !noCSE {
		if runMem2Reg {
			mem2reg.Run(mod)
		}
		optimizer.Run()
	}

	if !noVerify {
		if err := verify.Module(mod); err != nil {
			color.Red("%v", err)
			os.Exit(1)
		}
	}

	if err := os.WriteFile(output, []byte(mod.String()), 0600); err != nil {
		color.Red("%v", errors.Wrapf(err, "write %s", output))
		os.Exit(1)
	}
	if err := writeStats(output+".stats", optimizer.Stats()); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}

	if verbose {
		dumpStats(optimizer.Stats())
	}
}

// writeStats writes the non-zero counters as "name,value" CSV lines.
func writeStats(path string, stats *opt.Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	if err := stats.WriteCSV(f); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

func dumpStats(stats *opt.Stats) {
	stats.Each(func(name string, value uint64) {
		if value == 0 {
			return
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", color.CyanString("%-14s", name), color.GreenString("%d", value))
	})
	if stats.Total() == 0 {
		fmt.Fprintln(os.Stderr, "no optimizations fired")
	}
}
