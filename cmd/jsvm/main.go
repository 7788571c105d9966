// Command jsvm runs scripts, or reads and evaluates them interactively.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"

	"github.com/fatih/color"

	"github.com/zephyrtronium/jsvm"
	// import for side effects
	_ "github.com/zephyrtronium/jsvm/coreext"
)

func main() {
	var (
		configPath string
		verbose    bool
		jsonLogs   bool
		expr       string
		cpuProfile string
		memProfile string
	)
	flag.StringVar(&configPath, "config", "", "YAML configuration file")
	flag.BoolVar(&verbose, "v", false, "log at debug level")
	flag.BoolVar(&jsonLogs, "json", false, "write logs as JSON")
	flag.StringVar(&expr, "e", "", "evaluate this source and print the result")
	flag.StringVar(&cpuProfile, "cpuprofile", "", "write a CPU profile to this file")
	flag.StringVar(&memProfile, "memprofile", "", "write a heap profile to this file on exit")
	flag.Parse()

	cfg := jsvm.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = jsvm.LoadConfig(configPath)
		if err != nil {
			fail(err)
		}
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	level, err := jsvm.ParseLevel(cfg.LogLevel)
	if err != nil {
		fail(err)
	}
	logger := jsvm.NewLogger(os.Stderr, level)
	if jsonLogs {
		logger = jsvm.NewJSONLogger(os.Stderr, level)
	}
	vm := jsvm.NewVM(jsvm.WithConfig(cfg), jsvm.WithLogger(logger))

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			fail(err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fail(err)
		}
		defer pprof.StopCPUProfile()
	}
	if memProfile != "" {
		defer writeHeapProfile(memProfile, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	code := 0
	switch {
	case expr != "":
		code = runSource(ctx, vm, expr, "<expr>", true)
	case flag.NArg() > 0:
		for _, path := range flag.Args() {
			if code = runFile(ctx, vm, path); code != 0 {
				break
			}
		}
	default:
		stop()
		code = repl(vm)
	}
	if code != 0 {
		// Deferred profiling calls do not run after os.Exit.
		pprof.StopCPUProfile()
		os.Exit(code)
	}
}

// runFile runs the script at path, returning the process exit code.
func runFile(ctx context.Context, vm *jsvm.VM, path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		color.Red("%v", err)
		return 1
	}
	return runSource(ctx, vm, string(src), path, false)
}

// runSource runs a program and reports any uncaught exception. If show is
// true, the program's value is printed.
func runSource(ctx context.Context, vm *jsvm.VM, src, name string, show bool) int {
	c, err := vm.RunContext(ctx, src, name)
	if err != nil {
		color.Red("%v", err)
		return 2
	}
	defer c.Value.Release()
	if err := c.Err(); err != nil {
		color.Red("Uncaught %v", err)
		return 1
	}
	if show {
		fmt.Println(display(vm, c.Value))
	}
	return 0
}

// display formats a value for printing. Strings are quoted at the top level
// so that they can be told apart from other values.
func display(vm *jsvm.VM, v jsvm.Value) string {
	if v.IsString() {
		return fmt.Sprintf("%q", v.Str())
	}
	s, c := vm.ToString(v)
	if c.Abrupt() {
		return v.String()
	}
	return s
}

func writeHeapProfile(path string, logger *slog.Logger) {
	f, err := os.Create(path)
	if err != nil {
		logger.Error("creating heap profile", slog.Any("err", err))
		return
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		logger.Error("writing heap profile", slog.Any("err", err))
	}
}

func fail(err error) {
	color.New(color.FgRed).Fprintln(os.Stderr, err)
	os.Exit(2)
}
