package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/zephyrtronium/jsvm"
)

const (
	historyFile = ".jsvm_history"
	promptMain  = "js> "
	promptCont  = "... "
)

var (
	errColor  = color.New(color.FgRed)
	numColor  = color.New(color.FgCyan)
	strColor  = color.New(color.FgGreen)
	nilColor  = color.New(color.Faint)
	boolColor = color.New(color.FgYellow)
)

const help = `  :quit    exit
  :gc      collect cyclic garbage and show heap counters
  :stats   show heap counters`

// repl reads and evaluates programs until the input ends.
func repl(vm *jsvm.VM) int {
	fmt.Printf("jsvm %s on %s (%s)\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.\n", jsvm.Version, runtime.GOOS, platformVersion())

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		src, ok := readComplete(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		cmd := strings.TrimSpace(src)
		switch {
		case cmd == "":
			continue
		case cmd == ":quit":
			return 0
		case cmd == ":help":
			fmt.Println(help)
		case cmd == ":gc":
			n := vm.Collect()
			fmt.Printf("collected %d objects\n", n)
			showHeap(vm)
		case cmd == ":stats":
			showHeap(vm)
		case strings.HasPrefix(cmd, ":"):
			errColor.Printf("unknown command %s. Type :help for commands.\n", cmd)
		default:
			ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
			evalLine(vm, src)
		}
	}
}

// evalLine runs one REPL entry and prints its result. An interrupt signal
// during evaluation stops the entry rather than the process.
func evalLine(vm *jsvm.VM, src string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	c, err := vm.RunContext(ctx, src, "<repl>")
	if err != nil {
		errColor.Println(err)
		return
	}
	defer c.Value.Release()
	if err := c.Err(); err != nil {
		errColor.Printf("Uncaught %v\n", err)
		return
	}
	printValue(vm, c.Value)
}

func printValue(vm *jsvm.VM, v jsvm.Value) {
	s := display(vm, v)
	switch v.Kind() {
	case jsvm.NumberKind:
		numColor.Println(s)
	case jsvm.StringKind:
		strColor.Println(s)
	case jsvm.BooleanKind:
		boolColor.Println(s)
	case jsvm.UndefinedKind, jsvm.NullKind:
		nilColor.Println(s)
	default:
		fmt.Println(s)
	}
}

func showHeap(vm *jsvm.VM) {
	st := vm.Heap.Stats()
	fmt.Printf("live %d, allocated %d, destroyed %d\n", vm.Heap.Live(), st.Allocated, st.Destroyed)
	fmt.Printf("%d cycle collections destroyed %d objects in %v\n", st.Collections, st.CycleDestroyed, st.CollectTime)
}

// readComplete reads lines until they form a program that parses or fails
// for a reason other than running out of input. It returns false when the
// input ends.
func readComplete(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			errColor.Println(err)
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		_, err = jsvm.Parse(src, "<repl>")
		if err != nil && strings.Contains(err.Error(), "Unexpected end of input") {
			continue
		}
		return src, true
	}
}
