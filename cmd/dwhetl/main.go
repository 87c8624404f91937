package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/sparkify-data/dwhetl/internal/cli"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(dwhetl.ExitPanic)
		}
	}()

	if os.Getenv("DWHETL_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(dwhetl.ExitCodeForError(err))
	}
}
