//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

// enableANSI turns colors off when stdout is not a terminal; Unix terminals
// support ANSI natively.
func enableANSI() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		colorEnabled = false
	}
}

func registerSignals(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
}
