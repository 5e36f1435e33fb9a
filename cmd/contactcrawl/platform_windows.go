//go:build windows

package main

import (
	"os"
	"os/signal"

	"golang.org/x/sys/windows"
)

// enableANSI enables ANSI escape code processing on Windows 10+. Colors are
// turned off when the console refuses.
func enableANSI() {
	handle, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE)
	if err != nil || handle == windows.InvalidHandle {
		colorEnabled = false
		return
	}
	var mode uint32
	if err := windows.GetConsoleMode(handle, &mode); err != nil {
		colorEnabled = false
		return
	}
	if err := windows.SetConsoleMode(handle, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); err != nil {
		colorEnabled = false
	}
}

func registerSignals(ch chan<- os.Signal) {
	// Windows only supports SIGINT (Ctrl+C); SIGTERM is not available.
	signal.Notify(ch, os.Interrupt)
}
