// applemuxd: USB device-management core for an Apple mobile device
// multiplexing daemon.
// Copyright (C) 2026
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	apiAddr := flag.String("api-addr", "localhost:8473", "address of the muxd status API")
	flag.Parse()

	p := tea.NewProgram(newModel(*apiAddr))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "muxmonitor: %v\n", err)
		os.Exit(1)
	}
}
