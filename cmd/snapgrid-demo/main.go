// Command snapgrid-demo is a thin harness around the snapgrid core: it
// wires a Clock, Store, parameter Registry, and Transition Engine to a
// real MIDI output port and prints a terminal status view. It is not the
// core itself (spec.md §1 scopes persistence and UI out of the engine);
// it exists to exercise the core against real hardware/software MIDI
// ports the way the teacher's main.go exercised its tracker against
// SuperCollider.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var debugLog string

func main() {
	root := &cobra.Command{
		Use:   "snapgrid-demo",
		Short: "Demo harness for the snapgrid snapshot/transition engine",
	}
	root.PersistentFlags().StringVar(&debugLog, "debug", "", "write debug logs to this file; empty disables logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogging(debugLog)
	}

	root.AddCommand(newRunCommand())
	root.AddCommand(newListPortsCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(path string) {
	if path == "" {
		log.SetOutput(io.Discard)
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("could not open debug log %s: %v", path, err)
		return
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
