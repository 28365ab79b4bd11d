package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schollz/snapgrid/internal/midiconnector"
)

func newListPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-ports",
		Short: "List available MIDI output and input ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Output ports:")
			for _, name := range midiconnector.Devices() {
				fmt.Printf("  %s\n", name)
			}
			fmt.Println("Input ports:")
			for _, name := range midiconnector.InputDevices() {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}
}
