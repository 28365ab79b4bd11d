package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hypebeast/go-osc/osc"
	"github.com/spf13/cobra"

	"github.com/schollz/snapgrid/cmd/snapgrid-demo/tui"
	"github.com/schollz/snapgrid/internal/clock"
	"github.com/schollz/snapgrid/internal/engine"
	"github.com/schollz/snapgrid/internal/midiconnector"
	"github.com/schollz/snapgrid/internal/registry"
	"github.com/schollz/snapgrid/internal/store"
	"github.com/schollz/snapgrid/internal/wire"
)

func newRunCommand() *cobra.Command {
	var (
		outputPort string
		clockInput string
		bpm        float64
		internal   bool
		oscHost    string
		oscPort    int
		bank, slot int
		transMode  string
		fadeMS     int
		quant      string
		cycleBars  int
		repeat     bool
		loadFile   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clock and engine against a MIDI port, triggering one transition",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.New()
			st := store.New(reg)
			clk := clock.New(bpm, 4)
			eng := engine.New(clk, st, reg)

			if loadFile != "" {
				if err := loadSnapshots(st, loadFile); err != nil {
					return fmt.Errorf("loading snapshots: %w", err)
				}
			}

			dev, err := midiconnector.New(outputPort)
			if err != nil {
				return fmt.Errorf("opening output port: %w", err)
			}
			if err := dev.Open(); err != nil {
				return fmt.Errorf("opening output port: %w", err)
			}
			defer dev.Close()

			var oscClient *osc.Client
			if oscHost != "" {
				oscClient = osc.NewClient(oscHost, oscPort)
				log.Printf("mirroring outbound messages to OSC at %s:%d", oscHost, oscPort)
			}
			model := tui.NewModel(clk, eng, st)
			eng.OnMessage(func(msg wire.Message) {
				dev.Send(msg)
				model.RecordMessage(msg)
				if oscClient != nil {
					mirrorToOSC(oscClient, msg)
				}
			})
			eng.OnInterpolationUpdate(model.PushInterpolation)
			eng.OnComplete(model.PushComplete)

			if internal {
				clk.Start()
			} else {
				clk.SetSource(clock.SourceExternal)
				if clockInput != "" {
					ci, err := midiconnector.OpenClockInput(clockInput, clockEventHandler(clk))
					if err != nil {
						log.Printf("could not open clock input %s: %v", clockInput, err)
					} else {
						defer ci.Close()
					}
				}
				clk.IngestExternalStart()
			}

			snap, ok := st.FindByPosition(bank, slot)
			if !ok {
				log.Printf("no snapshot at bank %d slot %d; nothing to trigger", bank, slot)
			} else {
				trigger(eng, snap.ID, transMode, fadeMS, parseQuant(quant), cycleBars, repeat)
			}

			setupCleanupOnExit(clk)

			p := tea.NewProgram(model)
			if _, err := p.Run(); err != nil {
				log.Printf("tui error: %v", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputPort, "port", "", "MIDI output port name (required)")
	cmd.Flags().StringVar(&clockInput, "clock-input", "", "MIDI input port name for external clock sync")
	cmd.Flags().Float64Var(&bpm, "bpm", 120, "internal clock tempo")
	cmd.Flags().BoolVar(&internal, "internal-clock", true, "pace the clock internally instead of slaving to --clock-input")
	cmd.Flags().StringVar(&oscHost, "osc-host", "", "if set, mirror outbound messages to this OSC host")
	cmd.Flags().IntVar(&oscPort, "osc-port", 57120, "OSC port to mirror outbound messages to")
	cmd.Flags().IntVar(&bank, "bank", 0, "bank of the snapshot to trigger")
	cmd.Flags().IntVar(&slot, "slot", 0, "slot of the snapshot to trigger")
	cmd.Flags().StringVar(&transMode, "mode", "jump", "transition mode: jump or drop")
	cmd.Flags().IntVar(&fadeMS, "fade-ms", 500, "jump fade duration in milliseconds")
	cmd.Flags().StringVar(&quant, "quantization", "none", "quantization boundary: none, beat, bar, 2bar, 4bar")
	cmd.Flags().IntVar(&cycleBars, "cycle-bars", 1, "drop cycle length in bars")
	cmd.Flags().BoolVar(&repeat, "repeat", false, "repeat the drop every cycle")
	cmd.Flags().StringVar(&loadFile, "load", "", "load snapshots from this gzip-compressed JSON export before running")
	cmd.MarkFlagRequired("port")

	return cmd
}

func trigger(eng *engine.Engine, snapshotID, mode string, fadeMS int, quant clock.Quantization, cycleBars int, repeat bool) {
	switch mode {
	case "drop":
		eng.ExecuteDrop(snapshotID, engine.Settings{CycleLengthBars: cycleBars, Repeat: repeat})
	default:
		eng.ExecuteJump(snapshotID, engine.Settings{Mode: engine.ModeJump, FadeMS: fadeMS, Quantization: quant})
	}
}

func parseQuant(s string) clock.Quantization {
	switch s {
	case "beat":
		return clock.QuantBeat
	case "bar":
		return clock.QuantBar
	case "2bar":
		return clock.Quant2Bar
	case "4bar":
		return clock.Quant4Bar
	default:
		return clock.QuantNone
	}
}

// clockEventHandler maps incoming wire.ClockEvent values from a real
// MIDI input port onto the Clock's external-source API (spec.md §6,
// "external clock slaving").
func clockEventHandler(clk *clock.Clock) func(wire.ClockEvent) {
	return func(ev wire.ClockEvent) {
		switch ev.Kind {
		case wire.EventTick:
			clk.IngestExternalTick()
		case wire.EventStart:
			clk.IngestExternalStart()
		case wire.EventStop:
			clk.IngestExternalStop()
		case wire.EventContinue:
			clk.IngestExternalContinue()
		case wire.EventControlChange:
			if ev.CC != 80 || ev.Channel != 1 {
				return
			}
			if bpm, ok := registry.MapTempoCC(ev.Value); ok {
				clk.SetBPM(bpm)
			} else {
				clock.WarnMalformedTempoCC(ev.Value)
			}
		}
	}
}

// mirrorToOSC sends a lightweight OSC shadow of an outbound wire message,
// grounded on the teacher's OSC dispatcher in main.go (there used for
// SuperCollider transport, here repurposed as a read-only mirror).
func mirrorToOSC(client *osc.Client, msg wire.Message) {
	var m *osc.Message
	switch v := msg.(type) {
	case wire.CC:
		m = osc.NewMessage("/snapgrid/cc")
		m.Append(int32(v.Channel))
		m.Append(int32(v.CC))
		m.Append(int32(v.Value))
	case wire.PC:
		m = osc.NewMessage("/snapgrid/pc")
		m.Append(int32(v.Channel))
		m.Append(int32(v.Program))
	case wire.Note:
		m = osc.NewMessage("/snapgrid/note")
		m.Append(int32(v.Channel))
		m.Append(int32(v.Note))
		m.Append(int32(v.Velocity))
		m.Append(v.On)
	case wire.NRPN:
		m = osc.NewMessage("/snapgrid/nrpn")
		m.Append(int32(v.Channel))
		m.Append(int32(v.MSB))
		m.Append(int32(v.LSB))
		m.Append(int32(v.Value))
	default:
		return
	}
	client.Send(m)
}

func setupCleanupOnExit(clk *clock.Clock) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-c
		clk.Stop()
		time.Sleep(50 * time.Millisecond)
		os.Exit(0)
	}()
}
