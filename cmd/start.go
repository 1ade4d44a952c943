package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/beanboi7/chyp8/chyp"
	"github.com/beanboi7/chyp8/emu/audio"
	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/host"
	"github.com/beanboi7/chyp8/emu/screen"
	"github.com/beanboi7/chyp8/emu/term"
)

var startCmd = &cobra.Command{
	Use:   "start `path/ROM`",
	Short: "load and start the Emulator",
	Args:  cobra.ExactArgs(1),
	RunE:  Start,
}

// chyp8 start 'path/to/ROM' -r 60 -c 700
func Start(cmd *cobra.Command, args []string) error {
	cfg, err := chyp.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logs, err := cfg.SetupLogging()
	if err != nil {
		return err
	}
	defer logs.Close()

	sound := newSounder(cfg)
	emu, err := newEMU(cfg, args[0], sound)
	if err != nil {
		return err
	}

	hostCfg := host.Config{
		Clock:           cfg.Clock,
		Refresh:         cfg.Refresh,
		DecoupledTimers: cfg.Timers == chyp.TimersDecoupled,
	}
	on, off := emu.Colors()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Frontend {
	case chyp.FrontendHeadless:
		return runHeadless(cfg, emu, hostCfg)

	case chyp.FrontendTerminal:
		t, err := term.New(on, off)
		if err != nil {
			return err
		}
		defer t.Close()
		return host.New(emu, t, hostCfg).Run(ctx)

	default:
		var runErr error
		screen.Run(func() {
			win, err := screen.NewWindow("Chyp8", cfg.Scale, on, off)
			if err != nil {
				runErr = err
				return
			}
			defer win.Destroy()
			runErr = host.New(emu, win, hostCfg).Run(ctx)
		})
		return runErr
	}
}

func newSounder(cfg chyp.Config) audio.Sounder {
	if cfg.Mute || cfg.Frontend == chyp.FrontendHeadless {
		return audio.Mute{}
	}
	b, err := audio.New(cfg.BeepFile)
	if err != nil {
		slog.Warn("audio disabled", "error", err)
		return audio.Mute{}
	}
	return b
}

func newEMU(cfg chyp.Config, romPath string, sound audio.Sounder) (*cpu.EMU, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	opts := cfg.EngineOptions()
	opts.Rand = rand.New(rand.NewSource(seed))
	opts.Beep = sound.Beep

	emu := cpu.NewEMU(opts)
	if err := emu.LoadROM(romPath); err != nil {
		return nil, err
	}
	slog.Info("loaded program", "path", romPath, "seed", seed)
	return emu, nil
}

func runHeadless(cfg chyp.Config, emu *cpu.EMU, hostCfg host.Config) error {
	h := host.New(emu, host.NewHeadless(cfg.Frames), hostCfg)
	runErr := h.RunFrames(cfg.Frames)
	slog.Info("headless run finished", "frames", h.Frames(), "cycles", emu.Cycles())

	if cfg.Snapshot != "" {
		if err := writeSnapshot(cfg.Snapshot, emu); err != nil {
			return err
		}
		slog.Info("saved frame snapshot", "path", cfg.Snapshot)
	}
	return runErr
}

func writeSnapshot(path string, emu *cpu.EMU) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	frame := emu.Frame()
	on, _ := emu.Colors()
	if err := host.WriteSnapshot(f, &frame, on); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(startCmd)

	flags := startCmd.Flags()
	flags.IntP("refresh", "r", 60, "sets the refresh rate of the display in Hz")
	flags.IntP("clock", "c", 700, "instructions executed per second")
	flags.String("timers", chyp.TimersCoupled, "coupled (decay every instruction) or decoupled (60Hz)")
	flags.StringP("frontend", "f", chyp.FrontendWindow, "window, terminal or headless")
	flags.IntP("scale", "s", 10, "window pixels per display pixel")
	flags.String("on-color", "#FFFFFFFF", "colour of lit pixels, #RRGGBB[AA]")
	flags.String("off-color", "#000000FF", "colour of unlit pixels, #RRGGBB[AA]")
	flags.String("beep-file", "", "mp3 played as the beep instead of a square tone")
	flags.Bool("mute", false, "disable sound")
	flags.Int("frames", 0, "headless: number of frames to run")
	flags.String("snapshot", "", "headless: write the final frame to this file")
	flags.Int64("seed", 0, "random seed, 0 picks one from the clock")
	bindFlags(flags)
}
