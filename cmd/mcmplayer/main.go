package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/edward-ap/mcmplayer/internal/config"
	"github.com/edward-ap/mcmplayer/internal/logging"
	"github.com/edward-ap/mcmplayer/internal/mcmapp"
	"github.com/edward-ap/mcmplayer/internal/session"
	"github.com/edward-ap/mcmplayer/internal/tui"
)

type options struct {
	engine   string
	frontend string
	url      string
	logDir   string
	traceLog bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "mcmplayer",
	Short: "Stream the MCM track with bass, treble and volume presets",
	Long: `mcmplayer streams a fixed MP3 through a bass/treble/gain chain.

Pick one of four presets (Flat, Bass Boost, Volume Extender, Custom), save
your own as Custom, and play from a desktop window or the terminal.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&opts.engine, "engine", "e", "",
		"audio engine: beep (in-process DSP) or vlc (libVLC)")
	rootCmd.PersistentFlags().StringVarP(&opts.frontend, "ui", "u", "",
		"front end: gui or tui")
	rootCmd.PersistentFlags().StringVar(&opts.url, "url", "",
		"override the stream URL")
	rootCmd.PersistentFlags().StringVar(&opts.logDir, "log-dir", "",
		"directory for mcmplayer.log (default: $MCMPLAYER_LOG_PATH or the config dir)")
	rootCmd.PersistentFlags().BoolVar(&opts.traceLog, "trace-log", false,
		"debug-level logging, including libVLC output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	dir, err := logging.ResolveDir(opts.logDir)
	if err != nil {
		return fmt.Errorf("resolve log dir: %w", err)
	}
	if err := logging.Init(dir, opts.traceLog); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Close()
	log := logging.For("main")

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("config load failed, using defaults")
		cfg = config.Default()
	}
	if err := cfg.Override(opts.url, opts.engine, opts.frontend); err != nil {
		return err
	}
	mcmapp.SetTraceLogEnabled(opts.traceLog)

	sess, err := session.Build(cfg)
	if err != nil {
		return err
	}
	log.Info().
		Str("engine", cfg.Engine).
		Str("ui", cfg.Frontend).
		Str("url", cfg.StreamURL).
		Msg("starting")

	switch cfg.Frontend {
	case config.FrontendTUI:
		defer sess.Close()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return tui.Run(ctx, sess)
	default:
		mcmapp.NewApp(cfg, sess).Run()
		return nil
	}
}
