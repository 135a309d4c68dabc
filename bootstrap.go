package main

import (
	"fmt"
	"os"

	"github.com/metcalfc/lexi/internal/app"
	"github.com/metcalfc/lexi/internal/config"
	"github.com/metcalfc/lexi/internal/importer"
	"github.com/metcalfc/lexi/internal/logging"
	"github.com/metcalfc/lexi/internal/settings"
	"github.com/metcalfc/lexi/internal/speech"
	"github.com/metcalfc/lexi/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionString() string {
	return fmt.Sprintf("lexi %s (commit: %s, built: %s)", version, commit, date)
}

type bootOptions struct {
	configPath string
	reset      bool
	onSpeech   func(speech.State)
	extra      []app.Option
}

// bootstrap loads config, opens the log and the state store, and assembles
// a session. The returned runtime must be closed by the caller.
func bootstrap(opts bootOptions) (*app.Session, logging.Runtime, error) {
	loaded, err := config.Load(opts.configPath)
	if err != nil {
		return nil, logging.Runtime{}, err
	}
	cfg := loaded.Config

	logs, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		logs = logging.Discard()
	}
	logger := logs.Logger
	for _, w := range loaded.Warnings {
		logger.Warn("config", "message", w.Message)
	}
	logger.Info("starting", "version", version, "config", loaded.Path)

	kv, err := state.NewFileStore()
	if err != nil {
		_ = logs.Close()
		return nil, logging.Runtime{}, fmt.Errorf("open state: %w", err)
	}

	synth := speech.NewCommandSynthesizer(cfg.SpeechCmd.Argv, logger)
	logger.Info("speech", "command", synth.Name(), "available", synth.Available())
	speechOpts := []speech.Option{speech.WithLogger(logger)}
	if opts.onSpeech != nil {
		speechOpts = append(speechOpts, speech.WithOnChange(opts.onSpeech))
	}

	appOpts := []app.Option{
		app.WithLogger(logger),
		app.WithExportDir(cfg.ExportDir),
		app.WithImporter(importer.New(
			importer.WithLogger(logger),
			importer.WithOCRLanguages(cfg.OCRLanguages()...),
		)),
		app.WithSpeech(speech.NewController(synth, speechOpts...)),
	}
	session := app.New(settings.NewStore(kv, logger), append(appOpts, opts.extra...)...)

	if opts.reset {
		if _, err := session.ResetSettings(); err != nil {
			_ = logs.Close()
			return nil, logging.Runtime{}, err
		}
	}
	return session, logs, nil
}
