package main

import (
	"fmt"
	"os"

	"ember/internal/api"
	"ember/internal/chat"
	"ember/internal/config"
	"ember/internal/logging"
	"ember/internal/models"
	"ember/internal/store"
	"ember/internal/stream"
	"ember/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return err
	}

	logger, closeLog := logging.Setup(cfg.DataDir, cfg.Debug)
	defer closeLog()

	kv, err := store.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer kv.Close()

	sessions := store.NewSessions(kv)
	profiles := store.NewProfiles(kv)
	if err := profiles.EnsureDefault(cfg.DefaultProfile()); err != nil {
		return err
	}

	ctrl, err := chat.New(sessions, profiles, chat.Options{
		Model:           cfg.Model,
		ReasoningEffort: cfg.ReasoningEffort,
		WebSearch:       cfg.WebSearch,
		NewClient: func(p models.Profile) stream.Caller {
			return api.NewClient(p.BaseURL, p.APIKey)
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	p := ui.NewProgram(ctrl, cfg.Model)
	ctrl.SetOnChange(func(s chat.Snapshot) {
		p.Send(ui.SnapshotMsg(s))
	})

	logger.Info("starting", "model", cfg.Model, "data_dir", cfg.DataDir)
	_, err = p.Run()
	return err
}
