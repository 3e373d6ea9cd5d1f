package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bekirdag/admin-console/internal/config"
	"github.com/bekirdag/admin-console/internal/gateway"
	"github.com/bekirdag/admin-console/internal/layout"
	"github.com/bekirdag/admin-console/internal/localstore"
	"github.com/bekirdag/admin-console/internal/notify"
	"github.com/bekirdag/admin-console/internal/resources"
	"github.com/bekirdag/admin-console/internal/session"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Parse(args)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.ConfigDir, 0o755); err != nil {
		return err
	}

	level, _ := cfg.Level()
	logFile, err := os.OpenFile(filepath.Join(cfg.ConfigDir, "console.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}))

	var kv layout.KV
	store, err := localstore.Open(cfg.ConfigDir)
	if err != nil {
		logger.Warn("local store unavailable; layouts last for this session only", "error", err)
		kv = localstore.NewMemory()
	} else {
		defer store.Close()
		kv = store
	}

	sessions := session.NewStore(session.NewKeyringBackend())
	if err := sessions.Init(cfg.Token); err != nil {
		logger.Warn("reading stored credential failed", "error", err)
	}

	list, err := resources.Select(cfg.Resources)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui, uiPath := loadUIConfig(cfg.ConfigDir)
	theme := markdownThemeFromString(cfg.Theme)
	if ui.Theme != "" && cfg.Theme == "auto" {
		theme = markdownThemeFromString(ui.Theme)
	}

	var program *tea.Program
	gw := gateway.New(cfg.BaseURL, sessions,
		gateway.WithTimeout(cfg.Timeout),
		gateway.WithLogger(logger.With("component", "gateway")),
		gateway.WithSignInRedirect(gateway.DefaultSignInPath, func(path string) {
			if program != nil {
				program.Send(signInRequiredMsg{path: path})
			}
		}),
	)

	m, err := newModel(deps{
		gateway:   gw,
		session:   sessions,
		layouts:   layout.New(kv),
		notices:   notify.New(notify.WithLogger(logger.With("component", "notify"))),
		activity:  newActivityLog(filepath.Join(cfg.ConfigDir, activityFile), resolveActivityUserID(os.Getenv)),
		logger:    logger,
		resources: list,
		pageSize:  cfg.PageSize,
		theme:     theme,
		ui:        ui,
		uiPath:    uiPath,
		ctx:       ctx,
	})
	if err != nil {
		return err
	}

	program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	logger.Info("starting", "api", cfg.BaseURL, "resources", len(list))
	_, err = program.Run()
	return err
}
