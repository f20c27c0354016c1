package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rakunlabs/into"
	"github.com/rakunlabs/logi"

	"github.com/rakunlabs/mockllm/internal/config"
	"github.com/rakunlabs/mockllm/internal/interactive"
	"github.com/rakunlabs/mockllm/internal/reload"
	"github.com/rakunlabs/mockllm/internal/server"
)

var (
	name    = "mockllm"
	version = "v0.0.0"
)

func main() {
	config.Service = name + "/" + version

	into.Init(run,
		into.WithLogger(logi.InitializeLog(logi.WithCaller(false))),
		into.WithMsgf("%s [%s]", name, version),
	)
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	auditStore, err := cfg.Store.BuildAuditStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up audit store: %w", err)
	}
	defer auditStore.Close()

	rc, errs := reload.New(cfg.ReloadDebounceDuration(), config.Builder(cfg), auditStore)
	if errs != nil {
		for _, e := range errs {
			slog.Error("startup configuration invalid", "error", e)
		}
		return fmt.Errorf("startup configuration failed validation (%d errors)", len(errs))
	}

	broker := interactive.NewBroker(cfg.Notify.BuildNotifiers()...)
	defer broker.Close()

	srv := server.New(*cfg, rc, broker, auditStore)

	slog.Info("starting mockllm", "host", cfg.Server.Host, "port", cfg.Server.Port, "base_path", cfg.Server.BasePath)
	return srv.Start(ctx)
}
