package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	configloader "github.com/creatorsconnections/liveboard/external/config"
	"github.com/creatorsconnections/liveboard/external/discord"
	renderimpl "github.com/creatorsconnections/liveboard/external/render"
	repositoryimpl "github.com/creatorsconnections/liveboard/external/repository"
	tiktokimpl "github.com/creatorsconnections/liveboard/external/tiktok"
	webhookimpl "github.com/creatorsconnections/liveboard/external/webhook"
	"github.com/creatorsconnections/liveboard/internal/config"
	discordpkg "github.com/creatorsconnections/liveboard/internal/discord"
	"github.com/creatorsconnections/liveboard/internal/keepalive"
	"github.com/creatorsconnections/liveboard/internal/telemetry"
	"github.com/creatorsconnections/liveboard/internal/tracker"
	"github.com/joho/godotenv"
	"github.com/samber/do/v2"
)

const discordConnectTimeout = 20 * time.Second

func main() {
	_ = godotenv.Load()

	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	telemetry.Init()

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching bot")
	runBot(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	tiktokimpl.RegisterDI(injector)
	renderimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	tracker.RegisterDI(injector)

	return injector
}

func runBot(cfg *config.Config, injector do.Injector) {
	dc, err := do.Invoke[discordpkg.Client](injector)
	if err != nil {
		slog.Error("failed to resolve discord client", "error", err)
		os.Exit(1)
	}
	manager, err := do.Invoke[*tracker.Manager](injector)
	if err != nil {
		slog.Error("failed to resolve tracker manager", "error", err)
		os.Exit(1)
	}
	scheduler, err := do.Invoke[*tracker.Scheduler](injector)
	if err != nil {
		slog.Error("failed to resolve report scheduler", "error", err)
		os.Exit(1)
	}
	autostart, err := do.Invoke[*tracker.Autostart](injector)
	if err != nil {
		slog.Error("failed to resolve autostart poller", "error", err)
		os.Exit(1)
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), discordConnectTimeout)
	defer cancelConnect()

	slog.Info("startup: connecting to discord gateway")
	if err := dc.Connect(connectCtx); err != nil {
		slog.Error("discord connect failed", "error", err)
		os.Exit(1)
	}
	slog.Info("startup: discord connected")

	if _, err := dc.GetBotUserID(); err != nil {
		slog.Error("failed to resolve bot user id", "error", err)
		os.Exit(1)
	}

	defs := tracker.SlashCommandDefinitions()
	for _, guildID := range dc.ListGuildIDs() {
		if err := dc.UpsertGuildSlashCommands(guildID, defs); err != nil {
			slog.Error("failed to upsert slash commands", "error", err, "guild_id", guildID)
			os.Exit(1)
		}
	}

	dc.RegisterSlashCommandHandler(manager.HandleSlashCommand)
	dc.RegisterMemberJoinHandler(manager.HandleMemberJoin)
	manager.BootstrapRoles()
	slog.Info("discord handlers registered", "guilds", len(dc.ListGuildIDs()))
	defer func() {
		if err := dc.Close(); err != nil {
			slog.Error("discord close failed", "error", err)
		}
	}()

	srv := keepalive.NewServer(cfg.HTTPPort)
	srv.Start()
	defer func() {
		if err := srv.Shutdown(); err != nil {
			slog.Error("keepalive shutdown failed", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Run(ctx)
	go autostart.Run(ctx)

	done := make(chan struct{})
	go func() {
		slog.Info("startup: entering discord run loop")
		if err := dc.Run(); err != nil {
			slog.Error("discord run failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}
}
