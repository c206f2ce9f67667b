package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/creatorsconnections/liveboard/internal/livestream"
	"github.com/creatorsconnections/liveboard/internal/repository"
)

// Autostart polls the live status of every configured host and starts
// tracking when a host goes live. Probe failures are treated as "not live"
// and never abort the poller.
type Autostart struct {
	repo     repository.CommunityRepository
	source   livestream.Source
	manager  *Manager
	interval time.Duration
}

func NewAutostart(repo repository.CommunityRepository, source livestream.Source, manager *Manager, interval time.Duration) *Autostart {
	return &Autostart{repo: repo, source: source, manager: manager, interval: interval}
}

func (a *Autostart) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	slog.Info("autostart poller started", "interval", a.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("autostart poller stopped")
			return
		case <-ticker.C:
			a.pollOnce(ctx)
		}
	}
}

func (a *Autostart) pollOnce(ctx context.Context) {
	configs, err := a.repo.ListCommunityConfigs(ctx)
	if err != nil {
		slog.Error("autostart: failed to list community configs", "error", err)
		return
	}
	for _, cfg := range configs {
		if cfg.SourceHandle == "" || cfg.ReportChannelID == "" {
			continue
		}
		if a.manager.IsTracking(cfg.CommunityID) {
			continue
		}
		live, err := a.source.IsLive(ctx, cfg.SourceHandle)
		if err != nil {
			slog.Debug("autostart: liveness probe failed", "error", err, "host", cfg.SourceHandle)
			continue
		}
		if !live {
			continue
		}
		slog.Info("autostart: host is live, starting tracking", "community_id", cfg.CommunityID, "host", cfg.SourceHandle)
		if err := a.manager.StartTracking(ctx, cfg.CommunityID); err != nil {
			slog.Error("autostart: failed to start tracking", "error", err, "community_id", cfg.CommunityID)
		}
	}
}
