package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creatorsconnections/liveboard/internal/repository"
)

func TestPollOnceStartsLiveHosts(t *testing.T) {
	d := newTestDeps(t)
	d.configureCommunity("guild-live", "livehost", "chan-1")
	d.configureCommunity("guild-idle", "idlehost", "chan-2")
	d.repo.configs["guild-bare"] = &repository.CommunityConfig{CommunityID: "guild-bare"}
	d.source.liveHosts["livehost"] = true

	a := NewAutostart(d.repo, d.source, d.manager, time.Second)
	a.pollOnce(context.Background())

	if !d.manager.IsTracking("guild-live") {
		t.Error("live host not tracked")
	}
	if d.manager.IsTracking("guild-idle") {
		t.Error("idle host tracked")
	}
	if d.manager.IsTracking("guild-bare") {
		t.Error("unconfigured community tracked")
	}
	if d.source.openCount != 1 {
		t.Errorf("openCount = %d, want 1", d.source.openCount)
	}
}

func TestPollOnceSkipsAlreadyTracking(t *testing.T) {
	d := newTestDeps(t)
	d.configureCommunity(testCommunity, "livehost", "chan-1")
	d.source.liveHosts["livehost"] = true

	a := NewAutostart(d.repo, d.source, d.manager, time.Second)
	a.pollOnce(context.Background())
	a.pollOnce(context.Background())

	if d.source.openCount != 1 {
		t.Errorf("openCount = %d, want stream opened once", d.source.openCount)
	}
}

func TestPollOnceTreatsProbeErrorsAsNotLive(t *testing.T) {
	d := newTestDeps(t)
	d.configureCommunity(testCommunity, "flakyhost", "chan-1")
	d.source.probeErr = errors.New("upstream timeout")

	a := NewAutostart(d.repo, d.source, d.manager, time.Second)
	a.pollOnce(context.Background())

	if d.manager.IsTracking(testCommunity) {
		t.Error("tracking started despite a failed probe")
	}
	if d.source.openCount != 0 {
		t.Errorf("openCount = %d, want 0", d.source.openCount)
	}
}
