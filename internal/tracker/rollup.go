package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorsconnections/liveboard/internal/repository"
)

// Rollup computes ranked totals over an arbitrary time window. It combines
// ledger sessions whose interval overlaps the window — including sessions that
// straddle a boundary and the still-open session — with the open session's
// in-memory counts, so a report is never empty merely because the active
// broadcast has not flushed yet.
type Rollup struct {
	repo    repository.SessionRepository
	manager *Manager
}

func NewRollup(repo repository.SessionRepository, manager *Manager) *Rollup {
	return &Rollup{repo: repo, manager: manager}
}

// ComputeWindow returns the gift and like rankings for [start, end],
// descending by summed count with a stable first-seen tie-break.
func (r *Rollup) ComputeWindow(ctx context.Context, communityID string, start, end time.Time) (giftRanking, likeRanking []repository.MetricTotal, err error) {
	ledgerGifts, err := r.repo.SumTalliesInWindow(ctx, communityID, repository.MetricGift, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sum gift tallies: %w", err)
	}
	ledgerLikes, err := r.repo.SumTalliesInWindow(ctx, communityID, repository.MetricLike, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sum like tallies: %w", err)
	}

	liveGifts, liveLikes, open := r.manager.LiveSnapshot(communityID)
	if open {
		ledgerGifts = mergeTotals(ledgerGifts, liveGifts)
		ledgerLikes = mergeTotals(ledgerLikes, liveLikes)
	}
	return rankTotals(ledgerGifts), rankTotals(ledgerLikes), nil
}

// ComputeAllTime returns the all-time gift and like rankings from the ledger
// plus any open session.
func (r *Rollup) ComputeAllTime(ctx context.Context, communityID string) (giftRanking, likeRanking []repository.MetricTotal, err error) {
	ledgerGifts, err := r.repo.SumTalliesAllTime(ctx, communityID, repository.MetricGift)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sum gift tallies: %w", err)
	}
	ledgerLikes, err := r.repo.SumTalliesAllTime(ctx, communityID, repository.MetricLike)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sum like tallies: %w", err)
	}

	liveGifts, liveLikes, open := r.manager.LiveSnapshot(communityID)
	if open {
		ledgerGifts = mergeTotals(ledgerGifts, liveGifts)
		ledgerLikes = mergeTotals(ledgerLikes, liveLikes)
	}
	return rankTotals(ledgerGifts), rankTotals(ledgerLikes), nil
}
