package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/creatorsconnections/liveboard/internal/repository"
	"github.com/creatorsconnections/liveboard/internal/telemetry"
)

// Rank is one tier of the experience ladder.
type Rank struct {
	Name  string
	MinXP int64
}

// DefaultLadderRanks is the fixed rank table. The first threshold is zero so
// every experience total maps to a rank.
var DefaultLadderRanks = []Rank{
	{Name: "Bronze", MinXP: 0},
	{Name: "Silver", MinXP: 1500},
	{Name: "Gold", MinXP: 4000},
	{Name: "Platinum", MinXP: 9000},
	{Name: "Diamond", MinXP: 20000},
}

// RankUp is emitted when an award moves a member to a strictly higher tier.
type RankUp struct {
	CommunityID string
	MemberID    string
	OldRank     Rank
	NewRank     Rank
	NewTotal    int64
}

// Ladder accumulates gift-driven experience points per member. Experience is
// monotonically non-decreasing; ranks never move down.
type Ladder struct {
	repo   repository.ExperienceRepository
	ranks  []Rank
	notify func(ctx context.Context, up RankUp)
}

func NewLadder(repo repository.ExperienceRepository, ranks []Rank) (*Ladder, error) {
	if len(ranks) == 0 {
		return nil, fmt.Errorf("rank table must not be empty")
	}
	if ranks[0].MinXP != 0 {
		return nil, fmt.Errorf("first rank threshold must be zero, got %d", ranks[0].MinXP)
	}
	for i := 1; i < len(ranks); i++ {
		if ranks[i].MinXP <= ranks[i-1].MinXP {
			return nil, fmt.Errorf("rank thresholds must be strictly increasing: %s (%d) after %s (%d)",
				ranks[i].Name, ranks[i].MinXP, ranks[i-1].Name, ranks[i-1].MinXP)
		}
	}
	return &Ladder{repo: repo, ranks: ranks}, nil
}

// SetNotify installs the rank-up callback.
func (l *Ladder) SetNotify(notify func(ctx context.Context, up RankUp)) {
	l.notify = notify
}

// RankFor returns the highest rank whose threshold does not exceed xp, and its
// index in the table.
func (l *Ladder) RankFor(xp int64) (Rank, int) {
	idx := 0
	for i, r := range l.ranks {
		if r.MinXP > xp {
			break
		}
		idx = i
	}
	return l.ranks[idx], idx
}

// Next returns the rank above the given table index, if any.
func (l *Ladder) Next(idx int) (Rank, bool) {
	if idx+1 >= len(l.ranks) {
		return Rank{}, false
	}
	return l.ranks[idx+1], true
}

// Award adds amount to the member's experience and emits a rank-up when the
// new total crosses into a strictly higher tier.
func (l *Ladder) Award(ctx context.Context, communityID, memberID string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	old, err := l.repo.GetExperience(ctx, communityID, memberID)
	if err != nil {
		return fmt.Errorf("failed to read experience: %w", err)
	}
	_, oldIdx := l.RankFor(old)
	newTotal, err := l.repo.AddExperience(ctx, communityID, memberID, amount)
	if err != nil {
		return fmt.Errorf("failed to add experience: %w", err)
	}
	newRank, newIdx := l.RankFor(newTotal)
	if newIdx <= oldIdx {
		return nil
	}
	telemetry.CountRankUp()
	slog.Info("member ranked up",
		"community_id", communityID,
		"member_id", memberID,
		"old_rank", l.ranks[oldIdx].Name,
		"new_rank", newRank.Name,
		"xp", newTotal)
	if l.notify != nil {
		l.notify(ctx, RankUp{
			CommunityID: communityID,
			MemberID:    memberID,
			OldRank:     l.ranks[oldIdx],
			NewRank:     newRank,
			NewTotal:    newTotal,
		})
	}
	return nil
}
