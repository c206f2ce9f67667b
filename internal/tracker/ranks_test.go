package tracker

import (
	"context"
	"testing"
)

func TestNewLadderRejectsBadTables(t *testing.T) {
	tests := []struct {
		name  string
		ranks []Rank
	}{
		{name: "empty table", ranks: nil},
		{name: "first threshold not zero", ranks: []Rank{{Name: "Bronze", MinXP: 100}}},
		{name: "non increasing thresholds", ranks: []Rank{
			{Name: "Bronze", MinXP: 0},
			{Name: "Silver", MinXP: 500},
			{Name: "Gold", MinXP: 500},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLadder(newMockRepository(), tt.ranks); err == nil {
				t.Error("NewLadder() accepted an invalid table")
			}
		})
	}

	if _, err := NewLadder(newMockRepository(), DefaultLadderRanks); err != nil {
		t.Errorf("NewLadder(default table) error = %v", err)
	}
}

func TestRankForBoundaries(t *testing.T) {
	ladder, err := NewLadder(newMockRepository(), DefaultLadderRanks)
	if err != nil {
		t.Fatalf("NewLadder() error = %v", err)
	}
	tests := []struct {
		xp   int64
		want string
	}{
		{xp: 0, want: "Bronze"},
		{xp: 1499, want: "Bronze"},
		{xp: 1500, want: "Silver"},
		{xp: 3999, want: "Silver"},
		{xp: 9000, want: "Platinum"},
		{xp: 1_000_000, want: "Diamond"},
	}
	for _, tt := range tests {
		if rank, _ := ladder.RankFor(tt.xp); rank.Name != tt.want {
			t.Errorf("RankFor(%d) = %s, want %s", tt.xp, rank.Name, tt.want)
		}
	}

	_, topIdx := ladder.RankFor(1_000_000)
	if _, ok := ladder.Next(topIdx); ok {
		t.Error("Next() above the top tier should report none")
	}
	if next, ok := ladder.Next(0); !ok || next.Name != "Silver" {
		t.Errorf("Next(0) = %v %v, want Silver", next, ok)
	}
}

func TestAwardEmitsRankUpOnTierCrossing(t *testing.T) {
	repo := newMockRepository()
	repo.xp["member-1"] = 1400
	ladder, err := NewLadder(repo, DefaultLadderRanks)
	if err != nil {
		t.Fatalf("NewLadder() error = %v", err)
	}
	var got *RankUp
	ladder.SetNotify(func(_ context.Context, up RankUp) { got = &up })

	if err := ladder.Award(context.Background(), testCommunity, "member-1", 200); err != nil {
		t.Fatalf("Award() error = %v", err)
	}
	if repo.xp["member-1"] != 1600 {
		t.Errorf("xp = %d, want 1600", repo.xp["member-1"])
	}
	if got == nil {
		t.Fatal("no rank-up emitted")
	}
	if got.OldRank.Name != "Bronze" || got.NewRank.Name != "Silver" || got.NewTotal != 1600 {
		t.Errorf("rank-up = %+v, want Bronze→Silver at 1600", got)
	}
}

func TestAwardWithinTierStaysQuiet(t *testing.T) {
	repo := newMockRepository()
	repo.xp["member-1"] = 100
	ladder, err := NewLadder(repo, DefaultLadderRanks)
	if err != nil {
		t.Fatalf("NewLadder() error = %v", err)
	}
	fired := false
	ladder.SetNotify(func(_ context.Context, _ RankUp) { fired = true })

	if err := ladder.Award(context.Background(), testCommunity, "member-1", 200); err != nil {
		t.Fatalf("Award() error = %v", err)
	}
	if fired {
		t.Error("rank-up emitted without crossing a tier")
	}
}

func TestAwardIgnoresNonPositiveAmounts(t *testing.T) {
	repo := newMockRepository()
	ladder, err := NewLadder(repo, DefaultLadderRanks)
	if err != nil {
		t.Fatalf("NewLadder() error = %v", err)
	}
	if err := ladder.Award(context.Background(), testCommunity, "member-1", 0); err != nil {
		t.Fatalf("Award(0) error = %v", err)
	}
	if repo.awardCalls != 0 {
		t.Errorf("awardCalls = %d, want 0", repo.awardCalls)
	}
}
