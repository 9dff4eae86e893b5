package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"missionboard/internal/domain"
	"missionboard/internal/repo"
	"missionboard/internal/seed"
)

func newTestRepo(t *testing.T) repo.Repo {
	t.Helper()
	data, err := seed.Load(nil)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	return repo.New(data)
}

func TestMissionReadsReturnCopies(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	ms, err := r.ListMissions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ms) != r.CountMissions() || len(ms) == 0 {
		t.Fatalf("unexpected mission count %d", len(ms))
	}
	ms[0].Title = "changed"
	ms[0].Tags[0] = "changed"

	again, err := r.GetMission(ctx, ms[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.Title == "changed" || again.Tags[0] == "changed" {
		t.Fatalf("snapshot was mutated through a returned copy")
	}
}

func TestGetMissionNotFound(t *testing.T) {
	r := newTestRepo(t)
	if _, err := r.GetMission(context.Background(), "nope"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.GetUserStats(context.Background(), "nobody"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPaymentsFilters(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	all, err := r.ListPayments(ctx, repo.PaymentFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].CreatedAt.Before(all[i].CreatedAt) {
			t.Fatalf("payments not newest first at %d", i)
		}
	}

	mine, err := r.ListPayments(ctx, repo.PaymentFilters{UserID: "u-05", Type: domain.PaymentDeferred})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 deferred payments for u-05, got %d", len(mine))
	}
	for _, p := range mine {
		if p.UserID != "u-05" || p.Type != domain.PaymentDeferred {
			t.Fatalf("filter leaked %+v", p)
		}
	}

	failed, _ := r.ListPayments(ctx, repo.PaymentFilters{Status: domain.PaymentFailed})
	if len(failed) != 1 || failed[0].MissionID != "m-014" {
		t.Fatalf("unexpected failed payments %+v", failed)
	}
}

func TestCanceledContext(t *testing.T) {
	r := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.ListMissions(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewSkipsDuplicateIDs(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := repo.New(seed.Data{Missions: []domain.Mission{
		{ID: "a", Title: "first", CreatedAt: now},
		{ID: "a", Title: "second", CreatedAt: now},
	}})
	m, err := r.GetMission(context.Background(), "a")
	if err != nil || m.Title != "first" || r.CountMissions() != 1 {
		t.Fatalf("duplicate handling: %+v %v", m, err)
	}
}

func TestZeroRepo(t *testing.T) {
	var r repo.Repo
	ms, err := r.ListMissions(context.Background())
	if err != nil || len(ms) != 0 {
		t.Fatalf("zero repo: %v %v", ms, err)
	}
	stats, err := r.DashboardStats(context.Background())
	if err != nil || stats.TotalMissions != 0 {
		t.Fatalf("zero repo stats: %+v %v", stats, err)
	}
}
