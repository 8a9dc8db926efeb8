package library_test

import (
	"context"
	"testing"

	"riftcap/internal/library"
	"riftcap/internal/testsupport"
)

func openStore(t *testing.T) *library.Store {
	t.Helper()
	store, err := library.Open(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCaptureLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.BeginCapture(ctx, "ReadyCheck", "RANKED_SOLO_5x5")
	if err != nil {
		t.Fatalf("BeginCapture: %v", err)
	}
	if id == "" {
		t.Fatal("empty capture id")
	}

	captures, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(captures) != 1 {
		t.Fatalf("captures = %d, want 1", len(captures))
	}
	if captures[0].Outcome != library.OutcomeRecording {
		t.Fatalf("outcome = %q", captures[0].Outcome)
	}
	if captures[0].FinishedAt != nil {
		t.Fatal("in-progress capture has a finish time")
	}

	if err := store.FinishCapture(ctx, id, "123", "/captures/league_rankedsolo5x5_game_123.mkv", "completed"); err != nil {
		t.Fatalf("FinishCapture: %v", err)
	}
	captures, err = store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	got := captures[0]
	if got.GameID != "123" || got.Outcome != "completed" {
		t.Fatalf("capture = %+v", got)
	}
	if got.FinishedAt == nil || got.FinishedAt.Before(got.StartedAt) {
		t.Fatalf("finish time = %v", got.FinishedAt)
	}
}

func TestFinishUnknownCapture(t *testing.T) {
	store := openStore(t)
	if err := store.FinishCapture(context.Background(), "missing", "", "", "completed"); err == nil {
		t.Fatal("expected error finishing unknown capture")
	}
}

func TestRecentOrderingAndLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.BeginCapture(ctx, "ChampSelect", "NORMAL"); err != nil {
			t.Fatalf("BeginCapture: %v", err)
		}
	}
	captures, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(captures) != 2 {
		t.Fatalf("captures = %d, want 2", len(captures))
	}
	if captures[0].StartedAt.Before(captures[1].StartedAt) {
		t.Fatal("captures not ordered newest first")
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.BeginCapture(context.Background(), "ReadyCheck", "NORMAL"); err != nil {
		t.Fatalf("BeginCapture: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	captures, err := reopened.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(captures) != 1 {
		t.Fatalf("captures after reopen = %d, want 1", len(captures))
	}
}
