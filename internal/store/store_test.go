package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"kinetic/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "kinetic.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestListUsersEmptyStoreReturnsEmptySlice(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if users == nil {
		t.Fatalf("expected non-nil empty slice")
	}
	if len(users) != 0 {
		t.Fatalf("expected no users, got %+v", users)
	}
}

func TestPutUserGeneratesIDAndCreationTime(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	created, err := s.PutUser(context.Background(), domain.User{Name: "Dana", Role: "therapist"})
	if err != nil {
		t.Fatalf("put user: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("expected generated creation time")
	}

	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].ID != created.ID || users[0].Name != "Dana" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestPutUserRejectsBlankName(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if _, err := s.PutUser(context.Background(), domain.User{Name: "   "}); err == nil {
		t.Fatalf("expected error for blank name")
	}
}

func TestListUsersSortedByCreation(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, u := range []domain.User{
		{ID: "u-2", Name: "Bea", CreatedAt: base.Add(time.Hour)},
		{ID: "u-1", Name: "Ada", CreatedAt: base},
		{ID: "u-3", Name: "Cal", CreatedAt: base.Add(time.Hour)},
	} {
		if _, err := s.PutUser(context.Background(), u); err != nil {
			t.Fatalf("put user %s: %v", u.ID, err)
		}
	}

	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	var names []string
	for _, u := range users {
		names = append(names, u.Name)
	}
	want := []string{"Ada", "Bea", "Cal"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected order: %v", names)
		}
	}
}

func TestRecommendationsRoundTripAndReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "kinetic.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	loaded, err := s.LoadRecommendations(context.Background())
	if err != nil {
		t.Fatalf("load recommendations: %v", err)
	}
	if loaded != nil {
		t.Fatalf("fresh store should have no cached list, got %+v", loaded)
	}

	recs := []domain.Recommendation{
		{Feedback: "good form", RecommendedExercise: "heel slides", Confidence: 0.8},
	}
	if err := s.SaveRecommendations(context.Background(), recs); err != nil {
		t.Fatalf("save recommendations: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s.Close()

	loaded, err = s.LoadRecommendations(context.Background())
	if err != nil {
		t.Fatalf("load recommendations: %v", err)
	}
	if len(loaded) != 1 || loaded[0].RecommendedExercise != "heel slides" {
		t.Fatalf("unexpected cached list: %+v", loaded)
	}
}
