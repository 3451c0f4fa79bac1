package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fmeta/backend/internal/models"
)

func seedAccount(t *testing.T, repo *MemoryAccountRepository, id, username string) models.Account {
	t.Helper()
	account := models.Account{
		ID:        id,
		Name:      username,
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return account
}

func TestMemoryAccountRepositoryCreateConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	seedAccount(t, repo, "a", "alice")

	cases := []models.Account{
		{ID: "b", Username: "alice"},
		{ID: "c", Username: "carol", Email: "ALICE@example.com"},
		{ID: "a", Username: "other"},
	}
	for _, account := range cases {
		if err := repo.Create(ctx, account); !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict for %+v, got %v", account, err)
		}
	}

	conflicts, err := repo.FindConflicting(ctx, "nobody", "Alice@Example.com", "")
	if err != nil {
		t.Fatalf("find conflicting: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].ID != "a" {
		t.Fatalf("unexpected conflicts %+v", conflicts)
	}
}

func TestMemoryAccountRepositoryFindByLogin(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	alice := seedAccount(t, repo, "a", "alice")

	for _, identifier := range []string{"alice", "alice@example.com", "ALICE@EXAMPLE.COM"} {
		got, err := repo.FindByLogin(ctx, identifier)
		if err != nil {
			t.Fatalf("FindByLogin(%q) error = %v", identifier, err)
		}
		if got.ID != alice.ID {
			t.Fatalf("FindByLogin(%q) = %s", identifier, got.ID)
		}
	}

	if _, err := repo.FindByLogin(ctx, "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryAccountRepositoryFollowKeepsBothSides(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	seedAccount(t, repo, "a", "alice")
	seedAccount(t, repo, "b", "bob")

	if err := repo.Follow(ctx, "a", "b"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := repo.Follow(ctx, "a", "b"); !errors.Is(err, ErrUnchanged) {
		t.Fatalf("expected ErrUnchanged on second follow, got %v", err)
	}

	alice, _ := repo.FindByID(ctx, "a")
	bob, _ := repo.FindByID(ctx, "b")
	if !alice.IsFollowing("b") || !bob.IsFollowedBy("a") {
		t.Fatalf("follow not recorded on both sides: %+v %+v", alice, bob)
	}

	if err := repo.Unfollow(ctx, "a", "b"); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if err := repo.Unfollow(ctx, "a", "b"); !errors.Is(err, ErrUnchanged) {
		t.Fatalf("expected ErrUnchanged on second unfollow, got %v", err)
	}

	alice, _ = repo.FindByID(ctx, "a")
	bob, _ = repo.FindByID(ctx, "b")
	if len(alice.Following) != 0 || len(bob.Followers) != 0 {
		t.Fatalf("unfollow left residue: %+v %+v", alice.Following, bob.Followers)
	}

	if err := repo.Follow(ctx, "a", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryAccountRepositoryConcurrentFollows(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	seedAccount(t, repo, "target", "target")

	const followers = 50
	for i := 0; i < followers; i++ {
		seedAccount(t, repo, fmt.Sprintf("f%d", i), fmt.Sprintf("follower%d", i))
	}

	var wg sync.WaitGroup
	for i := 0; i < followers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.Follow(ctx, fmt.Sprintf("f%d", i), "target")
		}(i)
	}
	wg.Wait()

	target, err := repo.FindByID(ctx, "target")
	if err != nil {
		t.Fatalf("find target: %v", err)
	}
	if len(target.Followers) != followers {
		t.Fatalf("expected %d followers, got %d", followers, len(target.Followers))
	}
}

func TestMemoryAccountRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepository()
	seedAccount(t, repo, "a", "alice")
	seedAccount(t, repo, "b", "bob")
	if err := repo.Follow(ctx, "a", "b"); err != nil {
		t.Fatalf("follow: %v", err)
	}

	alice, _ := repo.FindByID(ctx, "a")
	alice.Following[0] = "tampered"

	again, _ := repo.FindByID(ctx, "a")
	if again.Following[0] != "b" {
		t.Fatalf("stored account mutated through returned copy")
	}
}

func TestMemoryContentRepositoryListOrdersAndFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryContentRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	stories := []models.Content{
		{ID: "s1", Kind: models.KindStory, AuthorID: "a", CreatedAt: base, Story: &models.StoryBody{ExpiresAt: base.Add(time.Hour)}},
		{ID: "s2", Kind: models.KindStory, AuthorID: "b", CreatedAt: base.Add(time.Minute), Story: &models.StoryBody{ExpiresAt: base.Add(48 * time.Hour)}},
		{ID: "s3", Kind: models.KindStory, AuthorID: "c", CreatedAt: base.Add(2 * time.Minute), Story: &models.StoryBody{ExpiresAt: base.Add(48 * time.Hour)}},
	}
	for _, s := range stories {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create %s: %v", s.ID, err)
		}
	}

	items, total, err := repo.List(ctx, ContentQuery{Kind: models.KindStory, AuthorIDs: []string{"a", "b"}, ActiveAt: base.Add(2 * time.Hour)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != "s2" {
		t.Fatalf("unexpected listing total=%d items=%+v", total, items)
	}

	items, total, err = repo.List(ctx, ContentQuery{Kind: models.KindStory, Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if total != 3 || len(items) != 1 || items[0].ID != "s2" {
		t.Fatalf("unexpected page total=%d items=%+v", total, items)
	}

	items, _, err = repo.List(ctx, ContentQuery{Kind: models.KindStory, AuthorIDs: []string{}})
	if err != nil {
		t.Fatalf("list empty authors: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty author set to match nothing, got %d", len(items))
	}
}

func TestMemoryContentRepositoryToggleLikeAndViews(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryContentRepository()
	story := models.Content{ID: "s", Kind: models.KindStory, AuthorID: "a", Story: &models.StoryBody{ExpiresAt: time.Now().Add(time.Hour)}}
	if err := repo.Create(ctx, story); err != nil {
		t.Fatalf("create: %v", err)
	}

	liked, count, err := repo.ToggleLike(ctx, models.KindStory, "s", "v")
	if err != nil || !liked || count != 1 {
		t.Fatalf("first toggle = (%v, %d, %v)", liked, count, err)
	}
	liked, count, err = repo.ToggleLike(ctx, models.KindStory, "s", "v")
	if err != nil || liked || count != 0 {
		t.Fatalf("second toggle = (%v, %d, %v)", liked, count, err)
	}

	for i := 0; i < 2; i++ {
		views, err := repo.AddStoryView(ctx, "s", models.StoryView{ViewerID: "v", ViewedAt: time.Now()})
		if err != nil || views != 1 {
			t.Fatalf("view %d = (%d, %v)", i, views, err)
		}
	}

	if _, err := repo.AddComment(ctx, models.KindStory, "s", models.Comment{ID: "c"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected stories to reject comments, got %v", err)
	}
}
