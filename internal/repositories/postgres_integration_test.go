//go:build integration

package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fmeta/backend/internal/auth"
	"github.com/fmeta/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresAccountRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresAccountRepository(testPool)
	alice := createTestAccount(t, repo, "alice")

	dup := newTestAccount("alice2")
	dup.Email = alice.Email
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}

	fetched, err := repo.FindByLogin(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("find by login: %v", err)
	}
	if fetched.ID != alice.ID || fetched.Phone != "" || fetched.VerificationToken != "token-alice" {
		t.Fatalf("unexpected account fetched: %+v", fetched)
	}

	fetched.Verified = true
	fetched.VerificationToken = ""
	fetched.VerificationExpires = time.Time{}
	fetched.Bio = "hello"
	fetched.RelationshipStatus = models.RelationshipSingle
	fetched.UpdatedAt = time.Now().UTC()
	if err := repo.Update(ctx, fetched); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := repo.FindByVerificationToken(ctx, "token-alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cleared token to be unknown, got %v", err)
	}

	reloaded, err := repo.FindByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if !reloaded.Verified || reloaded.Bio != "hello" || reloaded.RelationshipStatus != models.RelationshipSingle {
		t.Fatalf("expected updated fields to persist, got %+v", reloaded)
	}

	missing := newTestAccount("ghost")
	if err := repo.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing account, got %v", err)
	}

	found, err := repo.SearchByUsername(ctx, "LIC", 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != alice.ID {
		t.Fatalf("unexpected search result %+v", found)
	}
}

func TestPostgresAccountRepository_FollowGraph(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresAccountRepository(testPool)
	alice := createTestAccount(t, repo, "alice")
	bob := createTestAccount(t, repo, "bob")

	if err := repo.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := repo.Follow(ctx, alice.ID, bob.ID); !errors.Is(err, ErrUnchanged) {
		t.Fatalf("expected ErrUnchanged, got %v", err)
	}
	if err := repo.Follow(ctx, alice.ID, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	a, _ := repo.FindByID(ctx, alice.ID)
	b, _ := repo.FindByID(ctx, bob.ID)
	if !a.IsFollowing(bob.ID) || !b.IsFollowedBy(alice.ID) {
		t.Fatalf("follow not symmetric: %+v %+v", a.Following, b.Followers)
	}

	if err := repo.Unfollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if err := repo.Unfollow(ctx, alice.ID, bob.ID); !errors.Is(err, ErrUnchanged) {
		t.Fatalf("expected ErrUnchanged, got %v", err)
	}

	a, _ = repo.FindByID(ctx, alice.ID)
	b, _ = repo.FindByID(ctx, bob.ID)
	if len(a.Following) != 0 || len(b.Followers) != 0 {
		t.Fatalf("unfollow left residue: %+v %+v", a.Following, b.Followers)
	}
}

func TestPostgresContentRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	accounts := NewPostgresAccountRepository(testPool)
	repo := NewPostgresContentRepository(testPool)
	author := createTestAccount(t, accounts, "author")
	viewer := createTestAccount(t, accounts, "viewer")

	now := time.Now().UTC().Truncate(time.Millisecond)
	post := models.Content{
		ID: uuid.NewString(), Kind: models.KindPost, AuthorID: author.ID, Visibility: models.VisibilityPublic,
		CreatedAt: now, UpdatedAt: now,
		Post: &models.PostBody{Text: "hello", Images: []string{"https://cdn/1.jpg"}, Hashtags: []string{"go"}},
	}
	story := models.Content{
		ID: uuid.NewString(), Kind: models.KindStory, AuthorID: author.ID, Visibility: models.VisibilityPublic,
		CreatedAt: now.Add(time.Second), UpdatedAt: now,
		Story: &models.StoryBody{Media: models.MediaItem{URL: "https://cdn/s.jpg", Type: models.MediaImage}, ExpiresAt: now.Add(time.Hour)},
	}
	for _, c := range []models.Content{post, story} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("create %s: %v", c.Kind, err)
		}
	}

	liked, count, err := repo.ToggleLike(ctx, models.KindPost, post.ID, viewer.ID)
	if err != nil || !liked || count != 1 {
		t.Fatalf("toggle like = (%v, %d, %v)", liked, count, err)
	}
	liked, count, err = repo.ToggleLike(ctx, models.KindPost, post.ID, viewer.ID)
	if err != nil || liked || count != 0 {
		t.Fatalf("toggle unlike = (%v, %d, %v)", liked, count, err)
	}

	comments, err := repo.AddComment(ctx, models.KindPost, post.ID, models.Comment{ID: uuid.NewString(), AuthorID: viewer.ID, Text: "nice", CreatedAt: now})
	if err != nil || comments != 1 {
		t.Fatalf("add comment = (%d, %v)", comments, err)
	}

	loaded, err := repo.Find(ctx, models.KindPost, post.ID)
	if err != nil {
		t.Fatalf("find post: %v", err)
	}
	if len(loaded.Comments) != 1 || loaded.Comments[0].Text != "nice" || loaded.Post.Images[0] != "https://cdn/1.jpg" {
		t.Fatalf("unexpected post %+v", loaded)
	}

	for i := 0; i < 2; i++ {
		views, err := repo.AddStoryView(ctx, story.ID, models.StoryView{ViewerID: viewer.ID, ViewedAt: now})
		if err != nil || views != 1 {
			t.Fatalf("story view %d = (%d, %v)", i, views, err)
		}
	}

	active, total, err := repo.List(ctx, ContentQuery{Kind: models.KindStory, AuthorIDs: []string{author.ID}, ActiveAt: now.Add(2 * time.Hour)})
	if err != nil {
		t.Fatalf("list stories: %v", err)
	}
	if total != 0 || len(active) != 0 {
		t.Fatalf("expected expired story to be filtered, got %d", total)
	}

	if err := repo.Delete(ctx, models.KindPost, post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Find(ctx, models.KindPost, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPostgresSessionStore_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	accounts := NewPostgresAccountRepository(testPool)
	owner := createTestAccount(t, accounts, "owner")

	store := NewPostgresSessionStore(testPool)
	expires := time.Now().UTC().Add(24 * time.Hour)
	session := auth.Session{
		RefreshToken: uuid.NewString(),
		AccountID:    owner.ID,
		ExpiresAt:    expires,
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.Find(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if loaded.AccountID != session.AccountID || !timesClose(loaded.ExpiresAt, expires, time.Millisecond) {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}

	stale := auth.Session{RefreshToken: uuid.NewString(), AccountID: owner.ID, ExpiresAt: time.Now().UTC().Add(-time.Hour)}
	if err := store.Save(ctx, stale); err != nil {
		t.Fatalf("save stale session: %v", err)
	}
	purged, err := store.PurgeExpired(ctx, time.Now())
	if err != nil || purged != 1 {
		t.Fatalf("purge = (%d, %v)", purged, err)
	}

	if err := store.Delete(ctx, session.RefreshToken); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := store.Find(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE posts, reels, stories, sessions, accounts CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func newTestAccount(username string) models.Account {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.Account{
		ID:                  uuid.NewString(),
		Name:                username,
		Username:            username,
		Email:               username + "@example.com",
		PasswordHash:        "password-hash",
		VerificationToken:   "token-" + username,
		VerificationExpires: now.Add(24 * time.Hour),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func createTestAccount(t *testing.T, repo *PostgresAccountRepository, username string) models.Account {
	t.Helper()
	account := newTestAccount(username)
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("create test account: %v", err)
	}
	return account
}

func timesClose(a, b time.Time, tolerance time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
