package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/fmeta/backend/internal/apperr"
	"github.com/fmeta/backend/internal/models"
	"github.com/fmeta/backend/internal/repositories"
)

// AccountSummary is the short form of an account shown in follower lists.
type AccountSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Profile is an account together with its resolved follow lists.
type Profile struct {
	Account        models.Account
	Followers      []AccountSummary
	Following      []AccountSummary
	FollowerCount  int
	FollowingCount int
	// PostCount counts posts only; reels and stories are not tracked on the account.
	PostCount int
}

// ProfileUpdate lists the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name               *string
	Bio                *string
	RelationshipStatus *string
}

// Me returns the authenticated account.
func (s Service) Me(ctx context.Context, viewerID string) (models.Account, error) {
	return s.find(ctx, viewerID)
}

// Profile returns userID's public profile.
func (s Service) Profile(ctx context.Context, userID string) (Profile, error) {
	account, err := s.find(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	ids := make([]string, 0, len(account.Followers)+len(account.Following))
	ids = append(ids, account.Followers...)
	ids = append(ids, account.Following...)

	related, err := s.Accounts.FindByIDs(ctx, ids)
	if err != nil {
		return Profile{}, apperr.Internal("load follow lists", err)
	}
	byID := make(map[string]models.Account, len(related))
	for _, a := range related {
		byID[a.ID] = a
	}

	return Profile{
		Account:        account,
		Followers:      summaries(account.Followers, byID),
		Following:      summaries(account.Following, byID),
		FollowerCount:  len(account.Followers),
		FollowingCount: len(account.Following),
		PostCount:      len(account.Posts),
	}, nil
}

// summaries keeps the order of ids and skips accounts that no longer exist.
func summaries(ids []string, byID map[string]models.Account) []AccountSummary {
	out := make([]AccountSummary, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, AccountSummary{ID: a.ID, Username: a.Username, Name: a.Name})
		}
	}
	return out
}

// UpdateProfile edits the authenticated account's profile fields.
func (s Service) UpdateProfile(ctx context.Context, viewerID string, update ProfileUpdate) (models.Account, error) {
	account, err := s.find(ctx, viewerID)
	if err != nil {
		return models.Account{}, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return models.Account{}, apperr.Validation("Name cannot be empty")
		}
		account.Name = name
	}
	if update.Bio != nil {
		account.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.RelationshipStatus != nil {
		status := models.RelationshipStatus(strings.TrimSpace(*update.RelationshipStatus))
		if !status.Valid() {
			return models.Account{}, apperr.Validation("Invalid relationship status")
		}
		account.RelationshipStatus = status
	}

	account.UpdatedAt = s.now()
	if err := s.Accounts.Update(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Account{}, apperr.ErrAccountNotFound
		}
		return models.Account{}, apperr.Internal("update profile", err)
	}
	return account, nil
}

// Search finds accounts whose username contains query, ignoring case.
func (s Service) Search(ctx context.Context, query string) ([]models.Account, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("Search query is required")
	}
	accounts, err := s.Accounts.SearchByUsername(ctx, query, SearchLimit)
	if err != nil {
		return nil, apperr.Internal("search accounts", err)
	}
	return accounts, nil
}

func (s Service) find(ctx context.Context, id string) (models.Account, error) {
	account, err := s.Accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Account{}, apperr.ErrAccountNotFound
		}
		return models.Account{}, apperr.Internal("find account", err)
	}
	return account, nil
}
