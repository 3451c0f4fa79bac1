package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fmeta/backend/internal/models"
)

// MemoryAccountRepository keeps accounts in process memory. Graph mutations run under
// one lock, so both sides of a follow change together.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	now      func() time.Time
}

// NewMemoryAccountRepository returns an empty in-memory account repository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[string]models.Account),
		now:      time.Now,
	}
}

var _ AccountRepository = (*MemoryAccountRepository)(nil)

// Create stores a new account, rejecting duplicate ids, usernames, emails and phones.
func (r *MemoryAccountRepository) Create(_ context.Context, account models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.ID]; exists {
		return ErrConflict
	}
	account.Email = strings.ToLower(account.Email)
	if len(r.conflictsLocked(account.Username, account.Email, account.Phone)) > 0 {
		return ErrConflict
	}
	if account.VerificationToken != "" {
		for _, existing := range r.accounts {
			if existing.VerificationToken == account.VerificationToken {
				return ErrConflict
			}
		}
	}

	r.accounts[account.ID] = account.Clone()
	return nil
}

// FindByID returns the account with the given id.
func (r *MemoryAccountRepository) FindByID(_ context.Context, id string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return account.Clone(), nil
}

// FindByIDs returns the accounts among ids that exist.
func (r *MemoryAccountRepository) FindByIDs(_ context.Context, ids []string) ([]models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Account
	for _, id := range uniqueStrings(ids) {
		if account, ok := r.accounts[id]; ok {
			out = append(out, account.Clone())
		}
	}
	return out, nil
}

// FindByLogin matches identifier against email, phone and username.
func (r *MemoryAccountRepository) FindByLogin(_ context.Context, identifier string) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lowered := strings.ToLower(identifier)
	var (
		match models.Account
		found bool
	)
	for _, account := range r.accounts {
		if (account.Email != "" && account.Email == lowered) ||
			(account.Phone != "" && account.Phone == identifier) ||
			account.Username == identifier {
			if !found || account.CreatedAt.Before(match.CreatedAt) {
				match = account
				found = true
			}
		}
	}
	if !found {
		return models.Account{}, ErrNotFound
	}
	return match.Clone(), nil
}

// FindConflicting returns accounts sharing the username, email or phone.
func (r *MemoryAccountRepository) FindConflicting(_ context.Context, username, email, phone string) ([]models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conflictsLocked(username, strings.ToLower(email), phone), nil
}

func (r *MemoryAccountRepository) conflictsLocked(username, email, phone string) []models.Account {
	var out []models.Account
	for _, account := range r.accounts {
		if account.Username == username ||
			(email != "" && account.Email == email) ||
			(phone != "" && account.Phone == phone) {
			out = append(out, account.Clone())
		}
	}
	return out
}

// FindByVerificationToken returns the account holding token.
func (r *MemoryAccountRepository) FindByVerificationToken(_ context.Context, token string) (models.Account, error) {
	if token == "" {
		return models.Account{}, ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if account.VerificationToken == token {
			return account.Clone(), nil
		}
	}
	return models.Account{}, ErrNotFound
}

// Update persists profile and verification fields.
func (r *MemoryAccountRepository) Update(_ context.Context, account models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[account.ID]
	if !ok {
		return ErrNotFound
	}

	stored.Name = account.Name
	stored.Bio = account.Bio
	stored.RelationshipStatus = account.RelationshipStatus
	stored.Verified = account.Verified
	stored.VerificationToken = account.VerificationToken
	stored.VerificationExpires = account.VerificationExpires
	stored.UpdatedAt = account.UpdatedAt
	r.accounts[account.ID] = stored
	return nil
}

// SearchByUsername returns up to limit accounts whose username contains query.
func (r *MemoryAccountRepository) SearchByUsername(_ context.Context, query string, limit int) ([]models.Account, error) {
	if limit <= 0 {
		limit = 20
	}
	needle := strings.ToLower(query)

	r.mu.RLock()
	var out []models.Account
	for _, account := range r.accounts {
		if strings.Contains(strings.ToLower(account.Username), needle) {
			out = append(out, account.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Follow links actor to target on both records.
func (r *MemoryAccountRepository) Follow(_ context.Context, actorID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	actor, target, err := r.pairLocked(actorID, targetID)
	if err != nil {
		return err
	}
	if actor.IsFollowing(targetID) {
		return ErrUnchanged
	}

	now := r.now().UTC()
	actor.Following = append(actor.Following, targetID)
	actor.UpdatedAt = now
	r.accounts[actorID] = actor

	target = r.accounts[targetID]
	if !target.IsFollowedBy(actorID) {
		target.Followers = append(target.Followers, actorID)
	}
	target.UpdatedAt = now
	r.accounts[targetID] = target
	return nil
}

// Unfollow removes the link from both records.
func (r *MemoryAccountRepository) Unfollow(_ context.Context, actorID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	actor, _, err := r.pairLocked(actorID, targetID)
	if err != nil {
		return err
	}
	if !actor.IsFollowing(targetID) {
		return ErrUnchanged
	}

	now := r.now().UTC()
	actor.Following = removeString(actor.Following, targetID)
	actor.UpdatedAt = now
	r.accounts[actorID] = actor

	target := r.accounts[targetID]
	target.Followers = removeString(target.Followers, actorID)
	target.UpdatedAt = now
	r.accounts[targetID] = target
	return nil
}

func (r *MemoryAccountRepository) pairLocked(actorID, targetID string) (models.Account, models.Account, error) {
	actor, ok := r.accounts[actorID]
	if !ok {
		return models.Account{}, models.Account{}, ErrNotFound
	}
	target, ok := r.accounts[targetID]
	if !ok {
		return models.Account{}, models.Account{}, ErrNotFound
	}
	return actor.Clone(), target.Clone(), nil
}

// AppendPost records postID as owned by the account.
func (r *MemoryAccountRepository) AppendPost(_ context.Context, accountID, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	for _, id := range account.Posts {
		if id == postID {
			return nil
		}
	}
	account = account.Clone()
	account.Posts = append(account.Posts, postID)
	r.accounts[accountID] = account
	return nil
}

// RemovePost drops postID from the account's owned posts.
func (r *MemoryAccountRepository) RemovePost(_ context.Context, accountID, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	account = account.Clone()
	account.Posts = removeString(account.Posts, postID)
	r.accounts[accountID] = account
	return nil
}

func removeString(values []string, target string) []string {
	out := values[:0]
	for _, v := range values {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
