package repositories

import (
	"context"

	"github.com/fmeta/backend/internal/models"
)

// AccountRepository defines the data access contract for accounts and the follow graph.
type AccountRepository interface {
	Create(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, id string) (models.Account, error)
	// FindByIDs returns the accounts that exist, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]models.Account, error)
	// FindByLogin matches identifier against email, phone and username.
	FindByLogin(ctx context.Context, identifier string) (models.Account, error)
	// FindConflicting returns every account sharing the username, email or phone.
	// Empty email or phone values never match.
	FindConflicting(ctx context.Context, username, email, phone string) ([]models.Account, error)
	FindByVerificationToken(ctx context.Context, token string) (models.Account, error)
	// Update persists profile and verification fields.
	Update(ctx context.Context, account models.Account) error
	SearchByUsername(ctx context.Context, query string, limit int) ([]models.Account, error)
	// Follow adds targetID to actor's following and actorID to target's followers as
	// one unit. It returns ErrUnchanged when actor already follows target.
	Follow(ctx context.Context, actorID, targetID string) error
	// Unfollow reverses Follow. It returns ErrUnchanged when actor does not follow target.
	Unfollow(ctx context.Context, actorID, targetID string) error
	AppendPost(ctx context.Context, accountID, postID string) error
	RemovePost(ctx context.Context, accountID, postID string) error
}
