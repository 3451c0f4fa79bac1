package social

import (
	"context"
	"errors"

	"github.com/fmeta/backend/internal/apperr"
	"github.com/fmeta/backend/internal/logging"
	"github.com/fmeta/backend/internal/repositories"
)

// FollowStatus reports the follow relationship between two accounts in both
// directions.
type FollowStatus struct {
	IsFollowing   bool `json:"isFollowing"`
	IsFollowingMe bool `json:"isFollowingMe"`
}

// Follow makes actorID follow targetID.
func (s Service) Follow(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return apperr.ErrSelfFollow
	}

	err := s.Accounts.Follow(ctx, actorID, targetID)
	switch {
	case err == nil:
		logging.FromContext(ctx).Info("account followed", "targetId", targetID)
		return nil
	case errors.Is(err, repositories.ErrUnchanged):
		return apperr.ErrAlreadyFollows
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.ErrAccountNotFound
	default:
		return apperr.Internal("follow account", err)
	}
}

// Unfollow removes actorID from targetID's followers.
func (s Service) Unfollow(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return apperr.ErrSelfFollow.WithMessage("You cannot unfollow yourself")
	}

	err := s.Accounts.Unfollow(ctx, actorID, targetID)
	switch {
	case err == nil:
		logging.FromContext(ctx).Info("account unfollowed", "targetId", targetID)
		return nil
	case errors.Is(err, repositories.ErrUnchanged):
		return apperr.ErrNotFollowing
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.ErrAccountNotFound
	default:
		return apperr.Internal("unfollow account", err)
	}
}

// FollowStatus reports whether actorID follows targetID and whether targetID
// follows back.
func (s Service) FollowStatus(ctx context.Context, actorID, targetID string) (FollowStatus, error) {
	actor, err := s.findAccount(ctx, actorID)
	if err != nil {
		return FollowStatus{}, err
	}
	target, err := s.findAccount(ctx, targetID)
	if err != nil {
		return FollowStatus{}, err
	}
	return FollowStatus{
		IsFollowing:   actor.IsFollowing(target.ID),
		IsFollowingMe: target.IsFollowing(actor.ID),
	}, nil
}
