// Package relations toggles marks between users and posts, events, accounts
// and organizations. Every add and remove is idempotent; like/dislike and
// going/interested are mutually exclusive per target and user.
package relations

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/result"
)

// Accounts resolves account existence and display identities.
type Accounts interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Authors(ctx context.Context, ids []int64) (map[int64]models.Author, error)
}

// Service implements the toggle engine.
type Service struct {
	store    store.Store
	accounts Accounts
	logger   *zap.Logger
}

// NewService creates a relations service.
func NewService(st store.Store, accounts Accounts, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, accounts: accounts, logger: logger}
}

type phrasing struct {
	added, held, removed, absent, target, conflict string
}

var phrases = map[models.Relation]phrasing{
	models.RelationLike:       {"Post liked successfully", "Post already liked", "Like removed successfully", "Post was not liked", "Post", "Post already disliked; remove the dislike first"},
	models.RelationDislike:    {"Post disliked successfully", "Post already disliked", "Dislike removed successfully", "Post was not disliked", "Post", "Post already liked; remove the like first"},
	models.RelationGoing:      {"Marked as going", "Already marked as going", "Going mark removed", "Not marked as going", "Event", "Already marked as interested; remove that first"},
	models.RelationInterested: {"Marked as interested", "Already marked as interested", "Interested mark removed", "Not marked as interested", "Event", "Already marked as going; remove that first"},
	models.RelationFollow:     {"Followed successfully", "Already following", "Unfollowed successfully", "Not following", "Account", ""},
	models.RelationAdmin:      {"Admin added successfully", "User is already an admin", "Admin removed successfully", "User is not an admin", "Organization", ""},
	models.RelationMember:     {"Member added successfully", "User is already a member", "Member removed successfully", "User is not a member", "Organization", ""},
	models.RelationCongregant: {"Congregant added successfully", "User is already a congregant", "Congregant removed successfully", "User is not a congregant", "Organization", ""},
}

// targetExists checks the kind of entity rel points at.
func (s *Service) targetExists(ctx context.Context, rel models.Relation, targetID int64) (bool, error) {
	var err error
	switch rel {
	case models.RelationLike, models.RelationDislike:
		if _, err = s.store.GetPost(ctx, targetID); errors.Is(err, store.ErrNotFound) {
			_, err = s.store.GetEvent(ctx, targetID)
		}
	case models.RelationGoing, models.RelationInterested:
		_, err = s.store.GetEvent(ctx, targetID)
	case models.RelationFollow:
		return s.accounts.Exists(ctx, targetID)
	default:
		_, err = s.store.GetOrganization(ctx, targetID)
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Mark adds rel from actorID to targetID. A repeated mark succeeds as
// AlreadySatisfied; a held counterpart fails with Conflict and writes nothing.
func (s *Service) Mark(ctx context.Context, rel models.Relation, targetID, actorID int64) result.Result[result.None] {
	p, ok := phrases[rel]
	if !ok {
		return result.Fail[result.None](result.KindValidation, fmt.Sprintf("unknown relation %q", rel))
	}
	if _, err := s.store.GetUser(ctx, actorID); err != nil {
		return store.Failure[result.None](s.logger, "get user", err, "User not found")
	}
	exists, err := s.targetExists(ctx, rel, targetID)
	if err != nil {
		return store.Failure[result.None](s.logger, "check target", err, p.target+" not found")
	}
	if !exists {
		return result.Fail[result.None](result.KindNotFound, p.target+" not found")
	}
	created, err := s.store.Mark(ctx, rel, targetID, actorID)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return result.Fail[result.None](result.KindConflict, p.conflict)
		}
		return store.Failure[result.None](s.logger, "mark "+string(rel), err, "")
	}
	if !created {
		return result.Satisfied(p.held, result.None{})
	}
	s.logger.Debug("mark added", zap.String("relation", string(rel)),
		zap.Int64("target_id", targetID), zap.Int64("actor_id", actorID))
	return result.Done(p.added)
}

// Unmark removes rel. Removing an absent mark succeeds as AlreadySatisfied.
func (s *Service) Unmark(ctx context.Context, rel models.Relation, targetID, actorID int64) result.Result[result.None] {
	p, ok := phrases[rel]
	if !ok {
		return result.Fail[result.None](result.KindValidation, fmt.Sprintf("unknown relation %q", rel))
	}
	removed, err := s.store.Unmark(ctx, rel, targetID, actorID)
	if err != nil {
		return store.Failure[result.None](s.logger, "unmark "+string(rel), err, "")
	}
	if !removed {
		return result.Satisfied(p.absent, result.None{})
	}
	return result.Done(p.removed)
}

func (s *Service) Like(ctx context.Context, postID, userID int64) result.Result[result.None] {
	return s.Mark(ctx, models.RelationLike, postID, userID)
}

func (s *Service) RemoveLike(ctx context.Context, postID, userID int64) result.Result[result.None] {
	return s.Unmark(ctx, models.RelationLike, postID, userID)
}

func (s *Service) Dislike(ctx context.Context, postID, userID int64) result.Result[result.None] {
	return s.Mark(ctx, models.RelationDislike, postID, userID)
}

func (s *Service) RemoveDislike(ctx context.Context, postID, userID int64) result.Result[result.None] {
	return s.Unmark(ctx, models.RelationDislike, postID, userID)
}

func (s *Service) Going(ctx context.Context, eventID, userID int64) result.Result[result.None] {
	return s.Mark(ctx, models.RelationGoing, eventID, userID)
}

func (s *Service) RemoveGoing(ctx context.Context, eventID, userID int64) result.Result[result.None] {
	return s.Unmark(ctx, models.RelationGoing, eventID, userID)
}

func (s *Service) Interested(ctx context.Context, eventID, userID int64) result.Result[result.None] {
	return s.Mark(ctx, models.RelationInterested, eventID, userID)
}

func (s *Service) RemoveInterested(ctx context.Context, eventID, userID int64) result.Result[result.None] {
	return s.Unmark(ctx, models.RelationInterested, eventID, userID)
}

// Follow marks followerID as following any account, itself included.
func (s *Service) Follow(ctx context.Context, followerID, followeeID int64) result.Result[result.None] {
	return s.Mark(ctx, models.RelationFollow, followeeID, followerID)
}

func (s *Service) Unfollow(ctx context.Context, followerID, followeeID int64) result.Result[result.None] {
	return s.Unmark(ctx, models.RelationFollow, followeeID, followerID)
}

// AddRole grants an organization role: admin, member or congregant.
func (s *Service) AddRole(ctx context.Context, role models.Relation, orgID, userID int64) result.Result[result.None] {
	if !isRole(role) {
		return result.Fail[result.None](result.KindValidation, fmt.Sprintf("unknown role %q", role))
	}
	return s.Mark(ctx, role, orgID, userID)
}

func (s *Service) RemoveRole(ctx context.Context, role models.Relation, orgID, userID int64) result.Result[result.None] {
	if !isRole(role) {
		return result.Fail[result.None](result.KindValidation, fmt.Sprintf("unknown role %q", role))
	}
	return s.Unmark(ctx, role, orgID, userID)
}

func isRole(rel models.Relation) bool {
	return rel == models.RelationAdmin || rel == models.RelationMember || rel == models.RelationCongregant
}
