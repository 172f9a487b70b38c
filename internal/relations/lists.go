package relations

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/result"
)

func (s *Service) authorsOf(ctx context.Context, op string, ids []int64) result.Result[[]models.Author] {
	authors, err := s.accounts.Authors(ctx, ids)
	if err != nil {
		return store.Failure[[]models.Author](s.logger, op, err, "")
	}
	return result.OK("Accounts found", lo.Map(ids, func(id int64, _ int) models.Author { return authors[id] }))
}

// Followers lists the accounts following accountID, oldest first.
func (s *Service) Followers(ctx context.Context, accountID int64) result.Result[[]models.Author] {
	ids, err := s.store.ListActors(ctx, models.RelationFollow, accountID)
	if err != nil {
		return store.Failure[[]models.Author](s.logger, "list followers", err, "")
	}
	return s.authorsOf(ctx, "resolve followers", ids)
}

// Following lists the accounts userID follows, oldest first.
func (s *Service) Following(ctx context.Context, userID int64) result.Result[[]models.Author] {
	ids, err := s.store.ListTargets(ctx, models.RelationFollow, userID)
	if err != nil {
		return store.Failure[[]models.Author](s.logger, "list following", err, "")
	}
	return s.authorsOf(ctx, "resolve following", ids)
}

// OrganizationsFor lists organizations in which userID holds role.
// Organizations deleted since the role was granted are skipped.
func (s *Service) OrganizationsFor(ctx context.Context, userID int64, role models.Relation) result.Result[[]*models.Organization] {
	if !isRole(role) {
		return result.Fail[[]*models.Organization](result.KindValidation, fmt.Sprintf("unknown role %q", role))
	}
	ids, err := s.store.ListTargets(ctx, role, userID)
	if err != nil {
		return store.Failure[[]*models.Organization](s.logger, "list organizations", err, "")
	}
	orgs, err := s.store.GetOrganizations(ctx, ids)
	if err != nil {
		return store.Failure[[]*models.Organization](s.logger, "get organizations", err, "")
	}
	if orgs == nil {
		orgs = []*models.Organization{}
	}
	return result.OK("Organizations found", orgs)
}

// RoleHolders lists the users holding role in orgID.
func (s *Service) RoleHolders(ctx context.Context, orgID int64, role models.Relation) result.Result[[]models.UserPublic] {
	if !isRole(role) {
		return result.Fail[[]models.UserPublic](result.KindValidation, fmt.Sprintf("unknown role %q", role))
	}
	if _, err := s.store.GetOrganization(ctx, orgID); err != nil {
		return store.Failure[[]models.UserPublic](s.logger, "get organization", err, "Organization not found")
	}
	ids, err := s.store.ListActors(ctx, role, orgID)
	if err != nil {
		return store.Failure[[]models.UserPublic](s.logger, "list role holders", err, "")
	}
	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		return store.Failure[[]models.UserPublic](s.logger, "get users", err, "")
	}
	return result.OK("Users found", lo.Map(users, func(u *models.User, _ int) models.UserPublic { return u.ToPublic() }))
}
