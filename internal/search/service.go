// Package search matches accounts and content against a free-text query.
package search

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/result"
)

// Options selects the kinds searched. The zero value searches nothing; use All.
type Options struct {
	Users         bool
	Organizations bool
	Posts         bool
	Events        bool
}

// All searches every kind.
var All = Options{Users: true, Organizations: true, Posts: true, Events: true}

// Results groups matches by kind. Kinds that were not searched are omitted.
type Results struct {
	Users         []models.UserPublic    `json:"users,omitempty"`
	Organizations []*models.Organization `json:"organizations,omitempty"`
	Posts         []*models.Post         `json:"posts,omitempty"`
	Events        []*models.Event        `json:"events,omitempty"`
}

// Service runs searches against the store.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates a search service.
func NewService(st store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// Search matches query case-insensitively as a substring of usernames, root
// organization names, post captions and event titles.
func (s *Service) Search(ctx context.Context, query string, opts Options) result.Result[Results] {
	query = strings.TrimSpace(query)
	if query == "" {
		return result.Fail[Results](result.KindValidation, "query required")
	}
	var out Results
	if opts.Users {
		users, err := s.store.SearchUsers(ctx, query)
		if err != nil {
			return store.Failure[Results](s.logger, "search users", err, "")
		}
		out.Users = lo.Map(users, func(u *models.User, _ int) models.UserPublic { return u.ToPublic() })
	}
	if opts.Organizations {
		orgs, err := s.store.SearchOrganizations(ctx, query)
		if err != nil {
			return store.Failure[Results](s.logger, "search organizations", err, "")
		}
		out.Organizations = orgs
	}
	if opts.Posts {
		posts, err := s.store.SearchPosts(ctx, query)
		if err != nil {
			return store.Failure[Results](s.logger, "search posts", err, "")
		}
		out.Posts = posts
	}
	if opts.Events {
		events, err := s.store.SearchEvents(ctx, query)
		if err != nil {
			return store.Failure[Results](s.logger, "search events", err, "")
		}
		out.Events = events
	}
	return result.OK("Search completed", out)
}
