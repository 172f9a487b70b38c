// Package feed composes the timeline of posts and events shown to a user.
// It only reads; every figure is computed from the owning tables per call.
package feed

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/onechurch/backend/internal/comments"
	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/result"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// PreviewSize is the number of top-level comments attached to a post.
	PreviewSize = 2
)

// Authors resolves display identities.
type Authors interface {
	Authors(ctx context.Context, ids []int64) (map[int64]models.Author, error)
}

// Comments provides comment previews.
type Comments interface {
	List(ctx context.Context, viewerID, postID int64, offset, limit int) result.Result[[]comments.View]
}

// PostStats are the post-only fields of an Item.
type PostStats struct {
	Comments []comments.View `json:"comments"`
}

// EventStats are the event-only fields of an Item.
type EventStats struct {
	GoingCount      int  `json:"going_count"`
	InterestedCount int  `json:"interested_count"`
	UserGoing       bool `json:"user_going"`
	UserInterested  bool `json:"user_interested"`
}

// Item is one enriched timeline entry.
type Item struct {
	Type        string     `json:"type"`
	ID          int64      `json:"id"`
	AuthorID    int64      `json:"author_id"`
	CreatedAt   time.Time  `json:"created_at"`
	ImageURL    string     `json:"image_url"`
	Caption     string     `json:"caption,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`

	AuthorName   string `json:"author_name"`
	AuthorPfp    string `json:"author_pfp"`
	LikeCount    int    `json:"like_count"`
	DislikeCount int    `json:"dislike_count"`
	UserLiked    bool   `json:"user_liked"`
	UserDisliked bool   `json:"user_disliked"`
	CommentCount int    `json:"comment_count"`

	*PostStats
	*EventStats
}

// Service implements the feed composer.
type Service struct {
	store        store.Store
	authors      Authors
	comments     Comments
	logger       *zap.Logger
	defaultLimit int
	maxLimit     int
}

// Option configures a Service.
type Option func(*Service)

// WithLimits sets the page size served when a request names no limit and the
// largest page a request may ask for.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

// NewService creates a feed service.
func NewService(st store.Store, authors Authors, cs Comments, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:        st,
		authors:      authors,
		comments:     cs,
		logger:       logger,
		defaultLimit: DefaultLimit,
		maxLimit:     MaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var feedRelations = []models.Relation{
	models.RelationLike, models.RelationDislike, models.RelationGoing, models.RelationInterested,
}

// Get returns the window [offset, offset+limit) of all posts and events,
// newest first with ties broken by higher id, enriched for userID. It returns
// exactly min(limit, total-offset) items; page defaults and the size cap are
// applied by the HTTP handler.
func (s *Service) Get(ctx context.Context, userID int64, offset, limit int) result.Result[[]Item] {
	if offset < 0 || limit < 0 {
		return result.Fail[[]Item](result.KindValidation, "offset and limit must not be negative")
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return store.Failure[[]Item](s.logger, "get user", err, "User not found")
	}

	entries, err := s.store.ListTimeline(ctx, offset, limit)
	if err != nil {
		return store.Failure[[]Item](s.logger, "list timeline", err, "")
	}
	items, err := s.compose(ctx, userID, entries)
	if err != nil {
		return store.Failure[[]Item](s.logger, "compose feed", err, "")
	}
	return result.OK("Feed retrieved successfully", items)
}

// Total counts every post and event on the timeline.
func (s *Service) Total(ctx context.Context) result.Result[int] {
	n, err := s.store.CountTimeline(ctx)
	if err != nil {
		return store.Failure[int](s.logger, "count timeline", err, "")
	}
	return result.OK("Feed size", n)
}

// pageLimit caps a requested page size at the configured maximum.
func (s *Service) pageLimit(limit int) int {
	return lo.Min([]int{limit, s.maxLimit})
}

func (s *Service) compose(ctx context.Context, viewerID int64, entries []models.TimelineEntry) ([]Item, error) {
	items := make([]Item, 0, len(entries))
	if len(entries) == 0 {
		return items, nil
	}
	ids := lo.Map(entries, func(e models.TimelineEntry, _ int) int64 { return e.ID() })
	authorIDs := lo.Map(entries, func(e models.TimelineEntry, _ int) int64 {
		if e.Post != nil {
			return e.Post.AuthorID
		}
		return e.Event.AuthorID
	})
	authors, err := s.authors.Authors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	marks, err := s.store.SummarizeMarks(ctx, feedRelations, ids, viewerID)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.CountTopLevel(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i, e := range entries {
		id := ids[i]
		author := authors[authorIDs[i]]
		sum := marks[id]
		item := Item{
			ID:           id,
			AuthorID:     authorIDs[i],
			CreatedAt:    e.CreatedAt(),
			AuthorName:   author.Name,
			AuthorPfp:    author.PfpURL,
			LikeCount:    sum.Count(models.RelationLike),
			DislikeCount: sum.Count(models.RelationDislike),
			UserLiked:    sum.Held(models.RelationLike),
			UserDisliked: sum.Held(models.RelationDislike),
			CommentCount: counts[id],
		}
		if p := e.Post; p != nil {
			item.Type = models.KindPost
			item.ImageURL = p.ImageURL
			item.Caption = p.Caption
			item.Location = p.Location
			preview := s.comments.List(ctx, viewerID, p.ID, 0, PreviewSize)
			if !preview.Success {
				// the post may have been deleted since the timeline was read
				preview.Data = []comments.View{}
			}
			item.PostStats = &PostStats{Comments: preview.Data}
		} else {
			ev := e.Event
			start, end := ev.StartTime, ev.EndTime
			item.Type = models.KindEvent
			item.ImageURL = ev.ImageURL
			item.Title = ev.Title
			item.Description = ev.Description
			item.StartTime = &start
			item.EndTime = &end
			if ev.Location != "" {
				loc := ev.Location
				item.Location = &loc
			}
			item.EventStats = &EventStats{
				GoingCount:      sum.Count(models.RelationGoing),
				InterestedCount: sum.Count(models.RelationInterested),
				UserGoing:       sum.Held(models.RelationGoing),
				UserInterested:  sum.Held(models.RelationInterested),
			}
		}
		items = append(items, item)
	}
	return items, nil
}
