// Package content manages posts and events.
package content

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/result"
)

// Accounts reports whether an author id is a live user or organization.
type Accounts interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service implements post and event CRUD.
type Service struct {
	store    store.Store
	accounts Accounts
	logger   *zap.Logger
}

// NewService creates a content service.
func NewService(st store.Store, accounts Accounts, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, accounts: accounts, logger: logger}
}

// PostInput is the data for a new post.
type PostInput struct {
	AuthorID int64   `json:"author_id" binding:"required"`
	Caption  string  `json:"caption"`
	ImageURL string  `json:"image_url"`
	Location *string `json:"location"`
}

// UpdatePostInput changes only the fields that are set.
type UpdatePostInput struct {
	Caption  *string `json:"caption"`
	ImageURL *string `json:"image_url"`
	Location *string `json:"location"`
}

// EventInput is the data for a new event.
type EventInput struct {
	AuthorID    int64     `json:"author_id" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	Location    string    `json:"location"`
}

// UpdateEventInput changes only the fields that are set.
type UpdateEventInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"image_url"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Location    *string    `json:"location"`
}

func (s *Service) requireAuthor(ctx context.Context, authorID int64) (result.Kind, string) {
	ok, err := s.accounts.Exists(ctx, authorID)
	if err != nil {
		s.logger.Error("check author", zap.Int64("author_id", authorID), zap.Error(err))
		return result.KindInternal, "failed to check author"
	}
	if !ok {
		return result.KindNotFound, "Author not found"
	}
	return result.KindOK, ""
}

// CreatePost stores a post by an existing user or organization.
func (s *Service) CreatePost(ctx context.Context, in PostInput) result.Result[*models.Post] {
	if strings.TrimSpace(in.Caption) == "" && strings.TrimSpace(in.ImageURL) == "" {
		return result.Fail[*models.Post](result.KindValidation, "caption or image_url required")
	}
	if kind, msg := s.requireAuthor(ctx, in.AuthorID); kind != result.KindOK {
		return result.Fail[*models.Post](kind, msg)
	}
	p := &models.Post{AuthorID: in.AuthorID, Caption: in.Caption, ImageURL: in.ImageURL, Location: in.Location}
	if err := s.store.CreatePost(ctx, p); err != nil {
		return store.Failure[*models.Post](s.logger, "create post", err, "failed to create post")
	}
	return result.OK("Post created successfully", p)
}

func (s *Service) GetPost(ctx context.Context, id int64) result.Result[*models.Post] {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return store.Failure[*models.Post](s.logger, "get post", err, "Post not found")
	}
	return result.OK("Post found", p)
}

func (s *Service) UpdatePost(ctx context.Context, id int64, in UpdatePostInput) result.Result[*models.Post] {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return store.Failure[*models.Post](s.logger, "get post", err, "Post not found")
	}
	if in.Caption != nil {
		p.Caption = *in.Caption
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.Location != nil {
		p.Location = in.Location
	}
	if err := s.store.UpdatePost(ctx, p); err != nil {
		return store.Failure[*models.Post](s.logger, "update post", err, "Post not found")
	}
	return result.OK("Post updated successfully", p)
}

// DeletePost removes the post. Its comments and marks are left in place.
func (s *Service) DeletePost(ctx context.Context, id int64) result.Result[result.None] {
	if err := s.store.DeletePost(ctx, id); err != nil {
		return store.Failure[result.None](s.logger, "delete post", err, "Post not found")
	}
	return result.Done("Post deleted successfully")
}

// PostsByAuthor lists an account's posts in id order.
func (s *Service) PostsByAuthor(ctx context.Context, authorID int64) result.Result[[]*models.Post] {
	if kind, msg := s.requireAuthor(ctx, authorID); kind != result.KindOK {
		return result.Fail[[]*models.Post](kind, msg)
	}
	posts, err := s.store.ListPostsByAuthor(ctx, authorID)
	if err != nil {
		return store.Failure[[]*models.Post](s.logger, "list posts", err, "")
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return result.OK("Posts found", posts)
}

// CreateEvent stores an event. StartTime must not be after EndTime.
func (s *Service) CreateEvent(ctx context.Context, in EventInput) result.Result[*models.Event] {
	if strings.TrimSpace(in.Title) == "" {
		return result.Fail[*models.Event](result.KindValidation, "title required")
	}
	if in.StartTime.After(in.EndTime) {
		return result.Fail[*models.Event](result.KindValidation, "start_time must not be after end_time")
	}
	if kind, msg := s.requireAuthor(ctx, in.AuthorID); kind != result.KindOK {
		return result.Fail[*models.Event](kind, msg)
	}
	e := &models.Event{
		AuthorID:    in.AuthorID,
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Location:    in.Location,
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return store.Failure[*models.Event](s.logger, "create event", err, "failed to create event")
	}
	return result.OK("Event created successfully", e)
}

func (s *Service) GetEvent(ctx context.Context, id int64) result.Result[*models.Event] {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return store.Failure[*models.Event](s.logger, "get event", err, "Event not found")
	}
	return result.OK("Event found", e)
}

// UpdateEvent applies the set fields; the resulting window must stay ordered.
func (s *Service) UpdateEvent(ctx context.Context, id int64, in UpdateEventInput) result.Result[*models.Event] {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return store.Failure[*models.Event](s.logger, "get event", err, "Event not found")
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return result.Fail[*models.Event](result.KindValidation, "title cannot be empty")
		}
		e.Title = *in.Title
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.ImageURL != nil {
		e.ImageURL = *in.ImageURL
	}
	if in.StartTime != nil {
		e.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		e.EndTime = *in.EndTime
	}
	if in.Location != nil {
		e.Location = *in.Location
	}
	if e.StartTime.After(e.EndTime) {
		return result.Fail[*models.Event](result.KindValidation, "start_time must not be after end_time")
	}
	if err := s.store.UpdateEvent(ctx, e); err != nil {
		return store.Failure[*models.Event](s.logger, "update event", err, "Event not found")
	}
	return result.OK("Event updated successfully", e)
}

func (s *Service) DeleteEvent(ctx context.Context, id int64) result.Result[result.None] {
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return store.Failure[result.None](s.logger, "delete event", err, "Event not found")
	}
	return result.Done("Event deleted successfully")
}
