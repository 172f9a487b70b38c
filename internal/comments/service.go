// Package comments stores threaded comments and composes their read-time
// view. Top-level comments have ParentID 0; replies point at another comment
// of the same post, to any depth.
package comments

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/onechurch/backend/internal/fanout"
	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/result"
)

// Authors resolves display identities.
type Authors interface {
	Authors(ctx context.Context, ids []int64) (map[int64]models.Author, error)
}

// Publisher hands a payload to every subscriber of a group without waiting
// for delivery.
type Publisher interface {
	Publish(group string, payload any)
}

// View is a comment enriched at read time. Like and dislike figures are
// those of the comment's post.
type View struct {
	models.Comment
	AuthorName   string `json:"author_name"`
	AuthorPfp    string `json:"author_pfp"`
	LikeCount    int    `json:"like_count"`
	DislikeCount int    `json:"dislike_count"`
	UserLiked    bool   `json:"user_liked"`
	UserDisliked bool   `json:"user_disliked"`
	ReplyCount   int    `json:"reply_count"`
}

// Service implements the comment engine.
type Service struct {
	store     store.Store
	authors   Authors
	publisher Publisher
	logger    *zap.Logger
}

// NewService creates a comments service. publisher may be nil.
func NewService(st store.Store, authors Authors, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, authors: authors, publisher: publisher, logger: logger}
}

// CreateInput is the data for a new comment or reply.
type CreateInput struct {
	PostID   int64  `json:"post_id"`
	ParentID int64  `json:"parent_id"`
	AuthorID int64  `json:"author_id" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

const badPage = "offset and limit must not be negative"

// contentExists reports whether id is a live post or event.
func (s *Service) contentExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.store.GetPost(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		_, err = s.store.GetEvent(ctx, id)
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Create stores a comment and returns it enriched with the author as viewer.
// The same view is published to comments:<post> or, for replies, to
// replies:<parent>.
func (s *Service) Create(ctx context.Context, in CreateInput) result.Result[View] {
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return result.Fail[View](result.KindValidation, "content required")
	}
	ok, err := s.contentExists(ctx, in.PostID)
	if err != nil {
		return store.Failure[View](s.logger, "check post", err, "")
	}
	if !ok {
		return result.Fail[View](result.KindNotFound, "Post not found")
	}
	if _, err := s.store.GetUser(ctx, in.AuthorID); err != nil {
		return store.Failure[View](s.logger, "get user", err, "User not found")
	}
	if in.ParentID != 0 {
		parent, err := s.store.GetComment(ctx, in.ParentID)
		if err != nil {
			return store.Failure[View](s.logger, "get parent comment", err, "Parent comment not found")
		}
		if parent.PostID != in.PostID {
			return result.Fail[View](result.KindValidation, "parent comment belongs to another post")
		}
	}

	c := &models.Comment{PostID: in.PostID, ParentID: in.ParentID, AuthorID: in.AuthorID, Content: in.Content}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return store.Failure[View](s.logger, "create comment", err, "")
	}
	views, err := s.enrich(ctx, []*models.Comment{c}, c.AuthorID)
	if err != nil {
		return store.Failure[View](s.logger, "enrich comment", err, "")
	}
	v := views[0]
	if s.publisher != nil {
		if c.ParentID == 0 {
			s.publisher.Publish(fanout.CommentsGroup(c.PostID), fanout.NewCommentEvent(v, v.AuthorName))
		} else {
			s.publisher.Publish(fanout.RepliesGroup(c.ParentID), fanout.NewReplyEvent(v, v.AuthorName, c.ParentID))
		}
	}
	if c.ParentID == 0 {
		return result.OK("Comment created successfully", v)
	}
	return result.OK("Reply created successfully", v)
}

// Reply creates a reply to parentID on the parent's post.
func (s *Service) Reply(ctx context.Context, parentID, authorID int64, content string) result.Result[View] {
	parent, err := s.store.GetComment(ctx, parentID)
	if err != nil {
		return store.Failure[View](s.logger, "get parent comment", err, "Parent comment not found")
	}
	return s.Create(ctx, CreateInput{PostID: parent.PostID, ParentID: parentID, AuthorID: authorID, Content: content})
}

// Get returns a comment enriched with its author as viewer.
func (s *Service) Get(ctx context.Context, id int64) result.Result[View] {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return store.Failure[View](s.logger, "get comment", err, "Comment not found")
	}
	views, err := s.enrich(ctx, []*models.Comment{c}, c.AuthorID)
	if err != nil {
		return store.Failure[View](s.logger, "enrich comment", err, "")
	}
	return result.OK("Comment found", views[0])
}

func (s *Service) Update(ctx context.Context, id int64, content string) result.Result[View] {
	content = strings.TrimSpace(content)
	if content == "" {
		return result.Fail[View](result.KindValidation, "content required")
	}
	if err := s.store.UpdateComment(ctx, id, content); err != nil {
		return store.Failure[View](s.logger, "update comment", err, "Comment not found")
	}
	r := s.Get(ctx, id)
	if r.Success {
		r.Message = "Comment updated successfully"
	}
	return r
}

// Delete removes one comment. Its replies stay and keep their parent id.
func (s *Service) Delete(ctx context.Context, id int64) result.Result[result.None] {
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return store.Failure[result.None](s.logger, "delete comment", err, "Comment not found")
	}
	return result.Done("Comment deleted successfully")
}

// List returns a window of the post's top-level comments in creation order,
// enriched for viewerID.
func (s *Service) List(ctx context.Context, viewerID, postID int64, offset, limit int) result.Result[[]View] {
	if offset < 0 || limit < 0 {
		return result.Fail[[]View](result.KindValidation, badPage)
	}
	ok, err := s.contentExists(ctx, postID)
	if err != nil {
		return store.Failure[[]View](s.logger, "check post", err, "")
	}
	if !ok {
		return result.Fail[[]View](result.KindNotFound, "Post not found")
	}
	return s.list(ctx, viewerID, store.CommentFilter{PostID: postID, Offset: offset, Limit: limit})
}

// Replies returns a window of the direct replies to commentID in creation
// order, enriched for viewerID.
func (s *Service) Replies(ctx context.Context, viewerID, commentID int64, offset, limit int) result.Result[[]View] {
	if offset < 0 || limit < 0 {
		return result.Fail[[]View](result.KindValidation, badPage)
	}
	if _, err := s.store.GetComment(ctx, commentID); err != nil {
		return store.Failure[[]View](s.logger, "get comment", err, "Comment not found")
	}
	return s.list(ctx, viewerID, store.CommentFilter{ParentID: commentID, Offset: offset, Limit: limit})
}

func (s *Service) list(ctx context.Context, viewerID int64, f store.CommentFilter) result.Result[[]View] {
	list, err := s.store.ListComments(ctx, f)
	if err != nil {
		return store.Failure[[]View](s.logger, "list comments", err, "")
	}
	views, err := s.enrich(ctx, list, viewerID)
	if err != nil {
		return store.Failure[[]View](s.logger, "enrich comments", err, "")
	}
	return result.OK("Comments found", views)
}

// Counts returns the number of top-level comments of each post.
func (s *Service) Counts(ctx context.Context, postIDs []int64) (map[int64]int, error) {
	return s.store.CountTopLevel(ctx, postIDs)
}

// enrich joins authors, post vote summaries and direct reply counts onto
// comments, in three batched reads.
func (s *Service) enrich(ctx context.Context, list []*models.Comment, viewerID int64) ([]View, error) {
	views := make([]View, 0, len(list))
	if len(list) == 0 {
		return views, nil
	}
	authors, err := s.authors.Authors(ctx, lo.Map(list, func(c *models.Comment, _ int) int64 { return c.AuthorID }))
	if err != nil {
		return nil, err
	}
	postIDs := lo.Uniq(lo.Map(list, func(c *models.Comment, _ int) int64 { return c.PostID }))
	votes, err := s.store.SummarizeMarks(ctx,
		[]models.Relation{models.RelationLike, models.RelationDislike}, postIDs, viewerID)
	if err != nil {
		return nil, err
	}
	replies, err := s.store.CountReplies(ctx, lo.Map(list, func(c *models.Comment, _ int) int64 { return c.ID }))
	if err != nil {
		return nil, err
	}
	for _, c := range list {
		author := authors[c.AuthorID]
		vote := votes[c.PostID]
		views = append(views, View{
			Comment:      *c,
			AuthorName:   author.Name,
			AuthorPfp:    author.PfpURL,
			LikeCount:    vote.Count(models.RelationLike),
			DislikeCount: vote.Count(models.RelationDislike),
			UserLiked:    vote.Held(models.RelationLike),
			UserDisliked: vote.Held(models.RelationDislike),
			ReplyCount:   replies[c.ID],
		})
	}
	return views, nil
}
