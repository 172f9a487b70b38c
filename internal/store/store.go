// Package store defines the entity store capability shared by the in-memory
// and PostgreSQL backends. The store exclusively owns table contents: every
// getter returns a copy, and derived fields are computed by callers at read time.
package store

import (
	"context"
	"errors"

	"github.com/onechurch/backend/internal/models"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a mutually exclusive mark is already held.
	ErrConflict = errors.New("store: conflicting mark held")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrNotMember is returned when a message sender is not a chat member.
	ErrNotMember = errors.New("store: sender is not a chat member")
	// ErrCycle is returned when a new parent would make an organization its
	// own ancestor.
	ErrCycle = errors.New("store: organization would be its own ancestor")
)

// Users persists user accounts. Users and organizations share one id sequence.
type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsers(ctx context.Context, ids []int64) ([]*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	SearchUsers(ctx context.Context, query string) ([]*models.User, error)
}

// OrganizationPatch names the organization fields to change. Nil fields are kept.
type OrganizationPatch struct {
	Name     *string
	ParentID *int64
}

// Organizations persists organization accounts.
type Organizations interface {
	CreateOrganization(ctx context.Context, o *models.Organization) error
	GetOrganization(ctx context.Context, id int64) (*models.Organization, error)
	GetOrganizations(ctx context.Context, ids []int64) ([]*models.Organization, error)
	// UpdateOrganization applies patch as one step. The ancestry check for a
	// new parent runs under the same lock or transaction as the write, so
	// concurrent reparents cannot close a loop. A missing organization or
	// parent is ErrNotFound; a loop is ErrCycle.
	UpdateOrganization(ctx context.Context, id int64, patch OrganizationPatch) (*models.Organization, error)
	DeleteOrganization(ctx context.Context, id int64) error
	// ListOrganizationsByParent returns direct children in id order.
	ListOrganizationsByParent(ctx context.Context, parentID int64) ([]*models.Organization, error)
	// SearchOrganizations matches root organizations only.
	SearchOrganizations(ctx context.Context, query string) ([]*models.Organization, error)
}

// Content persists posts and events. Both share one id sequence.
type Content interface {
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	UpdatePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id int64) error
	ListPostsByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error)
	SearchPosts(ctx context.Context, query string) ([]*models.Post, error)

	CreateEvent(ctx context.Context, e *models.Event) error
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	UpdateEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	SearchEvents(ctx context.Context, query string) ([]*models.Event, error)

	// ListTimeline returns posts and events ordered by created_at descending,
	// ties broken by id descending, windowed by offset and limit.
	ListTimeline(ctx context.Context, offset, limit int) ([]models.TimelineEntry, error)
	CountTimeline(ctx context.Context) (int, error)
}

// MarkSummary aggregates marks on one target.
type MarkSummary struct {
	Counts map[models.Relation]int
	Viewer map[models.Relation]bool
}

// Count returns the number of rel marks in the summary.
func (s MarkSummary) Count(rel models.Relation) int { return s.Counts[rel] }

// Held reports whether the viewer holds a rel mark.
func (s MarkSummary) Held(rel models.Relation) bool { return s.Viewer[rel] }

// Marks persists relation marks.
type Marks interface {
	// Mark inserts the mark atomically. It reports created=false when the same
	// mark already exists and returns ErrConflict when another relation of the
	// same slot is held; in both cases nothing is written.
	Mark(ctx context.Context, rel models.Relation, targetID, actorID int64) (created bool, err error)
	// Unmark reports whether a row was removed.
	Unmark(ctx context.Context, rel models.Relation, targetID, actorID int64) (removed bool, err error)
	ListActors(ctx context.Context, rel models.Relation, targetID int64) ([]int64, error)
	ListTargets(ctx context.Context, rel models.Relation, actorID int64) ([]int64, error)
	// SummarizeMarks counts rels per target and flags the viewer's own marks.
	// Every requested target has an entry.
	SummarizeMarks(ctx context.Context, rels []models.Relation, targetIDs []int64, viewerID int64) (map[int64]MarkSummary, error)
}

// CommentFilter selects comments. ParentID 0 selects the top-level comments
// of PostID; otherwise the direct replies of ParentID regardless of post.
type CommentFilter struct {
	PostID   int64
	ParentID int64
	Offset   int
	Limit    int
}

// Comments persists comments and replies.
type Comments interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	UpdateComment(ctx context.Context, id int64, content string) error
	DeleteComment(ctx context.Context, id int64) error
	// ListComments returns matches in creation order (id ascending).
	ListComments(ctx context.Context, f CommentFilter) ([]*models.Comment, error)
	// CountReplies counts direct children of each parent.
	CountReplies(ctx context.Context, parentIDs []int64) (map[int64]int, error)
	// CountTopLevel counts parent_id=0 comments of each post.
	CountTopLevel(ctx context.Context, postIDs []int64) (map[int64]int, error)
}

// Chats persists chats, memberships, messages, receipts and reactions.
type Chats interface {
	// CreateChat inserts the chat and all members in one step.
	CreateChat(ctx context.Context, c *models.Chat, members []models.ChatMember) error
	GetChat(ctx context.Context, id int64) (*models.Chat, error)
	DeleteChat(ctx context.Context, id int64) error
	ListChatsForUser(ctx context.Context, userID int64) ([]*models.Chat, error)
	ListChatMembers(ctx context.Context, chatID int64) ([]models.ChatMember, error)
	// AddChatMember returns ErrDuplicate for an active member.
	AddChatMember(ctx context.Context, m *models.ChatMember) error
	// RemoveChatMember returns ErrNotFound for a non-member.
	RemoveChatMember(ctx context.Context, chatID, userID int64) error

	// CreateMessage checks membership and inserts in one step, returning
	// ErrNotMember when the sender holds no active membership.
	CreateMessage(ctx context.Context, m *models.Message) error
	GetMessage(ctx context.Context, id int64) (*models.Message, error)
	// DeleteMessage flags the message deleted and clears its content.
	DeleteMessage(ctx context.Context, id int64) error
	// ListMessages returns messages in creation order.
	ListMessages(ctx context.Context, chatID int64, offset, limit int) ([]*models.Message, error)
	// MarkRead is idempotent and reports whether a receipt was created.
	MarkRead(ctx context.Context, messageID, userID int64) (created bool, err error)
	// CountUnread counts live messages in the chat not sent by userID and
	// lacking a receipt from userID.
	CountUnread(ctx context.Context, chatID, userID int64) (int, error)

	AddReaction(ctx context.Context, r *models.Reaction) error
	// RemoveReaction removes reactionID only when it belongs to messageID and userID.
	RemoveReaction(ctx context.Context, messageID, reactionID, userID int64) error
	ListReactions(ctx context.Context, messageIDs []int64) (map[int64][]models.Reaction, error)
}

// Feedback persists user feedback.
type Feedback interface {
	CreateFeedback(ctx context.Context, f *models.Feedback) error
}

// Store is the full capability set.
type Store interface {
	Users
	Organizations
	Content
	Marks
	Comments
	Chats
	Feedback
}
