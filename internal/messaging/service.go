// Package messaging implements direct and group chats: membership, messages,
// read receipts and reactions. New messages are published to chat:<id>.
package messaging

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/result"
)

// Authors resolves display identities.
type Authors interface {
	Authors(ctx context.Context, ids []int64) (map[int64]models.Author, error)
}

// Publisher hands a payload to every subscriber of a group.
type Publisher interface {
	Publish(group string, payload any)
}

// ChatSummary is a chat as seen by one member. For direct messages Name and
// ImageURL are the other participant's.
type ChatSummary struct {
	models.Chat
	Members     []int64 `json:"members"`
	UnreadCount int     `json:"unread_count"`
}

// MessageView is a message with its sender and reactions.
type MessageView struct {
	models.Message
	SenderName string            `json:"sender_name"`
	SenderPfp  string            `json:"sender_pfp"`
	Reactions  []models.Reaction `json:"reactions"`
}

// Service implements the messaging subsystem.
type Service struct {
	store     store.Store
	authors   Authors
	publisher Publisher
	logger    *zap.Logger
}

// NewService creates a messaging service. publisher may be nil.
func NewService(st store.Store, authors Authors, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, authors: authors, publisher: publisher, logger: logger}
}

// GroupChatInput creates a group chat. The first member becomes its admin.
type GroupChatInput struct {
	Members  []int64 `json:"members" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	ImageURL string  `json:"image_url"`
}

// requireUsers fails unless every id is a live user.
func (s *Service) requireUsers(ctx context.Context, ids []int64) (result.Kind, string) {
	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		s.logger.Error("get users", zap.Error(err))
		return result.KindInternal, "internal error: get users"
	}
	if len(users) != len(ids) {
		return result.KindNotFound, "User not found"
	}
	return result.KindOK, ""
}

// CreateChat opens a direct chat between exactly two distinct users. The
// summary is as seen by members[0].
func (s *Service) CreateChat(ctx context.Context, members []int64) result.Result[ChatSummary] {
	members = lo.Uniq(members)
	if len(members) != 2 {
		return result.Fail[ChatSummary](result.KindValidation, "a direct chat needs exactly two distinct members")
	}
	if kind, msg := s.requireUsers(ctx, members); kind != result.KindOK {
		return result.Fail[ChatSummary](kind, msg)
	}
	chat := &models.Chat{Kind: models.ChatKindDM}
	rows := lo.Map(members, func(id int64, _ int) models.ChatMember {
		return models.ChatMember{UserID: id, Role: models.ChatRoleMember}
	})
	return s.create(ctx, chat, rows, members[0], "Chat created successfully")
}

// CreateGroupChat opens a named chat with at least one member.
func (s *Service) CreateGroupChat(ctx context.Context, in GroupChatInput) result.Result[ChatSummary] {
	members := lo.Uniq(in.Members)
	name := strings.TrimSpace(in.Name)
	if len(members) == 0 || name == "" {
		return result.Fail[ChatSummary](result.KindValidation, "a group chat needs a name and at least one member")
	}
	if kind, msg := s.requireUsers(ctx, members); kind != result.KindOK {
		return result.Fail[ChatSummary](kind, msg)
	}
	chat := &models.Chat{Kind: models.ChatKindGroup, Name: name, ImageURL: in.ImageURL}
	rows := lo.Map(members, func(id int64, i int) models.ChatMember {
		role := models.ChatRoleMember
		if i == 0 {
			role = models.ChatRoleAdmin
		}
		return models.ChatMember{UserID: id, Role: role}
	})
	return s.create(ctx, chat, rows, members[0], "Group chat created successfully")
}

func (s *Service) create(ctx context.Context, chat *models.Chat, rows []models.ChatMember, viewerID int64, msg string) result.Result[ChatSummary] {
	if err := s.store.CreateChat(ctx, chat, rows); err != nil {
		return store.Failure[ChatSummary](s.logger, "create chat", err, "")
	}
	sum, err := s.summarize(ctx, chat, viewerID)
	if err != nil {
		return store.Failure[ChatSummary](s.logger, "summarize chat", err, "")
	}
	s.logger.Info("chat created", zap.Int64("chat_id", chat.ID), zap.String("kind", string(chat.Kind)))
	return result.OK(msg, sum)
}

func (s *Service) summarize(ctx context.Context, chat *models.Chat, viewerID int64) (ChatSummary, error) {
	members, err := s.store.ListChatMembers(ctx, chat.ID)
	if err != nil {
		return ChatSummary{}, err
	}
	unread, err := s.store.CountUnread(ctx, chat.ID, viewerID)
	if err != nil {
		return ChatSummary{}, err
	}
	sum := ChatSummary{
		Chat:        *chat,
		Members:     lo.Map(members, func(m models.ChatMember, _ int) int64 { return m.UserID }),
		UnreadCount: unread,
	}
	if chat.Kind == models.ChatKindDM {
		if other, ok := lo.Find(sum.Members, func(id int64) bool { return id != viewerID }); ok {
			authors, err := s.authors.Authors(ctx, []int64{other})
			if err != nil {
				return ChatSummary{}, err
			}
			sum.Name = authors[other].Name
			sum.ImageURL = authors[other].PfpURL
		}
	}
	return sum, nil
}

// getChat loads a chat, mapping absence to a NotFound result.
func (s *Service) getChat(ctx context.Context, chatID int64) (*models.Chat, *result.Result[result.None]) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		r := store.Failure[result.None](s.logger, "get chat", err, "Chat not found")
		return nil, &r
	}
	return chat, nil
}

// AddMember adds userID to a group chat.
func (s *Service) AddMember(ctx context.Context, chatID, userID int64) result.Result[models.ChatMember] {
	chat, fail := s.getChat(ctx, chatID)
	if fail != nil {
		return result.Recast[models.ChatMember](*fail)
	}
	if chat.Kind != models.ChatKindGroup {
		return result.Fail[models.ChatMember](result.KindValidation, "members can only be added to group chats")
	}
	if kind, msg := s.requireUsers(ctx, []int64{userID}); kind != result.KindOK {
		return result.Fail[models.ChatMember](kind, msg)
	}
	m := &models.ChatMember{ChatID: chatID, UserID: userID, Role: models.ChatRoleMember}
	if err := s.store.AddChatMember(ctx, m); err != nil {
		return store.Failure[models.ChatMember](s.logger, "add chat member", err, "User is already a member")
	}
	return result.OK("Member added successfully", *m)
}

// RemoveMember removes userID from a group chat. Removing a non-member fails
// with NotFound.
func (s *Service) RemoveMember(ctx context.Context, chatID, userID int64) result.Result[result.None] {
	chat, fail := s.getChat(ctx, chatID)
	if fail != nil {
		return *fail
	}
	if chat.Kind != models.ChatKindGroup {
		return result.Fail[result.None](result.KindValidation, "members can only be removed from group chats")
	}
	if err := s.store.RemoveChatMember(ctx, chatID, userID); err != nil {
		return store.Failure[result.None](s.logger, "remove chat member", err, "User is not a member")
	}
	return result.Done("Member removed successfully")
}

// DeleteChat removes the chat with its members, messages, receipts and reactions.
func (s *Service) DeleteChat(ctx context.Context, chatID int64) result.Result[result.None] {
	if err := s.store.DeleteChat(ctx, chatID); err != nil {
		return store.Failure[result.None](s.logger, "delete chat", err, "Chat not found")
	}
	return result.Done("Chat deleted successfully")
}

// ListChats returns every chat userID belongs to with its unread count.
func (s *Service) ListChats(ctx context.Context, userID int64) result.Result[[]ChatSummary] {
	chats, err := s.store.ListChatsForUser(ctx, userID)
	if err != nil {
		return store.Failure[[]ChatSummary](s.logger, "list chats", err, "")
	}
	out := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		sum, err := s.summarize(ctx, chat, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return store.Failure[[]ChatSummary](s.logger, "summarize chat", err, "")
		}
		out = append(out, sum)
	}
	return result.OK("Chats found", out)
}
