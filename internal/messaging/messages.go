package messaging

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/onechurch/backend/internal/fanout"
	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/result"
)

// Send stores a message from a current member and publishes it to the chat group.
func (s *Service) Send(ctx context.Context, chatID, senderID int64, content string) result.Result[MessageView] {
	content = strings.TrimSpace(content)
	if content == "" {
		return result.Fail[MessageView](result.KindValidation, "content required")
	}
	if _, fail := s.getChat(ctx, chatID); fail != nil {
		return result.Recast[MessageView](*fail)
	}
	msg := &models.Message{ChatID: chatID, SenderID: senderID, Content: content}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return store.Failure[MessageView](s.logger, "create message", err, "Sender is not a member of this chat")
	}
	views, err := s.views(ctx, []*models.Message{msg})
	if err != nil {
		return store.Failure[MessageView](s.logger, "enrich message", err, "")
	}
	if s.publisher != nil {
		s.publisher.Publish(fanout.ChatGroup(chatID), fanout.NewMessageEvent(views[0]))
	}
	return result.OK("Message sent successfully", views[0])
}

// messageIn loads messageID and checks that it belongs to chatID.
func (s *Service) messageIn(ctx context.Context, chatID, messageID int64) (*models.Message, error) {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ChatID != chatID {
		return nil, store.ErrNotFound
	}
	return msg, nil
}

func (s *Service) isMember(ctx context.Context, chatID, userID int64) (bool, error) {
	members, err := s.store.ListChatMembers(ctx, chatID)
	if err != nil {
		return false, err
	}
	return lo.ContainsBy(members, func(m models.ChatMember) bool { return m.UserID == userID }), nil
}

// DeleteMessage flags a message deleted and clears its content. Deleting it
// again succeeds as AlreadySatisfied.
func (s *Service) DeleteMessage(ctx context.Context, chatID, messageID int64) result.Result[result.None] {
	msg, err := s.messageIn(ctx, chatID, messageID)
	if err != nil {
		return store.Failure[result.None](s.logger, "get message", err, "Message not found")
	}
	if msg.Deleted {
		return result.Satisfied("Message already deleted", result.None{})
	}
	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return store.Failure[result.None](s.logger, "delete message", err, "Message not found")
	}
	return result.Done("Message deleted successfully")
}

// MarkRead records that userID read the message. Repeating it changes nothing.
func (s *Service) MarkRead(ctx context.Context, chatID, messageID, userID int64) result.Result[result.None] {
	if _, err := s.messageIn(ctx, chatID, messageID); err != nil {
		return store.Failure[result.None](s.logger, "get message", err, "Message not found")
	}
	member, err := s.isMember(ctx, chatID, userID)
	if err != nil {
		return store.Failure[result.None](s.logger, "list chat members", err, "")
	}
	if !member {
		return result.Fail[result.None](result.KindValidation, "User is not a member of this chat")
	}
	created, err := s.store.MarkRead(ctx, messageID, userID)
	if err != nil {
		return store.Failure[result.None](s.logger, "mark read", err, "Message not found")
	}
	if !created {
		return result.Satisfied("Message already read", result.None{})
	}
	return result.Done("Message marked as read")
}

// React adds a reaction. The same user may react with the same kind repeatedly.
func (s *Service) React(ctx context.Context, chatID, messageID, userID int64, kind string) result.Result[models.Reaction] {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return result.Fail[models.Reaction](result.KindValidation, "reaction required")
	}
	msg, err := s.messageIn(ctx, chatID, messageID)
	if err != nil {
		return store.Failure[models.Reaction](s.logger, "get message", err, "Message not found")
	}
	if msg.Deleted {
		return result.Fail[models.Reaction](result.KindValidation, "cannot react to a deleted message")
	}
	member, err := s.isMember(ctx, chatID, userID)
	if err != nil {
		return store.Failure[models.Reaction](s.logger, "list chat members", err, "")
	}
	if !member {
		return result.Fail[models.Reaction](result.KindValidation, "User is not a member of this chat")
	}
	r := &models.Reaction{MessageID: messageID, UserID: userID, Kind: kind}
	if err := s.store.AddReaction(ctx, r); err != nil {
		return store.Failure[models.Reaction](s.logger, "add reaction", err, "Message not found")
	}
	return result.OK("Reaction added successfully", *r)
}

// Unreact removes one of userID's reactions by id.
func (s *Service) Unreact(ctx context.Context, chatID, messageID, reactionID, userID int64) result.Result[result.None] {
	if _, err := s.messageIn(ctx, chatID, messageID); err != nil {
		return store.Failure[result.None](s.logger, "get message", err, "Message not found")
	}
	if err := s.store.RemoveReaction(ctx, messageID, reactionID, userID); err != nil {
		return store.Failure[result.None](s.logger, "remove reaction", err, "Reaction not found")
	}
	return result.Done("Reaction removed successfully")
}

// Messages returns a window of the chat's messages, oldest first.
func (s *Service) Messages(ctx context.Context, chatID int64, offset, limit int) result.Result[[]MessageView] {
	if offset < 0 || limit < 0 {
		return result.Fail[[]MessageView](result.KindValidation, "offset and limit must not be negative")
	}
	if _, fail := s.getChat(ctx, chatID); fail != nil {
		return result.Recast[[]MessageView](*fail)
	}
	list, err := s.store.ListMessages(ctx, chatID, offset, limit)
	if err != nil {
		return store.Failure[[]MessageView](s.logger, "list messages", err, "")
	}
	views, err := s.views(ctx, list)
	if err != nil {
		return store.Failure[[]MessageView](s.logger, "enrich messages", err, "")
	}
	return result.OK("Messages found", views)
}

func (s *Service) views(ctx context.Context, list []*models.Message) ([]MessageView, error) {
	out := make([]MessageView, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}
	senders, err := s.authors.Authors(ctx, lo.Map(list, func(m *models.Message, _ int) int64 { return m.SenderID }))
	if err != nil {
		return nil, err
	}
	reactions, err := s.store.ListReactions(ctx, lo.Map(list, func(m *models.Message, _ int) int64 { return m.ID }))
	if err != nil {
		return nil, err
	}
	for _, m := range list {
		sender := senders[m.SenderID]
		rs := reactions[m.ID]
		if rs == nil {
			rs = []models.Reaction{}
		}
		out = append(out, MessageView{Message: *m, SenderName: sender.Name, SenderPfp: sender.PfpURL, Reactions: rs})
	}
	return out, nil
}

