package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
)

// CreateChat inserts the chat and its members in one statement.
func (s *Store) CreateChat(ctx context.Context, c *models.Chat, members []models.ChatMember) error {
	const q = `WITH c AS (
			INSERT INTO chats (kind, name, image_url) VALUES ($1, $2, $3)
			RETURNING id, created_at
		), m AS (
			INSERT INTO chat_members (chat_id, user_id, role, joined_at)
			SELECT c.id, u.user_id, u.role, c.created_at
			FROM c, unnest($4::bigint[], $5::text[]) AS u(user_id, role)
			ON CONFLICT (chat_id, user_id) DO NOTHING
		)
		SELECT id, created_at FROM c`
	userIDs := lo.Map(members, func(m models.ChatMember, _ int) int64 { return m.UserID })
	roles := lo.Map(members, func(m models.ChatMember, _ int) string { return m.Role })
	if err := s.db.QueryRow(ctx, q, string(c.Kind), c.Name, c.ImageURL, userIDs, roles).Scan(&c.ID, &c.CreatedAt); err != nil {
		return translate("create chat", err)
	}
	for i := range members {
		members[i].ChatID = c.ID
		members[i].JoinedAt = c.CreatedAt
	}
	return nil
}

const chatColumns = `id, kind, name, image_url, created_at`

func scanChat(row pgx.Row) (*models.Chat, error) {
	var (
		c    models.Chat
		kind string
	)
	if err := row.Scan(&c.ID, &kind, &c.Name, &c.ImageURL, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Kind = models.ChatKind(kind)
	return &c, nil
}

func (s *Store) GetChat(ctx context.Context, id int64) (*models.Chat, error) {
	c, err := scanChat(s.db.QueryRow(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = $1`, id))
	return c, translate("get chat", err)
}

// DeleteChat cascades to members, messages, receipts and reactions.
func (s *Store) DeleteChat(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	return affected(tag, err, "delete chat")
}

func (s *Store) ListChatsForUser(ctx context.Context, userID int64) ([]*models.Chat, error) {
	rows, err := s.db.Query(ctx, `SELECT c.id, c.kind, c.name, c.image_url, c.created_at
		FROM chats c
		INNER JOIN chat_members m ON m.chat_id = c.id
		WHERE m.user_id = $1
		ORDER BY c.id`, userID)
	if err != nil {
		return nil, translate("list chats", err)
	}
	defer rows.Close()
	var list []*models.Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, translate("scan chat", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (s *Store) ListChatMembers(ctx context.Context, chatID int64) ([]models.ChatMember, error) {
	rows, err := s.db.Query(ctx, `SELECT id, chat_id, user_id, role, joined_at
		FROM chat_members WHERE chat_id = $1 ORDER BY id`, chatID)
	if err != nil {
		return nil, translate("list chat members", err)
	}
	defer rows.Close()
	list := []models.ChatMember{}
	for rows.Next() {
		var m models.ChatMember
		if err := rows.Scan(&m.ID, &m.ChatID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, translate("scan chat member", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (s *Store) AddChatMember(ctx context.Context, m *models.ChatMember) error {
	const q = `INSERT INTO chat_members (chat_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id, user_id) DO NOTHING
		RETURNING id, joined_at`
	err := s.db.QueryRow(ctx, q, m.ChatID, m.UserID, m.Role).Scan(&m.ID, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrDuplicate
	}
	return translate("add chat member", err)
}

func (s *Store) RemoveChatMember(ctx context.Context, chatID, userID int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM chat_members WHERE chat_id = $1 AND user_id = $2`, chatID, userID)
	return affected(tag, err, "remove chat member")
}

// CreateMessage inserts only while the sender holds a membership row.
func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	const q = `INSERT INTO messages (chat_id, sender_id, content)
		SELECT $1, $2, $3
		WHERE EXISTS (SELECT 1 FROM chat_members WHERE chat_id = $1 AND user_id = $2)
		RETURNING id, created_at`
	err := s.db.QueryRow(ctx, q, m.ChatID, m.SenderID, m.Content).Scan(&m.ID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotMember
	}
	m.Deleted = false
	return translate("create message", err)
}

const messageColumns = `id, chat_id, sender_id, content, deleted, created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	if err := row.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.Deleted, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	m, err := scanMessage(s.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	return m, translate("get message", err)
}

func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `UPDATE messages SET deleted = TRUE, content = '' WHERE id = $1`, id)
	return affected(tag, err, "delete message")
}

func (s *Store) ListMessages(ctx context.Context, chatID int64, offset, limit int) ([]*models.Message, error) {
	rows, err := s.db.Query(ctx, `SELECT `+messageColumns+` FROM messages
		WHERE chat_id = $1 ORDER BY id OFFSET $2 LIMIT $3`, chatID, offset, limit)
	if err != nil {
		return nil, translate("list messages", err)
	}
	defer rows.Close()
	list := []*models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, translate("scan message", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, messageID, userID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `INSERT INTO read_receipts (message_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, user_id) DO NOTHING`, messageID, userID)
	if err != nil {
		return false, translate("mark read", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) CountUnread(ctx context.Context, chatID, userID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM messages m
		WHERE m.chat_id = $1 AND m.sender_id <> $2 AND NOT m.deleted
		AND NOT EXISTS (SELECT 1 FROM read_receipts r WHERE r.message_id = m.id AND r.user_id = $2)`
	var n int
	err := s.db.QueryRow(ctx, q, chatID, userID).Scan(&n)
	return n, translate("count unread", err)
}

func (s *Store) AddReaction(ctx context.Context, r *models.Reaction) error {
	const q = `INSERT INTO reactions (message_id, user_id, reaction)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := s.db.QueryRow(ctx, q, r.MessageID, r.UserID, r.Kind).Scan(&r.ID, &r.CreatedAt)
	return translate("add reaction", err)
}

func (s *Store) RemoveReaction(ctx context.Context, messageID, reactionID, userID int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM reactions WHERE id = $1 AND message_id = $2 AND user_id = $3`,
		reactionID, messageID, userID)
	return affected(tag, err, "remove reaction")
}

func (s *Store) ListReactions(ctx context.Context, messageIDs []int64) (map[int64][]models.Reaction, error) {
	out := make(map[int64][]models.Reaction, len(messageIDs))
	if len(messageIDs) == 0 {
		return out, nil
	}
	rows, err := s.db.Query(ctx, `SELECT id, message_id, user_id, reaction, created_at
		FROM reactions WHERE message_id = ANY($1) ORDER BY id`, messageIDs)
	if err != nil {
		return nil, translate("list reactions", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r models.Reaction
		if err := rows.Scan(&r.ID, &r.MessageID, &r.UserID, &r.Kind, &r.CreatedAt); err != nil {
			return nil, translate("scan reaction", err)
		}
		out[r.MessageID] = append(out[r.MessageID], r)
	}
	return out, rows.Err()
}
