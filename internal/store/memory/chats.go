package memory

import (
	"context"
	"sort"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
)

func (s *Store) CreateChat(_ context.Context, c *models.Chat, members []models.ChatMember) error {
	s.chatsMu.Lock()
	defer s.chatsMu.Unlock()
	s.membersMu.Lock()
	defer s.membersMu.Unlock()

	c.ID = s.chatSeq.Add(1)
	c.CreatedAt = s.stamp()
	cp := *c
	s.chats[c.ID] = &cp

	byUser := make(map[int64]models.ChatMember, len(members))
	for i := range members {
		if _, dup := byUser[members[i].UserID]; dup {
			continue
		}
		members[i].ID = s.memberSeq.Add(1)
		members[i].ChatID = c.ID
		members[i].JoinedAt = c.CreatedAt
		byUser[members[i].UserID] = members[i]
	}
	s.members[c.ID] = byUser
	return nil
}

func (s *Store) GetChat(_ context.Context, id int64) (*models.Chat, error) {
	s.chatsMu.RLock()
	defer s.chatsMu.RUnlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) DeleteChat(_ context.Context, id int64) error {
	s.chatsMu.Lock()
	defer s.chatsMu.Unlock()
	if _, ok := s.chats[id]; !ok {
		return store.ErrNotFound
	}
	s.membersMu.Lock()
	defer s.membersMu.Unlock()
	s.messagesMu.Lock()
	defer s.messagesMu.Unlock()
	s.receiptsMu.Lock()
	defer s.receiptsMu.Unlock()
	s.reactionsMu.Lock()
	defer s.reactionsMu.Unlock()

	delete(s.chats, id)
	delete(s.members, id)
	for mid, m := range s.messages {
		if m.ChatID == id {
			delete(s.messages, mid)
			delete(s.receipts, mid)
			delete(s.reactions, mid)
		}
	}
	return nil
}

func (s *Store) ListChatsForUser(_ context.Context, userID int64) ([]*models.Chat, error) {
	s.chatsMu.RLock()
	defer s.chatsMu.RUnlock()
	s.membersMu.RLock()
	defer s.membersMu.RUnlock()
	var out []*models.Chat
	for chatID, byUser := range s.members {
		if _, ok := byUser[userID]; !ok {
			continue
		}
		if c, ok := s.chats[chatID]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListChatMembers(_ context.Context, chatID int64) ([]models.ChatMember, error) {
	s.membersMu.RLock()
	defer s.membersMu.RUnlock()
	out := make([]models.ChatMember, 0, len(s.members[chatID]))
	for _, m := range s.members[chatID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AddChatMember(_ context.Context, m *models.ChatMember) error {
	s.chatsMu.RLock()
	defer s.chatsMu.RUnlock()
	if _, ok := s.chats[m.ChatID]; !ok {
		return store.ErrNotFound
	}
	s.membersMu.Lock()
	defer s.membersMu.Unlock()
	byUser := s.members[m.ChatID]
	if byUser == nil {
		byUser = make(map[int64]models.ChatMember)
		s.members[m.ChatID] = byUser
	}
	if _, ok := byUser[m.UserID]; ok {
		return store.ErrDuplicate
	}
	m.ID = s.memberSeq.Add(1)
	m.JoinedAt = s.stamp()
	byUser[m.UserID] = *m
	return nil
}

func (s *Store) RemoveChatMember(_ context.Context, chatID, userID int64) error {
	s.membersMu.Lock()
	defer s.membersMu.Unlock()
	byUser := s.members[chatID]
	if _, ok := byUser[userID]; !ok {
		return store.ErrNotFound
	}
	delete(byUser, userID)
	return nil
}

// CreateMessage holds the members lock across the membership check and the
// insert so a concurrent removal cannot slip in between.
func (s *Store) CreateMessage(_ context.Context, m *models.Message) error {
	s.membersMu.RLock()
	defer s.membersMu.RUnlock()
	if _, ok := s.members[m.ChatID][m.SenderID]; !ok {
		return store.ErrNotMember
	}
	s.messagesMu.Lock()
	defer s.messagesMu.Unlock()
	m.ID = s.messageSeq.Add(1)
	m.CreatedAt = s.stamp()
	m.Deleted = false
	cp := *m
	s.messages[m.ID] = &cp
	s.messageIDs = append(s.messageIDs, m.ID)
	return nil
}

func (s *Store) GetMessage(_ context.Context, id int64) (*models.Message, error) {
	s.messagesMu.RLock()
	defer s.messagesMu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Store) DeleteMessage(_ context.Context, id int64) error {
	s.messagesMu.Lock()
	defer s.messagesMu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return store.ErrNotFound
	}
	m.Deleted = true
	m.Content = ""
	return nil
}

func (s *Store) ListMessages(_ context.Context, chatID int64, offset, limit int) ([]*models.Message, error) {
	s.messagesMu.RLock()
	defer s.messagesMu.RUnlock()
	var out []*models.Message
	for _, id := range s.messageIDs {
		m, ok := s.messages[id]
		if !ok || m.ChatID != chatID {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return window(out, offset, limit), nil
}

func (s *Store) MarkRead(_ context.Context, messageID, userID int64) (bool, error) {
	s.messagesMu.RLock()
	defer s.messagesMu.RUnlock()
	if _, ok := s.messages[messageID]; !ok {
		return false, store.ErrNotFound
	}
	s.receiptsMu.Lock()
	defer s.receiptsMu.Unlock()
	byUser := s.receipts[messageID]
	if byUser == nil {
		byUser = make(map[int64]models.ReadReceipt)
		s.receipts[messageID] = byUser
	}
	if _, ok := byUser[userID]; ok {
		return false, nil
	}
	byUser[userID] = models.ReadReceipt{MessageID: messageID, UserID: userID, ReadAt: s.stamp()}
	return true, nil
}

func (s *Store) CountUnread(_ context.Context, chatID, userID int64) (int, error) {
	s.messagesMu.RLock()
	defer s.messagesMu.RUnlock()
	s.receiptsMu.RLock()
	defer s.receiptsMu.RUnlock()
	n := 0
	for _, m := range s.messages {
		if m.ChatID != chatID || m.SenderID == userID || m.Deleted {
			continue
		}
		if _, read := s.receipts[m.ID][userID]; !read {
			n++
		}
	}
	return n, nil
}

func (s *Store) AddReaction(_ context.Context, r *models.Reaction) error {
	s.messagesMu.RLock()
	defer s.messagesMu.RUnlock()
	if _, ok := s.messages[r.MessageID]; !ok {
		return store.ErrNotFound
	}
	s.reactionsMu.Lock()
	defer s.reactionsMu.Unlock()
	r.ID = s.reactionSeq.Add(1)
	r.CreatedAt = s.stamp()
	s.reactions[r.MessageID] = append(s.reactions[r.MessageID], *r)
	return nil
}

func (s *Store) RemoveReaction(_ context.Context, messageID, reactionID, userID int64) error {
	s.reactionsMu.Lock()
	defer s.reactionsMu.Unlock()
	list := s.reactions[messageID]
	for i, r := range list {
		if r.ID == reactionID && r.UserID == userID {
			s.reactions[messageID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListReactions(_ context.Context, messageIDs []int64) (map[int64][]models.Reaction, error) {
	s.reactionsMu.RLock()
	defer s.reactionsMu.RUnlock()
	out := make(map[int64][]models.Reaction, len(messageIDs))
	for _, id := range messageIDs {
		out[id] = append([]models.Reaction(nil), s.reactions[id]...)
	}
	return out, nil
}
