package memory

import (
	"context"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
)

func (s *Store) CreateComment(_ context.Context, c *models.Comment) error {
	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()
	c.ID = s.commentSeq.Add(1)
	c.CreatedAt = s.stamp()
	cp := *c
	s.comments[c.ID] = &cp
	s.commentIDs = append(s.commentIDs, c.ID)
	return nil
}

func (s *Store) GetComment(_ context.Context, id int64) (*models.Comment, error) {
	s.commentsMu.RLock()
	defer s.commentsMu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) UpdateComment(_ context.Context, id int64, content string) error {
	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Content = content
	return nil
}

func (s *Store) DeleteComment(_ context.Context, id int64) error {
	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

// ListComments walks ids in insertion order, which is id order because ids
// are assigned under the same lock that appends them.
func (s *Store) ListComments(_ context.Context, f store.CommentFilter) ([]*models.Comment, error) {
	s.commentsMu.RLock()
	defer s.commentsMu.RUnlock()
	var out []*models.Comment
	for _, id := range s.commentIDs {
		c, ok := s.comments[id]
		if !ok {
			continue
		}
		if f.ParentID == 0 && (c.ParentID != 0 || c.PostID != f.PostID) {
			continue
		}
		if f.ParentID != 0 && c.ParentID != f.ParentID {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return window(out, f.Offset, f.Limit), nil
}

func (s *Store) CountReplies(_ context.Context, parentIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(parentIDs))
	for _, id := range parentIDs {
		out[id] = 0
	}
	s.commentsMu.RLock()
	defer s.commentsMu.RUnlock()
	for _, c := range s.comments {
		if n, ok := out[c.ParentID]; ok && c.ParentID != 0 {
			out[c.ParentID] = n + 1
		}
	}
	return out, nil
}

func (s *Store) CountTopLevel(_ context.Context, postIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(postIDs))
	for _, id := range postIDs {
		out[id] = 0
	}
	s.commentsMu.RLock()
	defer s.commentsMu.RUnlock()
	for _, c := range s.comments {
		if n, ok := out[c.PostID]; ok && c.ParentID == 0 {
			out[c.PostID] = n + 1
		}
	}
	return out, nil
}
