package memory

import (
	"context"
	"sort"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
)

func clonePost(p *models.Post) *models.Post {
	cp := *p
	if p.Location != nil {
		loc := *p.Location
		cp.Location = &loc
	}
	return &cp
}

func (s *Store) CreatePost(_ context.Context, p *models.Post) error {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()
	p.ID = s.contentSeq.Add(1)
	p.CreatedAt = s.stamp()
	s.posts[p.ID] = clonePost(p)
	return nil
}

func (s *Store) GetPost(_ context.Context, id int64) (*models.Post, error) {
	s.postsMu.RLock()
	defer s.postsMu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clonePost(p), nil
}

func (s *Store) UpdatePost(_ context.Context, p *models.Post) error {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()
	cur, ok := s.posts[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	p.CreatedAt = cur.CreatedAt
	s.posts[p.ID] = clonePost(p)
	return nil
}

func (s *Store) DeletePost(_ context.Context, id int64) error {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *Store) ListPostsByAuthor(_ context.Context, authorID int64) ([]*models.Post, error) {
	s.postsMu.RLock()
	defer s.postsMu.RUnlock()
	var out []*models.Post
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SearchPosts(_ context.Context, query string) ([]*models.Post, error) {
	s.postsMu.RLock()
	defer s.postsMu.RUnlock()
	var out []*models.Post
	for _, p := range s.posts {
		if matches(p.Caption, query) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateEvent(_ context.Context, e *models.Event) error {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	e.ID = s.contentSeq.Add(1)
	e.CreatedAt = s.stamp()
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *Store) GetEvent(_ context.Context, id int64) (*models.Event, error) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *Store) UpdateEvent(_ context.Context, e *models.Event) error {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	cur, ok := s.events[e.ID]
	if !ok {
		return store.ErrNotFound
	}
	e.CreatedAt = cur.CreatedAt
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, id int64) error {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	if _, ok := s.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *Store) SearchEvents(_ context.Context, query string) ([]*models.Event, error) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	var out []*models.Event
	for _, e := range s.events {
		if matches(e.Title, query) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// snapshotTimeline copies every post and event under their read locks,
// one table at a time, and sorts the merged result.
func (s *Store) snapshotTimeline() []models.TimelineEntry {
	s.postsMu.RLock()
	entries := make([]models.TimelineEntry, 0, len(s.posts))
	for _, p := range s.posts {
		entries = append(entries, models.TimelineEntry{Post: clonePost(p)})
	}
	s.postsMu.RUnlock()

	s.eventsMu.RLock()
	for _, e := range s.events {
		cp := *e
		entries = append(entries, models.TimelineEntry{Event: &cp})
	}
	s.eventsMu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		ti, tj := entries[i].CreatedAt(), entries[j].CreatedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return entries[i].ID() > entries[j].ID()
	})
	return entries
}

func (s *Store) ListTimeline(_ context.Context, offset, limit int) ([]models.TimelineEntry, error) {
	return window(s.snapshotTimeline(), offset, limit), nil
}

func (s *Store) CountTimeline(_ context.Context) (int, error) {
	s.postsMu.RLock()
	n := len(s.posts)
	s.postsMu.RUnlock()
	s.eventsMu.RLock()
	n += len(s.events)
	s.eventsMu.RUnlock()
	return n, nil
}
