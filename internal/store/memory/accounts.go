package memory

import (
	"context"
	"sort"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
)

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	if _, taken := s.usernames[u.Username]; taken {
		return store.ErrDuplicate
	}
	u.ID = s.accountSeq.Add(1)
	u.CreatedAt = s.stamp()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	s.usernames[u.Username] = u.ID
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()
	id, ok := s.usernames[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *Store) GetUsers(_ context.Context, ids []int64) ([]*models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	if owner, taken := s.usernames[u.Username]; taken && owner != u.ID {
		return store.ErrDuplicate
	}
	delete(s.usernames, cur.Username)
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = s.stamp()
	cp := *u
	s.users[u.ID] = &cp
	s.usernames[u.Username] = u.ID
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.usernames, u.Username)
	delete(s.users, id)
	return nil
}

func (s *Store) SearchUsers(_ context.Context, query string) ([]*models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()
	var out []*models.User
	for _, u := range s.users {
		if matches(u.Username, query) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateOrganization(_ context.Context, o *models.Organization) error {
	s.orgsMu.Lock()
	defer s.orgsMu.Unlock()
	o.ID = s.accountSeq.Add(1)
	o.CreatedAt = s.stamp()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	s.orgs[o.ID] = &cp
	return nil
}

func (s *Store) GetOrganization(_ context.Context, id int64) (*models.Organization, error) {
	s.orgsMu.RLock()
	defer s.orgsMu.RUnlock()
	o, ok := s.orgs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *Store) GetOrganizations(_ context.Context, ids []int64) ([]*models.Organization, error) {
	s.orgsMu.RLock()
	defer s.orgsMu.RUnlock()
	out := make([]*models.Organization, 0, len(ids))
	for _, id := range ids {
		if o, ok := s.orgs[id]; ok {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) UpdateOrganization(_ context.Context, id int64, patch store.OrganizationPatch) (*models.Organization, error) {
	s.orgsMu.Lock()
	defer s.orgsMu.Unlock()
	cur, ok := s.orgs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	next := *cur
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.ParentID != nil && *patch.ParentID != cur.ParentID {
		if err := s.checkAncestry(id, *patch.ParentID); err != nil {
			return nil, err
		}
		next.ParentID = *patch.ParentID
	}
	next.UpdatedAt = s.stamp()
	s.orgs[id] = &next
	out := next
	return &out, nil
}

// checkAncestry walks up from parentID looking for id. Callers hold orgsMu.
// The chain stops at a root or at an ancestor that no longer exists.
func (s *Store) checkAncestry(id, parentID int64) error {
	if parentID == 0 {
		return nil
	}
	if _, ok := s.orgs[parentID]; !ok {
		return store.ErrNotFound
	}
	seen := map[int64]bool{}
	for cur := parentID; cur != 0; {
		if cur == id || seen[cur] {
			return store.ErrCycle
		}
		seen[cur] = true
		o, ok := s.orgs[cur]
		if !ok {
			return nil
		}
		cur = o.ParentID
	}
	return nil
}

func (s *Store) DeleteOrganization(_ context.Context, id int64) error {
	s.orgsMu.Lock()
	defer s.orgsMu.Unlock()
	if _, ok := s.orgs[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.orgs, id)
	return nil
}

func (s *Store) ListOrganizationsByParent(_ context.Context, parentID int64) ([]*models.Organization, error) {
	s.orgsMu.RLock()
	defer s.orgsMu.RUnlock()
	var out []*models.Organization
	for _, o := range s.orgs {
		if o.ParentID == parentID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SearchOrganizations(_ context.Context, query string) ([]*models.Organization, error) {
	s.orgsMu.RLock()
	defer s.orgsMu.RUnlock()
	var out []*models.Organization
	for _, o := range s.orgs {
		if o.ParentID == 0 && matches(o.Name, query) {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateFeedback(_ context.Context, f *models.Feedback) error {
	s.feedbackMu.Lock()
	defer s.feedbackMu.Unlock()
	f.ID = s.feedbackSeq.Add(1)
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.stamp()
	}
	s.feedback = append(s.feedback, *f)
	return nil
}

// Feedback returns a copy of every stored submission in insertion order.
func (s *Store) Feedback() []models.Feedback {
	s.feedbackMu.Lock()
	defer s.feedbackMu.Unlock()
	return append([]models.Feedback(nil), s.feedback...)
}
