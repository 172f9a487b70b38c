package memory

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
)

func keyOf(rel models.Relation, targetID, actorID int64) markKey {
	return markKey{slot: rel.Slot(), targetID: targetID, actorID: actorID}
}

// Mark checks the slot and inserts under one write lock, so two concurrent
// callers can never both create a row or break mutual exclusion.
func (s *Store) Mark(_ context.Context, rel models.Relation, targetID, actorID int64) (bool, error) {
	key := keyOf(rel, targetID, actorID)
	s.marksMu.Lock()
	defer s.marksMu.Unlock()
	if held, ok := s.marks[key]; ok {
		if held.Relation != rel {
			return false, store.ErrConflict
		}
		return false, nil
	}
	s.marks[key] = models.Mark{Relation: rel, TargetID: targetID, ActorID: actorID, CreatedAt: s.stamp()}
	return true, nil
}

func (s *Store) Unmark(_ context.Context, rel models.Relation, targetID, actorID int64) (bool, error) {
	key := keyOf(rel, targetID, actorID)
	s.marksMu.Lock()
	defer s.marksMu.Unlock()
	held, ok := s.marks[key]
	if !ok || held.Relation != rel {
		return false, nil
	}
	delete(s.marks, key)
	return true, nil
}

func (s *Store) collectMarks(keep func(models.Mark) bool) []models.Mark {
	s.marksMu.RLock()
	defer s.marksMu.RUnlock()
	var out []models.Mark
	for _, m := range s.marks {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if out[i].TargetID != out[j].TargetID {
			return out[i].TargetID < out[j].TargetID
		}
		return out[i].ActorID < out[j].ActorID
	})
	return out
}

func (s *Store) ListActors(_ context.Context, rel models.Relation, targetID int64) ([]int64, error) {
	marks := s.collectMarks(func(m models.Mark) bool { return m.Relation == rel && m.TargetID == targetID })
	return lo.Map(marks, func(m models.Mark, _ int) int64 { return m.ActorID }), nil
}

func (s *Store) ListTargets(_ context.Context, rel models.Relation, actorID int64) ([]int64, error) {
	marks := s.collectMarks(func(m models.Mark) bool { return m.Relation == rel && m.ActorID == actorID })
	return lo.Map(marks, func(m models.Mark, _ int) int64 { return m.TargetID }), nil
}

func (s *Store) SummarizeMarks(_ context.Context, rels []models.Relation, targetIDs []int64, viewerID int64) (map[int64]store.MarkSummary, error) {
	out := make(map[int64]store.MarkSummary, len(targetIDs))
	for _, id := range targetIDs {
		out[id] = store.MarkSummary{Counts: map[models.Relation]int{}, Viewer: map[models.Relation]bool{}}
	}
	s.marksMu.RLock()
	defer s.marksMu.RUnlock()
	for _, m := range s.marks {
		sum, ok := out[m.TargetID]
		if !ok || !lo.Contains(rels, m.Relation) {
			continue
		}
		sum.Counts[m.Relation]++
		if m.ActorID == viewerID {
			sum.Viewer[m.Relation] = true
		}
	}
	return out, nil
}
