package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
)

// markAttempts bounds the insert/inspect loop when the held mark is removed
// between the two statements.
const markAttempts = 3

// Mark relies on the (slot, target_id, actor_id) primary key: the insert
// either claims the slot or leaves the current holder untouched.
func (s *Store) Mark(ctx context.Context, rel models.Relation, targetID, actorID int64) (bool, error) {
	const insert = `INSERT INTO marks (slot, relation, target_id, actor_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slot, target_id, actor_id) DO NOTHING
		RETURNING relation`
	const held = `SELECT relation FROM marks WHERE slot = $1 AND target_id = $2 AND actor_id = $3`

	for attempt := 0; attempt < markAttempts; attempt++ {
		var got string
		err := s.db.QueryRow(ctx, insert, rel.Slot(), string(rel), targetID, actorID).Scan(&got)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return false, translate("insert mark", err)
		}
		err = s.db.QueryRow(ctx, held, rel.Slot(), targetID, actorID).Scan(&got)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return false, translate("read mark", err)
		}
		if models.Relation(got) != rel {
			return false, store.ErrConflict
		}
		return false, nil
	}
	return false, errors.New("insert mark: slot kept changing")
}

func (s *Store) Unmark(ctx context.Context, rel models.Relation, targetID, actorID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM marks WHERE relation = $1 AND target_id = $2 AND actor_id = $3`,
		string(rel), targetID, actorID)
	if err != nil {
		return false, translate("delete mark", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) listIDs(ctx context.Context, op, q string, args ...any) ([]int64, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, translate(op, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListActors(ctx context.Context, rel models.Relation, targetID int64) ([]int64, error) {
	return s.listIDs(ctx, "list actors",
		`SELECT actor_id FROM marks WHERE relation = $1 AND target_id = $2 ORDER BY created_at, actor_id`,
		string(rel), targetID)
}

func (s *Store) ListTargets(ctx context.Context, rel models.Relation, actorID int64) ([]int64, error) {
	return s.listIDs(ctx, "list targets",
		`SELECT target_id FROM marks WHERE relation = $1 AND actor_id = $2 ORDER BY created_at, target_id`,
		string(rel), actorID)
}

func (s *Store) SummarizeMarks(ctx context.Context, rels []models.Relation, targetIDs []int64, viewerID int64) (map[int64]store.MarkSummary, error) {
	out := make(map[int64]store.MarkSummary, len(targetIDs))
	for _, id := range targetIDs {
		out[id] = store.MarkSummary{Counts: map[models.Relation]int{}, Viewer: map[models.Relation]bool{}}
	}
	if len(targetIDs) == 0 || len(rels) == 0 {
		return out, nil
	}
	const q = `SELECT target_id, relation, COUNT(*), BOOL_OR(actor_id = $3)
		FROM marks
		WHERE relation = ANY($1) AND target_id = ANY($2)
		GROUP BY target_id, relation`
	names := lo.Map(rels, func(r models.Relation, _ int) string { return string(r) })
	rows, err := s.db.Query(ctx, q, names, targetIDs, viewerID)
	if err != nil {
		return nil, translate("summarize marks", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			targetID int64
			relation string
			count    int
			mine     bool
		)
		if err := rows.Scan(&targetID, &relation, &count, &mine); err != nil {
			return nil, translate("scan mark summary", err)
		}
		sum, ok := out[targetID]
		if !ok {
			continue
		}
		sum.Counts[models.Relation(relation)] = count
		sum.Viewer[models.Relation(relation)] = mine
	}
	return out, rows.Err()
}
