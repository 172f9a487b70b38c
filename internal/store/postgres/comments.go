package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
)

const commentColumns = `id, post_id, parent_id, author_id, content, created_at`

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	if err := row.Scan(&c.ID, &c.PostID, &c.ParentID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	const q = `INSERT INTO comments (post_id, parent_id, author_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := s.db.QueryRow(ctx, q, c.PostID, c.ParentID, c.AuthorID, c.Content).Scan(&c.ID, &c.CreatedAt)
	return translate("create comment", err)
}

func (s *Store) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	return c, translate("get comment", err)
}

func (s *Store) UpdateComment(ctx context.Context, id int64, content string) error {
	tag, err := s.db.Exec(ctx, `UPDATE comments SET content = $2 WHERE id = $1`, id, content)
	return affected(tag, err, "update comment")
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return affected(tag, err, "delete comment")
}

func (s *Store) ListComments(ctx context.Context, f store.CommentFilter) ([]*models.Comment, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if f.ParentID == 0 {
		rows, err = s.db.Query(ctx, `SELECT `+commentColumns+` FROM comments
			WHERE post_id = $1 AND parent_id = 0
			ORDER BY id OFFSET $2 LIMIT $3`, f.PostID, f.Offset, f.Limit)
	} else {
		rows, err = s.db.Query(ctx, `SELECT `+commentColumns+` FROM comments
			WHERE parent_id = $1
			ORDER BY id OFFSET $2 LIMIT $3`, f.ParentID, f.Offset, f.Limit)
	}
	if err != nil {
		return nil, translate("list comments", err)
	}
	defer rows.Close()
	list := []*models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, translate("scan comment", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (s *Store) countBy(ctx context.Context, op, q string, ids []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(ids))
	for _, id := range ids {
		out[id] = 0
	}
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.Query(ctx, q, ids)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id int64
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, translate(op, err)
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (s *Store) CountReplies(ctx context.Context, parentIDs []int64) (map[int64]int, error) {
	return s.countBy(ctx, "count replies",
		`SELECT parent_id, COUNT(*) FROM comments WHERE parent_id = ANY($1) GROUP BY parent_id`, parentIDs)
}

func (s *Store) CountTopLevel(ctx context.Context, postIDs []int64) (map[int64]int, error) {
	return s.countBy(ctx, "count comments",
		`SELECT post_id, COUNT(*) FROM comments WHERE parent_id = 0 AND post_id = ANY($1) GROUP BY post_id`, postIDs)
}
