package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/onechurch/backend/internal/models"
)

const postColumns = `id, author_id, caption, image_url, location, created_at`

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Caption, &p.ImageURL, &p.Location, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPosts(rows pgx.Rows, err error) ([]*models.Post, error) {
	if err != nil {
		return nil, translate("query posts", err)
	}
	defer rows.Close()
	var list []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, translate("scan post", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	const q = `INSERT INTO posts (author_id, caption, image_url, location)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := s.db.QueryRow(ctx, q, p.AuthorID, p.Caption, p.ImageURL, p.Location).Scan(&p.ID, &p.CreatedAt)
	return translate("create post", err)
}

func (s *Store) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	return p, translate("get post", err)
}

func (s *Store) UpdatePost(ctx context.Context, p *models.Post) error {
	const q = `UPDATE posts SET author_id = $2, caption = $3, image_url = $4, location = $5
		WHERE id = $1
		RETURNING created_at`
	err := s.db.QueryRow(ctx, q, p.ID, p.AuthorID, p.Caption, p.ImageURL, p.Location).Scan(&p.CreatedAt)
	return translate("update post", err)
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return affected(tag, err, "delete post")
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error) {
	return collectPosts(s.db.Query(ctx, `SELECT `+postColumns+` FROM posts WHERE author_id = $1 ORDER BY id`, authorID))
}

func (s *Store) SearchPosts(ctx context.Context, query string) ([]*models.Post, error) {
	return collectPosts(s.db.Query(ctx, `SELECT `+postColumns+` FROM posts WHERE caption ILIKE $1 ORDER BY id`, likePattern(query)))
}

const eventColumns = `id, author_id, title, description, image_url, start_time, end_time, location, created_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	if err := row.Scan(&e.ID, &e.AuthorID, &e.Title, &e.Description, &e.ImageURL,
		&e.StartTime, &e.EndTime, &e.Location, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (author_id, title, description, image_url, start_time, end_time, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := s.db.QueryRow(ctx, q, e.AuthorID, e.Title, e.Description, e.ImageURL, e.StartTime, e.EndTime, e.Location).
		Scan(&e.ID, &e.CreatedAt)
	return translate("create event", err)
}

func (s *Store) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	e, err := scanEvent(s.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	return e, translate("get event", err)
}

func (s *Store) UpdateEvent(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events SET author_id = $2, title = $3, description = $4, image_url = $5,
			start_time = $6, end_time = $7, location = $8
		WHERE id = $1
		RETURNING created_at`
	err := s.db.QueryRow(ctx, q, e.ID, e.AuthorID, e.Title, e.Description, e.ImageURL, e.StartTime, e.EndTime, e.Location).
		Scan(&e.CreatedAt)
	return translate("update event", err)
}

func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	return affected(tag, err, "delete event")
}

func (s *Store) SearchEvents(ctx context.Context, query string) ([]*models.Event, error) {
	rows, err := s.db.Query(ctx, `SELECT `+eventColumns+` FROM events WHERE title ILIKE $1 ORDER BY id`, likePattern(query))
	if err != nil {
		return nil, translate("search events", err)
	}
	defer rows.Close()
	var list []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, translate("scan event", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// timelineQuery merges posts and events into one ordered stream.
const timelineQuery = `SELECT kind, id, author_id, caption, title, description, image_url,
		post_location, event_location, start_time, end_time, created_at
	FROM (
		SELECT 'post' AS kind, id, author_id, caption, '' AS title, '' AS description, image_url,
			location AS post_location, '' AS event_location,
			NULL::timestamptz AS start_time, NULL::timestamptz AS end_time, created_at
		FROM posts
		UNION ALL
		SELECT 'event', id, author_id, '', title, description, image_url,
			NULL, location, start_time, end_time, created_at
		FROM events
	) t
	ORDER BY created_at DESC, id DESC
	OFFSET $1 LIMIT $2`

func (s *Store) ListTimeline(ctx context.Context, offset, limit int) ([]models.TimelineEntry, error) {
	rows, err := s.db.Query(ctx, timelineQuery, offset, limit)
	if err != nil {
		return nil, translate("list timeline", err)
	}
	defer rows.Close()
	entries := []models.TimelineEntry{}
	for rows.Next() {
		var (
			kind, caption, title, description, imageURL, eventLocation string
			id, authorID                                               int64
			postLocation                                               *string
			start, end                                                 *time.Time
			createdAt                                                  time.Time
		)
		if err := rows.Scan(&kind, &id, &authorID, &caption, &title, &description, &imageURL,
			&postLocation, &eventLocation, &start, &end, &createdAt); err != nil {
			return nil, translate("scan timeline", err)
		}
		if kind == models.KindPost {
			entries = append(entries, models.TimelineEntry{Post: &models.Post{
				ID: id, AuthorID: authorID, Caption: caption, ImageURL: imageURL,
				Location: postLocation, CreatedAt: createdAt,
			}})
			continue
		}
		e := &models.Event{
			ID: id, AuthorID: authorID, Title: title, Description: description, ImageURL: imageURL,
			Location: eventLocation, CreatedAt: createdAt,
		}
		if start != nil {
			e.StartTime = *start
		}
		if end != nil {
			e.EndTime = *end
		}
		entries = append(entries, models.TimelineEntry{Event: e})
	}
	return entries, rows.Err()
}

func (s *Store) CountTimeline(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT (SELECT COUNT(*) FROM posts) + (SELECT COUNT(*) FROM events)`).Scan(&n)
	return n, translate("count timeline", err)
}
