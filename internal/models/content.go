package models

import "time"

// Content kinds. Posts and events share one id space.
const (
	KindPost  = "post"
	KindEvent = "event"
)

// Post is a captioned image authored by a user or organization.
type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"image_url"`
	Location  *string   `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is a scheduled gathering. StartTime never exceeds EndTime.
type Event struct {
	ID          int64     `json:"id"`
	AuthorID    int64     `json:"author_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

// TimelineEntry holds exactly one of Post or Event.
type TimelineEntry struct {
	Post  *Post
	Event *Event
}

// ID returns the id of whichever content the entry holds.
func (e TimelineEntry) ID() int64 {
	if e.Post != nil {
		return e.Post.ID
	}
	return e.Event.ID
}

// CreatedAt returns the creation time of whichever content the entry holds.
func (e TimelineEntry) CreatedAt() time.Time {
	if e.Post != nil {
		return e.Post.CreatedAt
	}
	return e.Event.CreatedAt
}

// Comment is attached to a post (ParentID 0) or replies to another comment.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	ParentID  int64     `json:"parent_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
