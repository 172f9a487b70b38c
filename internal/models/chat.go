package models

import "time"

// ChatKind distinguishes direct messages from group chats.
type ChatKind string

const (
	ChatKindDM    ChatKind = "dm"
	ChatKindGroup ChatKind = "group"
)

// Chat member roles.
const (
	ChatRoleAdmin  = "admin"
	ChatRoleMember = "member"
)

// Chat is a conversation. Name and ImageURL are set for group chats only.
type Chat struct {
	ID        int64     `json:"id"`
	Kind      ChatKind  `json:"kind"`
	Name      string    `json:"name,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMember is an active membership. (ChatID, UserID) is unique.
type ChatMember struct {
	ID       int64     `json:"id"`
	ChatID   int64     `json:"chat_id"`
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Message is sent to a chat by one of its members.
type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}

// ReadReceipt records that UserID has read MessageID.
type ReadReceipt struct {
	MessageID int64     `json:"message_id"`
	UserID    int64     `json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

// Reaction is an emoji-style reaction. A user may hold several per message.
type Reaction struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"message_id"`
	UserID    int64     `json:"user_id"`
	Kind      string    `json:"reaction"`
	CreatedAt time.Time `json:"created_at"`
}
