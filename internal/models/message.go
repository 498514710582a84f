package models

import "time"

// Message types.
const (
	MessageTypeText  = "TEXT"
	MessageTypeImage = "IMAGE"
	MessageTypeFile  = "FILE"
)

// Message belongs to exactly one chat: either SingleChatID or GroupID is set,
// never both, never neither (enforced by a check constraint). Deletion is
// soft: DeletedAt is stamped and the row is retained.
type Message struct {
	ID              string     `db:"id" json:"id"`
	SenderID        string     `db:"sender_id" json:"senderId"`
	SingleChatID    *string    `db:"single_chat_id" json:"singleChatId"`
	GroupID         *string    `db:"group_id" json:"groupId"`
	Content         string     `db:"content" json:"content"`
	MessageType     string     `db:"message_type" json:"messageType"`
	ParentMessageID *string    `db:"parent_message_id" json:"parentMessageId"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	EditedAt        *time.Time `db:"edited_at" json:"editedAt"`
	DeletedAt       *time.Time `db:"deleted_at" json:"deletedAt"`
}

// MessageView is the denormalized client view: the message plus its sender.
type MessageView struct {
	Message
	Sender User `json:"sender"`
}
