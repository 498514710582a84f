package models

import "time"

// SingleChat represents a private chat between exactly two users. The
// participant pair is stored with the smaller id first so a pair maps to at
// most one row.
type SingleChat struct {
	ID        string    `db:"id" json:"id"`
	User1ID   string    `db:"user1_id" json:"user1Id"`
	User2ID   string    `db:"user2_id" json:"user2Id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// HasParticipant reports whether the user is one of the two chat members.
func (c SingleChat) HasParticipant(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// ChatTarget addresses either a single chat or a group. Every realtime
// payload carries one; it is valid only when exactly one id is set.
type ChatTarget struct {
	SingleChatID string `json:"singleChatId,omitempty"`
	GroupID      string `json:"groupId,omitempty"`
}

// Valid reports whether exactly one of the two ids is present.
func (t ChatTarget) Valid() bool {
	return (t.SingleChatID != "") != (t.GroupID != "")
}

// IsSingle reports whether the target addresses a single chat.
func (t ChatTarget) IsSingle() bool {
	return t.SingleChatID != "" && t.GroupID == ""
}

// Room returns the canonical broadcast room identifier for the target.
// Rooms are derived, never stored.
func (t ChatTarget) Room() string {
	if t.IsSingle() {
		return "single:" + t.SingleChatID
	}
	return "group:" + t.GroupID
}

// Kind returns "single" or "group", used as a metrics label.
func (t ChatTarget) Kind() string {
	if t.IsSingle() {
		return "single"
	}
	return "group"
}
