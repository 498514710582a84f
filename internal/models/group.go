package models

import "time"

// Group member roles.
const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Group represents a group chat owned by a single user.
type Group struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	OwnerID   string    `db:"owner_id" json:"ownerId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// GroupMember is one membership record. A member is active while LeftAt is
// null; leaving sets the timestamp and keeps the row.
type GroupMember struct {
	ID        string     `db:"id" json:"id"`
	GroupID   string     `db:"group_id" json:"groupId"`
	UserID    string     `db:"user_id" json:"userId"`
	Role      string     `db:"role" json:"role"`
	JoinedAt  time.Time  `db:"joined_at" json:"joinedAt"`
	LeftAt    *time.Time `db:"left_at" json:"leftAt"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// Active reports whether the membership has not been ended.
func (m GroupMember) Active() bool {
	return m.LeftAt == nil
}
