package models

import "time"

// User is the sender view attached to broadcast messages. User records are
// provisioned by the identity service; this service only reads them.
type User struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
