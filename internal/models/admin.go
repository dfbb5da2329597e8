package models

import "time"

// AdminFlag grants admin capability by existence: a row for a user id means
// that user may write. There is no boolean to flip; revoking deletes the row.
type AdminFlag struct {
	UserID    string    `db:"user_id" json:"user_id"`
	AddedBy   string    `db:"added_by" json:"added_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
