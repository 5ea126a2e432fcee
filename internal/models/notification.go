package models

import "time"

// Notification is an in-app message persisted for a student. Delivery to
// external channels (email, push) is handled outside this service.
type Notification struct {
	ID          string    `db:"id" json:"id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	Title       string    `db:"title" json:"title"`
	Message     string    `db:"message" json:"message"`
	Read        bool      `db:"read" json:"read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NotificationFilter constrains notification listing queries.
type NotificationFilter struct {
	RecipientID string
	UnreadOnly  bool
	Page        int
	PageSize    int
}
