package models

import "time"

// Category groups products. ID is the legacy integer key shared with the desktop app.
type Category struct {
	ID          int       `json:"id"`
	DocID       string    `json:"doc_id"`
	Name        string    `json:"name" validate:"required,max=100"`
	Description string    `json:"description" validate:"omitempty,max=500"`
	CreatedAt   time.Time `json:"created_at"`
}
