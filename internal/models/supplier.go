package models

import "time"

// Supplier provides products. ID is the legacy integer key shared with the desktop app.
type Supplier struct {
	ID        int       `json:"id"`
	DocID     string    `json:"doc_id"`
	Name      string    `json:"name" validate:"required,max=100"`
	Telephone string    `json:"telephone" validate:"omitempty,max=30"`
	Email     string    `json:"email" validate:"omitempty,email"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}
