package models

import "time"

const SessionPending = "pending"

// LoginSession tracks an external login flow keyed by its nonce.
type LoginSession struct {
	Nonce     string    `json:"nonce"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
