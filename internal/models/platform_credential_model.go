package models

import (
	"time"
)

// PlatformCredential is deactivated on revocation, never deleted.
type PlatformCredential struct {
	ID          string    `db:"id" json:"id"`
	Platform    string    `db:"platform" json:"platform"`
	Credentials []byte    `db:"credentials" json:"-"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type PlatformStatus struct {
	Platform     string   `json:"platform"`
	Connected    bool     `json:"connected"`
	Capabilities []string `json:"capabilities"`
}
