package models

import "time"

// RevokedToken is a denylist entry keyed by the token id (jti). It only
// needs to outlive the token it revokes.
type RevokedToken struct {
	JTI       string
	ExpiresAt time.Time
}
