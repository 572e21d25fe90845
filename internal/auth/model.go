package auth

import "time"

// Token is an opaque bearer key bound one-to-one to a user. There is at
// most one live token per user; issuing again returns the existing key.
type Token struct {
	ID        int64
	Key       string
	UserID    int64
	CreatedAt time.Time
}
