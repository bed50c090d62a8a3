// Package models holds the persistent record types shared by repositories
// and services.
package models

import "time"

// User is a registered account. Username and Email are stored normalized
// (trimmed, lowercased); Username never changes after creation.
// PasswordHash is the bcrypt output, never the plaintext.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile is the joined projection returned by follower/following queries.
type Profile struct {
	Username string
	Email    string
}
