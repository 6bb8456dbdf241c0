package domain

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName is the name shown for the user, falling back to the email.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

type Credentials struct {
	Email    string
	Password string
}

type Registration struct {
	Email    string
	Username string
	Password string
}
