// Package users tracks everyone who ever started the bot, for the admin
// stats and broadcast fan-out.
package users

// User is one registered bot user.
type User struct {
	ChatID    int64  `json:"chat_id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}
