package users

import (
	"context"

	"licensebot/internal/db/proxy"
)

// Repository persists bot users through the database proxy.
type Repository struct {
	db *proxy.Client
}

// NewRepository creates the users repository.
func NewRepository(db *proxy.Client) *Repository {
	return &Repository{db: db}
}

// Save upserts a user record.
func (r *Repository) Save(ctx context.Context, u User) error {
	return r.db.Call(ctx, "saveBotUser", proxy.Params{
		"chat_id":    u.ChatID,
		"first_name": u.FirstName,
		"username":   u.Username,
	}, nil)
}

// Total returns how many users ever started the bot.
func (r *Repository) Total(ctx context.Context) (int, error) {
	var resp struct {
		Total int `json:"total"`
	}
	if err := r.db.Call(ctx, "getTotalBotUsers", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// All returns every registered user.
func (r *Repository) All(ctx context.Context) ([]User, error) {
	var resp struct {
		Users []User `json:"users"`
	}
	if err := r.db.Call(ctx, "getAllBotUsers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}
