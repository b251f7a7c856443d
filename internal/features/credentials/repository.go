package credentials

import (
	"context"

	"licensebot/internal/db/proxy"
)

// Repository checks username existence through the database proxy.
type Repository struct {
	db *proxy.Client
}

// NewRepository creates the credentials repository.
func NewRepository(db *proxy.Client) *Repository {
	return &Repository{db: db}
}

// UsernameExists reports whether a username is already taken in a table.
func (r *Repository) UsernameExists(ctx context.Context, table, username string) (bool, error) {
	var resp struct {
		Exists bool `json:"exists"`
	}
	if err := r.db.Call(ctx, "isUsernameExists", proxy.Params{
		"username": username,
		"table":    table,
	}, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}
