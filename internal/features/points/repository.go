package points

import (
	"context"

	"licensebot/internal/db/proxy"
)

// Repository stores ledger movements through the database proxy. Balances
// are derived server-side from the ledger, never written directly.
type Repository struct {
	db *proxy.Client
}

// NewRepository creates the points repository.
func NewRepository(db *proxy.Client) *Repository {
	return &Repository{db: db}
}

// Balance returns the derived points balance for a chat.
func (r *Repository) Balance(ctx context.Context, chatID int64) (int64, error) {
	var resp struct {
		Points int64 `json:"points"`
	}
	if err := r.db.Call(ctx, "getUserPoints", proxy.Params{"chat_id": chatID}, &resp); err != nil {
		return 0, err
	}
	return resp.Points, nil
}

// Credit appends a positive movement.
func (r *Repository) Credit(ctx context.Context, chatID, amount int64, description string) error {
	return r.db.Call(ctx, "addUserPoints", proxy.Params{
		"chat_id":     chatID,
		"points":      amount,
		"description": description,
	}, nil)
}

// Debit appends a negative movement. The store checks the balance and the
// append atomically; redeemed=false means the balance was insufficient and
// nothing was written.
func (r *Repository) Debit(ctx context.Context, chatID, amount int64, description string) (bool, error) {
	var resp struct {
		Redeemed bool `json:"redeemed"`
	}
	if err := r.db.Call(ctx, "redeemUserPoints", proxy.Params{
		"chat_id":     chatID,
		"points":      amount,
		"description": description,
	}, &resp); err != nil {
		return false, err
	}
	return resp.Redeemed, nil
}
