package broadcast

import (
	"context"

	"licensebot/internal/db/proxy"
)

// Repository persists the admin prompt state and the broadcast history.
type Repository struct {
	db *proxy.Client
}

// NewRepository creates the broadcast repository.
func NewRepository(db *proxy.Client) *Repository {
	return &Repository{db: db}
}

// SaveAdminState records what the admin's next message means.
func (r *Repository) SaveAdminState(ctx context.Context, chatID int64, state string) error {
	return r.db.Call(ctx, "saveAdminState", proxy.Params{
		"chat_id": chatID,
		"state":   state,
	}, nil)
}

// AdminState returns the admin's prompt state, "" when idle.
func (r *Repository) AdminState(ctx context.Context, chatID int64) (string, error) {
	var resp struct {
		State string `json:"state"`
	}
	if err := r.db.Call(ctx, "getAdminState", proxy.Params{"chat_id": chatID}, &resp); err != nil {
		return "", err
	}
	return resp.State, nil
}

// ClearAdminState resets the admin to idle.
func (r *Repository) ClearAdminState(ctx context.Context, chatID int64) error {
	return r.db.Call(ctx, "clearAdminState", proxy.Params{"chat_id": chatID}, nil)
}

// SaveHistory records one completed fan-out.
func (r *Repository) SaveHistory(ctx context.Context, adminID int64, kind, messageType string, rep Report) error {
	return r.db.Call(ctx, "saveBroadcastHistory", proxy.Params{
		"admin_id":     adminID,
		"kind":         kind,
		"message_type": messageType,
		"total":        rep.Total,
		"sent":         rep.Sent,
		"failed":       rep.Failed,
	}, nil)
}
