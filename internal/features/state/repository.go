package state

import (
	"context"

	"licensebot/internal/db/proxy"
)

// Repository persists conversation state through the database proxy.
type Repository struct {
	db *proxy.Client
}

// NewRepository creates the state repository.
func NewRepository(db *proxy.Client) *Repository {
	return &Repository{db: db}
}

// Save stores (or replaces) the state for a chat.
func (r *Repository) Save(ctx context.Context, chatID int64, st *State) error {
	payload := st.Payload
	if payload == nil {
		payload = map[string]string{}
	}
	return r.db.Call(ctx, "saveUserState", proxy.Params{
		"chat_id":     chatID,
		"state":       st.Name,
		"payload":     payload,
		"error_count": st.ErrorCount,
	}, nil)
}

// Get returns the active state for a chat, nil when none is set.
func (r *Repository) Get(ctx context.Context, chatID int64) (*State, error) {
	var resp struct {
		State *State `json:"state"`
	}
	if err := r.db.Call(ctx, "getUserState", proxy.Params{"chat_id": chatID}, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

// Clear removes any state for a chat. Clearing a chat without state is a no-op.
func (r *Repository) Clear(ctx context.Context, chatID int64) error {
	return r.db.Call(ctx, "clearUserState", proxy.Params{"chat_id": chatID}, nil)
}
