package orders

import (
	"context"

	"licensebot/internal/db/proxy"
)

// Repository persists orders, licenses and the cleanup-task registrations
// tied to an order's payment message.
type Repository struct {
	db *proxy.Client
}

// NewRepository creates the orders repository.
func NewRepository(db *proxy.Client) *Repository {
	return &Repository{db: db}
}

// SavePending stores a new order. The store records it as pending and stamps
// created_at server-side.
func (r *Repository) SavePending(ctx context.Context, o *Order) error {
	return r.db.Call(ctx, "savePendingOrder", proxy.Params{
		"order_id":        o.OrderID,
		"chat_id":         o.ChatID,
		"game_type":       o.GameType,
		"duration":        o.Duration,
		"amount":          o.Amount,
		"deposit_code":    o.DepositCode,
		"key_type":        o.KeyType,
		"manual_username": o.ManualUsername,
		"manual_password": o.ManualPassword,
	}, nil)
}

// Pending returns the chat's pending order, nil when there is none.
func (r *Repository) Pending(ctx context.Context, chatID int64) (*Order, error) {
	var resp struct {
		Order *Order `json:"order"`
	}
	if err := r.db.Call(ctx, "getPendingOrder", proxy.Params{"chat_id": chatID}, &resp); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

// UpdateStatus transitions an order from expected to status atomically.
// updated=false means the order was no longer in the expected status and
// nothing changed; the caller must not perform the transition's side effects.
func (r *Repository) UpdateStatus(ctx context.Context, depositCode, status, expected string) (bool, error) {
	var resp struct {
		Updated bool `json:"updated"`
	}
	if err := r.db.Call(ctx, "updateOrderStatus", proxy.Params{
		"deposit_code": depositCode,
		"status":       status,
		"expected":     expected,
	}, &resp); err != nil {
		return false, err
	}
	return resp.Updated, nil
}

// SaveLicense stores freshly issued credentials in a license table.
func (r *Repository) SaveLicense(ctx context.Context, table, username, password string, duration int, reference string) error {
	return r.db.Call(ctx, "saveLicense", proxy.Params{
		"table":     table,
		"username":  username,
		"password":  password,
		"duration":  duration,
		"reference": reference,
	}, nil)
}

// GetLicense looks up a license by its credentials, nil when absent.
func (r *Repository) GetLicense(ctx context.Context, username, password, gameType string) (*License, error) {
	var resp struct {
		License *License `json:"license"`
	}
	if err := r.db.Call(ctx, "getLicense", proxy.Params{
		"username":  username,
		"password":  password,
		"game_type": gameType,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.License, nil
}

// ExtendLicense pushes a license's expiry forward by duration days and
// reports how many rows changed.
func (r *Repository) ExtendLicense(ctx context.Context, username, password string, duration int, gameType string) (int, error) {
	var resp struct {
		Affected int `json:"affected"`
	}
	if err := r.db.Call(ctx, "extendLicense", proxy.Params{
		"username":  username,
		"password":  password,
		"duration":  duration,
		"game_type": gameType,
	}, &resp); err != nil {
		return 0, err
	}
	return resp.Affected, nil
}

// ScheduleAutoDelete registers a message for deletion after delay seconds.
func (r *Repository) ScheduleAutoDelete(ctx context.Context, chatID int64, messageID, delaySeconds int, kind string) error {
	return r.db.Call(ctx, "scheduleAutoDelete", proxy.Params{
		"chat_id":    chatID,
		"message_id": messageID,
		"delay":      delaySeconds,
		"type":       kind,
	}, nil)
}

// CancelAutoDelete drops pending deletions for a message (all of the chat's
// when messageID is zero).
func (r *Repository) CancelAutoDelete(ctx context.Context, chatID int64, messageID int) error {
	return r.db.Call(ctx, "cancelAutoDelete", proxy.Params{
		"chat_id":    chatID,
		"message_id": messageID,
	}, nil)
}

// StartPaymentCheck registers the chat's QR message for periodic settlement
// polling.
func (r *Repository) StartPaymentCheck(ctx context.Context, chatID int64, messageID int) error {
	return r.db.Call(ctx, "startPaymentCheck", proxy.Params{
		"chat_id":    chatID,
		"message_id": messageID,
	}, nil)
}

// StopPaymentCheck removes the chat's polling entry.
func (r *Repository) StopPaymentCheck(ctx context.Context, chatID int64) error {
	return r.db.Call(ctx, "stopPaymentCheck", proxy.Params{"chat_id": chatID}, nil)
}
