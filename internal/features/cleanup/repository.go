package cleanup

import (
	"context"

	"licensebot/internal/db/proxy"
)

// Repository reads and completes the housekeeping queues.
type Repository struct {
	db *proxy.Client
}

// NewRepository creates the cleanup repository.
func NewRepository(db *proxy.Client) *Repository {
	return &Repository{db: db}
}

// DueAutoDeletes returns the deletions whose time has passed.
func (r *Repository) DueAutoDeletes(ctx context.Context) ([]AutoDeleteTask, error) {
	var resp struct {
		Tasks []AutoDeleteTask `json:"tasks"`
	}
	if err := r.db.Call(ctx, "getDueAutoDeletes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// CompleteAutoDelete removes a finished task from the queue.
func (r *Repository) CompleteAutoDelete(ctx context.Context, id int64) error {
	return r.db.Call(ctx, "completeAutoDelete", proxy.Params{"id": id}, nil)
}

// DuePaymentChecks returns the chats whose last settlement poll is older
// than interval seconds.
func (r *Repository) DuePaymentChecks(ctx context.Context, intervalSeconds int) ([]PaymentCheck, error) {
	var resp struct {
		Checks []PaymentCheck `json:"checks"`
	}
	if err := r.db.Call(ctx, "getDuePaymentChecks", proxy.Params{"interval": intervalSeconds}, &resp); err != nil {
		return nil, err
	}
	return resp.Checks, nil
}

// MarkPaymentChecked records that the chat was just polled.
func (r *Repository) MarkPaymentChecked(ctx context.Context, chatID int64) error {
	return r.db.Call(ctx, "markPaymentChecked", proxy.Params{"chat_id": chatID}, nil)
}
