// Package orders implements the pending-order lifecycle: creation against the
// payment gateway, settlement polling, exactly-once completion guarded by a
// compare-and-set status transition, cancellation and expiry.
package orders

import "time"

// Order statuses. pending is the only non-terminal status; every transition
// out of it goes through a compare-and-set on the store.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Key types distinguish what completion must provision.
const (
	KeyTypeRandom = "random" // generate fresh credentials
	KeyTypeManual = "manual" // use the credentials the buyer typed in
	KeyTypeExtend = "extend" // extend an existing license
)

// Game types and their license tables.
const (
	GameFreeFire    = "ff"
	GameFreeFireMax = "ffmax"
)

// TableFor maps a game type to its license table.
func TableFor(gameType string) string {
	if gameType == GameFreeFire {
		return "freefire"
	}
	return "ffmax"
}

// GameLabel is the user-facing name of a game type.
func GameLabel(gameType string) string {
	if gameType == GameFreeFire {
		return "Free Fire"
	}
	return "Free Fire MAX"
}

// Order is one pending purchase, extend or manual-credential order.
type Order struct {
	OrderID        string    `json:"order_id"`
	ChatID         int64     `json:"chat_id"`
	GameType       string    `json:"game_type"`
	Duration       int       `json:"duration"`
	Amount         int64     `json:"amount"`
	DepositCode    string    `json:"deposit_code"`
	KeyType        string    `json:"key_type"`
	ManualUsername string    `json:"manual_username,omitempty"`
	ManualPassword string    `json:"manual_password,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// License is a stored credential row as returned by the store.
type License struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	GameType  string    `json:"game_type"`
	Duration  int       `json:"duration"`
	Reference string    `json:"reference"`
	ExpiresAt time.Time `json:"expires_at"`
}
