// Package cleanup runs the housekeeping tick: deleting ephemeral messages
// whose time has come and polling pending deposits for settlement. The tick
// runs opportunistically at the start of every update and again from cron,
// so the bot stays correct even when updates are the only trigger.
package cleanup

// AutoDeleteTask is one due message deletion.
type AutoDeleteTask struct {
	ID        int64  `json:"id"`
	ChatID    int64  `json:"chat_id"`
	MessageID int    `json:"message_id"`
	Kind      string `json:"type"`
}

// KindPayment marks the QR message of a pending order; its deletion also
// expires the order.
const KindPayment = "payment"

// PaymentCheck is one chat due for a settlement poll.
type PaymentCheck struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}
