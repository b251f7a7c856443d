// Package broadcast fans an admin message out to every registered user.
// Two kinds exist: a plain broadcast and a promo, which carries a buy button.
package broadcast

// Broadcast kinds.
const (
	KindBroadcast = "broadcast"
	KindPromo     = "promo"
)

// Admin-state names. The state is persisted so a restart between the command
// and the message does not leave the admin in a dangling prompt.
const (
	StateWaitingBroadcast = "waiting_broadcast_broadcast"
	StateWaitingPromo     = "waiting_broadcast_promo"
)

// StateFor returns the waiting state for a kind.
func StateFor(kind string) string {
	if kind == KindPromo {
		return StateWaitingPromo
	}
	return StateWaitingBroadcast
}

// KindFor is the inverse of StateFor, "" when the state is not a broadcast
// prompt.
func KindFor(state string) string {
	switch state {
	case StateWaitingPromo:
		return KindPromo
	case StateWaitingBroadcast:
		return KindBroadcast
	}
	return ""
}

// Report summarizes one fan-out.
type Report struct {
	Total  int
	Sent   int
	Failed int
}
