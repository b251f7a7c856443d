// Package state tracks the multi-step conversation position of each chat.
// A chat has at most one state; commands and menu actions clear it.
package state

// Conversation state names. Free-text input is only interpreted when one of
// these is active, otherwise it is ignored.
const (
	WaitingManualInput       = "waiting_manual_input"
	WaitingExtendCredentials = "waiting_extend_credentials"
	WaitingExtendDuration    = "waiting_extend_duration"
	WaitingRedeemGame        = "waiting_redeem_game"
)

// State is the stored conversation position plus its accumulated context.
type State struct {
	Name       string            `json:"name"`
	Payload    map[string]string `json:"payload"`
	ErrorCount int               `json:"error_count"`
}

// Get returns a payload value, "" when absent.
func (s *State) Get(key string) string {
	if s == nil || s.Payload == nil {
		return ""
	}
	return s.Payload[key]
}
