// Package proxytest provides an in-memory implementation of the database
// proxy action API for tests. It keeps orders, ledger entries, licenses,
// conversation state and cleanup tasks in maps and honors the same contracts
// the hosting-side proxy does, including the compare-and-set order update.
package proxytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// License is a stored credential row.
type License struct {
	Table     string    `json:"-"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	GameType  string    `json:"game_type"`
	Duration  int       `json:"duration"`
	Reference string    `json:"reference"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Order mirrors the pending-order row.
type Order struct {
	OrderID        string    `json:"order_id"`
	ChatID         int64     `json:"chat_id"`
	GameType       string    `json:"game_type"`
	Duration       int       `json:"duration"`
	Amount         int64     `json:"amount"`
	DepositCode    string    `json:"deposit_code"`
	KeyType        string    `json:"key_type"`
	ManualUsername string    `json:"manual_username"`
	ManualPassword string    `json:"manual_password"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// LedgerEntry is one append-only points movement.
type LedgerEntry struct {
	Delta       int64     `json:"delta"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

type userState struct {
	Name       string            `json:"name"`
	Payload    map[string]string `json:"payload"`
	ErrorCount int               `json:"error_count"`
}

type botUser struct {
	ChatID    int64  `json:"chat_id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type autoDelete struct {
	ID        int64  `json:"id"`
	ChatID    int64  `json:"chat_id"`
	MessageID int    `json:"message_id"`
	Kind      string `json:"type"`
	DueAt     time.Time
}

type paymentCheck struct {
	ChatID      int64 `json:"chat_id"`
	MessageID   int   `json:"message_id"`
	lastChecked time.Time
}

// BroadcastRecord is one saved broadcast history row.
type BroadcastRecord struct {
	AdminID     int64
	Kind        string
	MessageType string
	Total       int
	Sent        int
	Failed      int
}

// Server is the fake proxy. Zero value is not usable; call NewServer.
type Server struct {
	mu sync.Mutex

	// Now is the server clock, replaceable by tests.
	Now func() time.Time

	// FailActions lists actions that reply success=false, for error-path tests.
	FailActions map[string]bool

	APIKey string

	licenses      map[string]map[string]*License // table → username → row
	states        map[int64]*userState
	orders        map[string]*Order // deposit code → row
	ledger        map[int64][]LedgerEntry
	users         map[int64]botUser
	adminStates   map[int64]string
	broadcasts    []BroadcastRecord
	autoDeletes   []*autoDelete
	paymentChecks map[int64]*paymentCheck
	nextTaskID    int64

	httpSrv *httptest.Server
}

// NewServer starts the fake proxy over httptest.
func NewServer(apiKey string) *Server {
	s := &Server{
		Now:           time.Now,
		APIKey:        apiKey,
		licenses:      make(map[string]map[string]*License),
		states:        make(map[int64]*userState),
		orders:        make(map[string]*Order),
		ledger:        make(map[int64][]LedgerEntry),
		users:         make(map[int64]botUser),
		adminStates:   make(map[int64]string),
		paymentChecks: make(map[int64]*paymentCheck),
		nextTaskID:    1,
	}
	s.httpSrv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL is the endpoint to point a proxy.Client at.
func (s *Server) URL() string { return s.httpSrv.URL }

// Close stops the underlying httptest server.
func (s *Server) Close() { s.httpSrv.Close() }

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	var req map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, map[string]interface{}{"success": false, "error": "bad request"})
		return
	}
	get := func(key string, out interface{}) {
		if raw, ok := req[key]; ok {
			json.Unmarshal(raw, out)
		}
	}
	var action, apiKey string
	get("action", &action)
	get("api_key", &apiKey)
	if apiKey != s.APIKey {
		writeJSON(w, map[string]interface{}{"success": false, "error": "unauthorized"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailActions[action] {
		writeJSON(w, map[string]interface{}{"success": false, "error": "injected failure"})
		return
	}

	resp := map[string]interface{}{"success": true}

	switch action {
	case "isUsernameExists":
		var username, table string
		get("username", &username)
		get("table", &table)
		_, exists := s.licenses[table][username]
		resp["exists"] = exists

	case "getLicense":
		var username, password, gameType string
		get("username", &username)
		get("password", &password)
		get("game_type", &gameType)
		lic := s.findLicense(username, password, gameType)
		if lic != nil {
			resp["license"] = lic
		} else {
			resp["license"] = nil
		}

	case "extendLicense":
		var username, password, gameType string
		var duration int
		get("username", &username)
		get("password", &password)
		get("game_type", &gameType)
		get("duration", &duration)
		lic := s.findLicense(username, password, gameType)
		if lic == nil {
			resp["affected"] = 0
		} else {
			lic.ExpiresAt = lic.ExpiresAt.AddDate(0, 0, duration)
			resp["affected"] = 1
		}

	case "saveLicense":
		var table, username, password, reference string
		var duration int
		get("table", &table)
		get("username", &username)
		get("password", &password)
		get("duration", &duration)
		get("reference", &reference)
		if s.licenses[table] == nil {
			s.licenses[table] = make(map[string]*License)
		}
		s.licenses[table][username] = &License{
			Table:     table,
			Username:  username,
			Password:  password,
			GameType:  table,
			Duration:  duration,
			Reference: reference,
			ExpiresAt: s.Now().AddDate(0, 0, duration),
		}
		resp["saved"] = true

	case "saveUserState":
		var chatID int64
		st := userState{Payload: map[string]string{}}
		get("chat_id", &chatID)
		get("state", &st.Name)
		get("payload", &st.Payload)
		get("error_count", &st.ErrorCount)
		s.states[chatID] = &st

	case "getUserState":
		var chatID int64
		get("chat_id", &chatID)
		if st, ok := s.states[chatID]; ok {
			resp["state"] = st
		} else {
			resp["state"] = nil
		}

	case "clearUserState":
		var chatID int64
		get("chat_id", &chatID)
		delete(s.states, chatID)

	case "savePendingOrder":
		var o Order
		get("order_id", &o.OrderID)
		get("chat_id", &o.ChatID)
		get("game_type", &o.GameType)
		get("duration", &o.Duration)
		get("amount", &o.Amount)
		get("deposit_code", &o.DepositCode)
		get("key_type", &o.KeyType)
		get("manual_username", &o.ManualUsername)
		get("manual_password", &o.ManualPassword)
		o.Status = "pending"
		o.CreatedAt = s.Now()
		s.orders[o.DepositCode] = &o

	case "getPendingOrder":
		var chatID int64
		get("chat_id", &chatID)
		if o := s.pendingFor(chatID); o != nil {
			resp["order"] = o
		} else {
			resp["order"] = nil
		}

	case "updateOrderStatus":
		var deposit, status, expected string
		get("deposit_code", &deposit)
		get("status", &status)
		get("expected", &expected)
		o, ok := s.orders[deposit]
		updated := ok && o.Status == expected
		if updated {
			o.Status = status
		}
		resp["updated"] = updated

	case "getUserPoints":
		var chatID int64
		get("chat_id", &chatID)
		resp["points"] = s.balance(chatID)

	case "addUserPoints":
		var chatID, points int64
		var description string
		get("chat_id", &chatID)
		get("points", &points)
		get("description", &description)
		s.ledger[chatID] = append(s.ledger[chatID], LedgerEntry{Delta: points, Description: description, At: s.Now()})

	case "redeemUserPoints":
		var chatID, points int64
		var description string
		get("chat_id", &chatID)
		get("points", &points)
		get("description", &description)
		if s.balance(chatID) < points {
			resp["redeemed"] = false
		} else {
			s.ledger[chatID] = append(s.ledger[chatID], LedgerEntry{Delta: -points, Description: description, At: s.Now()})
			resp["redeemed"] = true
		}

	case "saveBotUser":
		var u botUser
		get("chat_id", &u.ChatID)
		get("first_name", &u.FirstName)
		get("username", &u.Username)
		s.users[u.ChatID] = u

	case "getTotalBotUsers":
		resp["total"] = len(s.users)

	case "getAllBotUsers":
		all := make([]botUser, 0, len(s.users))
		for _, u := range s.users {
			all = append(all, u)
		}
		resp["users"] = all

	case "saveAdminState":
		var chatID int64
		var state string
		get("chat_id", &chatID)
		get("state", &state)
		s.adminStates[chatID] = state

	case "getAdminState":
		var chatID int64
		get("chat_id", &chatID)
		resp["state"] = s.adminStates[chatID]

	case "clearAdminState":
		var chatID int64
		get("chat_id", &chatID)
		delete(s.adminStates, chatID)

	case "saveBroadcastHistory":
		var rec BroadcastRecord
		get("admin_id", &rec.AdminID)
		get("kind", &rec.Kind)
		get("message_type", &rec.MessageType)
		get("total", &rec.Total)
		get("sent", &rec.Sent)
		get("failed", &rec.Failed)
		s.broadcasts = append(s.broadcasts, rec)

	case "scheduleAutoDelete":
		var chatID int64
		var messageID, delay int
		var kind string
		get("chat_id", &chatID)
		get("message_id", &messageID)
		get("delay", &delay)
		get("type", &kind)
		s.autoDeletes = append(s.autoDeletes, &autoDelete{
			ID:        s.nextTaskID,
			ChatID:    chatID,
			MessageID: messageID,
			Kind:      kind,
			DueAt:     s.Now().Add(time.Duration(delay) * time.Second),
		})
		s.nextTaskID++

	case "cancelAutoDelete":
		var chatID int64
		var messageID int
		get("chat_id", &chatID)
		get("message_id", &messageID)
		kept := s.autoDeletes[:0]
		for _, t := range s.autoDeletes {
			if t.ChatID != chatID || (messageID != 0 && t.MessageID != messageID) {
				kept = append(kept, t)
			}
		}
		s.autoDeletes = kept

	case "getDueAutoDeletes":
		now := s.Now()
		due := make([]*autoDelete, 0)
		for _, t := range s.autoDeletes {
			if !t.DueAt.After(now) {
				due = append(due, t)
			}
		}
		resp["tasks"] = due

	case "completeAutoDelete":
		var id int64
		get("id", &id)
		kept := s.autoDeletes[:0]
		for _, t := range s.autoDeletes {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		s.autoDeletes = kept

	case "startPaymentCheck":
		var chatID int64
		var messageID int
		get("chat_id", &chatID)
		get("message_id", &messageID)
		s.paymentChecks[chatID] = &paymentCheck{ChatID: chatID, MessageID: messageID}

	case "getDuePaymentChecks":
		var interval int
		get("interval", &interval)
		now := s.Now()
		due := make([]*paymentCheck, 0)
		for _, pc := range s.paymentChecks {
			if pc.lastChecked.IsZero() || now.Sub(pc.lastChecked) >= time.Duration(interval)*time.Second {
				due = append(due, pc)
			}
		}
		resp["checks"] = due

	case "markPaymentChecked":
		var chatID int64
		get("chat_id", &chatID)
		if pc, ok := s.paymentChecks[chatID]; ok {
			pc.lastChecked = s.Now()
		}

	case "stopPaymentCheck":
		var chatID int64
		get("chat_id", &chatID)
		delete(s.paymentChecks, chatID)

	default:
		resp = map[string]interface{}{"success": false, "error": "unknown action " + action}
	}

	writeJSON(w, resp)
}

func (s *Server) findLicense(username, password, gameType string) *License {
	for table, rows := range s.licenses {
		if gameType != "" && tableFor(gameType) != table {
			continue
		}
		if lic, ok := rows[username]; ok && lic.Password == password {
			return lic
		}
	}
	return nil
}

// tableFor mirrors the production mapping of game type to license table.
func tableFor(gameType string) string {
	if gameType == "ff" {
		return "freefire"
	}
	return "ffmax"
}

func (s *Server) pendingFor(chatID int64) *Order {
	for _, o := range s.orders {
		if o.ChatID == chatID && o.Status == "pending" {
			return o
		}
	}
	return nil
}

func (s *Server) balance(chatID int64) int64 {
	var sum int64
	for _, e := range s.ledger[chatID] {
		sum += e.Delta
	}
	return sum
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// --- test helpers ---

// Balance returns the derived points balance for a chat.
func (s *Server) Balance(chatID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance(chatID)
}

// Ledger returns a copy of the ledger entries for a chat.
func (s *Server) Ledger(chatID int64) []LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LedgerEntry(nil), s.ledger[chatID]...)
}

// OrderByDeposit returns a copy of the order stored for a deposit code.
func (s *Server) OrderByDeposit(deposit string) (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[deposit]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// SeedLicense stores a license row directly.
func (s *Server) SeedLicense(table string, lic License) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.licenses[table] == nil {
		s.licenses[table] = make(map[string]*License)
	}
	lic.Table = table
	s.licenses[table][lic.Username] = &lic
}

// HasLicense reports whether a username exists in a table.
func (s *Server) HasLicense(table, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.licenses[table][username]
	return ok
}

// LicenseRow returns a copy of a stored license.
func (s *Server) LicenseRow(table, username string) (License, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lic, ok := s.licenses[table][username]
	if !ok {
		return License{}, false
	}
	return *lic, true
}

// SeedPoints appends a single credit entry so the balance equals points.
func (s *Server) SeedPoints(chatID, points int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger[chatID] = append(s.ledger[chatID], LedgerEntry{Delta: points, Description: "seed", At: s.Now()})
}

// AutoDeleteCount reports how many cleanup tasks are scheduled.
func (s *Server) AutoDeleteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.autoDeletes)
}

// PaymentCheckCount reports how many payment-check entries are active.
func (s *Server) PaymentCheckCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paymentChecks)
}

// Broadcasts returns the saved broadcast history.
func (s *Server) Broadcasts() []BroadcastRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]BroadcastRecord(nil), s.broadcasts...)
}
