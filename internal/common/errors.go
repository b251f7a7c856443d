// Package common — errors.go defines the sentinel errors shared across the
// bot's modules. Handlers match on these to pick the user-facing reply;
// anything else is treated as a transient failure ("try again").
package common

import "errors"

// Order lifecycle errors.
var (
	// ErrNoActiveOrder — the chat has no pending order to check or cancel.
	ErrNoActiveOrder = errors.New("no pending order")
	// ErrOrderTerminal — the order already reached a terminal status.
	ErrOrderTerminal = errors.New("order already finished")
	// ErrPaymentGateway — the QRIS gateway rejected or failed the request.
	ErrPaymentGateway = errors.New("payment gateway unavailable")
	// ErrUnknownDuration — the requested duration has no price.
	ErrUnknownDuration = errors.New("duration not offered")
)

// Points errors.
var (
	// ErrInsufficientPoints — balance is lower than the requested debit.
	ErrInsufficientPoints = errors.New("not enough points")
	// ErrInvalidAmount — zero or negative amount on a ledger operation.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Credential errors.
var (
	// ErrUsernameTaken — the manual username already exists in the table.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrUsernameExhausted — 10 generated usernames in a row collided.
	ErrUsernameExhausted = errors.New("could not generate a unique username")
	// ErrInvalidCredentials — input does not match /username-password.
	ErrInvalidCredentials = errors.New("invalid credential format")
	// ErrLicenseNotFound — no license matches the given username/password.
	ErrLicenseNotFound = errors.New("license not found")
)

// Conversation/session errors.
var (
	// ErrSessionExpired — conversation state is stale or missing.
	ErrSessionExpired = errors.New("session expired")
)

// Admin errors.
var (
	// ErrNotAdmin — the chat is not on the admin allowlist.
	ErrNotAdmin = errors.New("not an admin")
	// ErrWrongPassword — /login password did not match.
	ErrWrongPassword = errors.New("wrong password")
	// ErrLoginRequired — admin command used without an active session.
	ErrLoginRequired = errors.New("login required")
)
