// Package credentials generates short login credentials for issued keys and
// guarantees username uniqueness within a license table.
package credentials

// Pair is one generated username/password combination.
type Pair struct {
	Username string
	Password string
}
