package credentials

import (
	"context"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"licensebot/internal/common"
)

const (
	letters = "abcdefghijklmnopqrstuvwxyz"
	digits  = "0123456789"

	// maxAttempts bounds the uniqueness retry loop. The keyspace is tiny on
	// purpose (usernames are meant to be typed on a phone), so collisions do
	// happen and are retried.
	maxAttempts = 10
)

// Checker is the uniqueness lookup the generator needs. *Repository
// satisfies it.
type Checker interface {
	UsernameExists(ctx context.Context, table, username string) (bool, error)
}

// Service generates credentials and enforces username uniqueness.
type Service struct {
	repo Checker
	rnd  *rand.Rand
}

// NewService creates the credentials service with a time-seeded source.
func NewService(repo Checker) *Service {
	return &Service{repo: repo, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewServiceWithSource creates the service with a caller-supplied source.
func NewServiceWithSource(repo Checker, rnd *rand.Rand) *Service {
	return &Service{repo: repo, rnd: rnd}
}

// Random produces a purchase credential: two letters and two digits for the
// username, a two-digit password.
func (s *Service) Random() Pair {
	return Pair{
		Username: s.pick(letters, 2) + s.pick(digits, 2),
		Password: s.pick(digits, 2),
	}
}

// Redeem produces a redemption credential: "redeem" plus one letter and one
// digit, with a one-digit password.
func (s *Service) Redeem() Pair {
	return Pair{
		Username: "redeem" + s.pick(letters, 1) + s.pick(digits, 1),
		Password: s.pick(digits, 1),
	}
}

// EnsureUnique generates credentials with gen until the username is free in
// table, giving up after maxAttempts with ErrUsernameExhausted.
func (s *Service) EnsureUnique(ctx context.Context, table string, gen func() Pair) (Pair, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		pair := gen()
		exists, err := s.repo.UsernameExists(ctx, table, pair.Username)
		if err != nil {
			return Pair{}, err
		}
		if !exists {
			return pair, nil
		}
		log.WithFields(log.Fields{
			"table":    table,
			"username": pair.Username,
			"attempt":  attempt,
		}).Debug("username collision, retrying")
	}
	return Pair{}, common.ErrUsernameExhausted
}

// UniqueRandom is EnsureUnique over Random.
func (s *Service) UniqueRandom(ctx context.Context, table string) (Pair, error) {
	return s.EnsureUnique(ctx, table, s.Random)
}

// Exists reports whether a username is already taken in a table.
func (s *Service) Exists(ctx context.Context, table, username string) (bool, error) {
	return s.repo.UsernameExists(ctx, table, username)
}

// UniqueRedeem is EnsureUnique over Redeem.
func (s *Service) UniqueRedeem(ctx context.Context, table string) (Pair, error) {
	return s.EnsureUnique(ctx, table, s.Redeem)
}

func (s *Service) pick(alphabet string, n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[s.rnd.Intn(len(alphabet))]
	}
	return string(out)
}
