package credentials

import (
	"context"
	"errors"
	"math/rand"
	"regexp"
	"testing"

	"licensebot/internal/common"
)

type fakeChecker struct {
	taken map[string]bool
	calls int
}

func (f *fakeChecker) UsernameExists(_ context.Context, _, username string) (bool, error) {
	f.calls++
	return f.taken[username], nil
}

func fixedService(checker Checker) *Service {
	return NewServiceWithSource(checker, rand.New(rand.NewSource(1)))
}

func TestRandomFormat(t *testing.T) {
	svc := fixedService(&fakeChecker{})
	userRe := regexp.MustCompile(`^[a-z]{2}[0-9]{2}$`)
	passRe := regexp.MustCompile(`^[0-9]{2}$`)
	for i := 0; i < 50; i++ {
		p := svc.Random()
		if !userRe.MatchString(p.Username) {
			t.Fatalf("username %q does not match 2 letters + 2 digits", p.Username)
		}
		if !passRe.MatchString(p.Password) {
			t.Fatalf("password %q does not match 2 digits", p.Password)
		}
	}
}

func TestRedeemFormat(t *testing.T) {
	svc := fixedService(&fakeChecker{})
	userRe := regexp.MustCompile(`^redeem[a-z][0-9]$`)
	passRe := regexp.MustCompile(`^[0-9]$`)
	for i := 0; i < 50; i++ {
		p := svc.Redeem()
		if !userRe.MatchString(p.Username) {
			t.Fatalf("username %q does not match redeem + letter + digit", p.Username)
		}
		if !passRe.MatchString(p.Password) {
			t.Fatalf("password %q does not match 1 digit", p.Password)
		}
	}
}

func TestEnsureUniqueRetriesOnCollision(t *testing.T) {
	checker := &fakeChecker{taken: map[string]bool{}}
	svc := fixedService(checker)

	// Mark the first generated username as taken using an identically
	// seeded generator, so the service must retry exactly once.
	first := fixedService(&fakeChecker{}).Random()
	checker.taken[first.Username] = true

	pair, err := svc.UniqueRandom(context.Background(), "freefire")
	if err != nil {
		t.Fatalf("UniqueRandom: %v", err)
	}
	if pair.Username == first.Username {
		t.Errorf("returned a taken username %q", pair.Username)
	}
	if checker.calls != 2 {
		t.Errorf("expected 2 existence checks, got %d", checker.calls)
	}
}

type allTaken struct{ calls int }

func (a *allTaken) UsernameExists(context.Context, string, string) (bool, error) {
	a.calls++
	return true, nil
}

func TestEnsureUniqueGivesUpAfterTenAttempts(t *testing.T) {
	checker := &allTaken{}
	svc := fixedService(checker)

	_, err := svc.UniqueRedeem(context.Background(), "ffmax")
	if !errors.Is(err, common.ErrUsernameExhausted) {
		t.Fatalf("want ErrUsernameExhausted, got %v", err)
	}
	if checker.calls != 10 {
		t.Errorf("expected exactly 10 attempts, got %d", checker.calls)
	}
}

type failingChecker struct{}

func (failingChecker) UsernameExists(context.Context, string, string) (bool, error) {
	return false, errors.New("store down")
}

func TestEnsureUniquePropagatesStoreErrors(t *testing.T) {
	svc := fixedService(failingChecker{})
	if _, err := svc.UniqueRandom(context.Background(), "freefire"); err == nil {
		t.Fatal("store errors must not be swallowed")
	}
}
