package admin

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/argon2"

	"licensebot/internal/common"
	"licensebot/internal/config"
)

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		t.Fatalf("salt: %v", err)
	}
	hash := argon2.IDKey([]byte(password), salt, 3, 65536, 2, 32)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		65536, 3, 2,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

func newService(t *testing.T, hash string) *Service {
	t.Helper()
	return NewService(&config.Config{
		AdminIDs:          []int64{100},
		AdminPasswordHash: hash,
		AdminSessionTTL:   24 * time.Hour,
	})
}

func TestAuthorizeAllowlistOnly(t *testing.T) {
	svc := newService(t, "")
	if err := svc.Authorize(100); err != nil {
		t.Errorf("allowlisted chat without password gate: %v", err)
	}
	if err := svc.Authorize(999); !errors.Is(err, common.ErrNotAdmin) {
		t.Errorf("unknown chat: want ErrNotAdmin, got %v", err)
	}
}

func TestLoginOpensSession(t *testing.T) {
	svc := newService(t, hashPassword(t, "hunter2"))

	if err := svc.Authorize(100); !errors.Is(err, common.ErrLoginRequired) {
		t.Fatalf("before login: want ErrLoginRequired, got %v", err)
	}
	if err := svc.Login(100, "wrong"); !errors.Is(err, common.ErrWrongPassword) {
		t.Fatalf("wrong password: want ErrWrongPassword, got %v", err)
	}
	if err := svc.Login(100, "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Authorize(100); err != nil {
		t.Errorf("after login: %v", err)
	}

	svc.Logout(100)
	if err := svc.Authorize(100); !errors.Is(err, common.ErrLoginRequired) {
		t.Errorf("after logout: want ErrLoginRequired, got %v", err)
	}
}

func TestSessionExpires(t *testing.T) {
	svc := newService(t, hashPassword(t, "hunter2"))
	base := time.Now()
	svc.now = func() time.Time { return base }

	if err := svc.Login(100, "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	svc.now = func() time.Time { return base.Add(25 * time.Hour) }
	if err := svc.Authorize(100); !errors.Is(err, common.ErrLoginRequired) {
		t.Errorf("expired session: want ErrLoginRequired, got %v", err)
	}
}

func TestLoginLockout(t *testing.T) {
	svc := newService(t, hashPassword(t, "hunter2"))

	for i := 0; i < 3; i++ {
		if err := svc.Login(100, "wrong"); !errors.Is(err, common.ErrWrongPassword) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	// Even the right password is rejected while locked out.
	if err := svc.Login(100, "hunter2"); !errors.Is(err, common.ErrWrongPassword) {
		t.Fatalf("locked out: want wrapped ErrWrongPassword, got %v", err)
	}
}

func TestLoginNonAdmin(t *testing.T) {
	svc := newService(t, hashPassword(t, "hunter2"))
	if err := svc.Login(999, "hunter2"); !errors.Is(err, common.ErrNotAdmin) {
		t.Errorf("want ErrNotAdmin, got %v", err)
	}
}
