// Package common contains small utilities shared across the project:
// Rupiah formatting, Jakarta time handling and credential-input parsing.
package common

import (
	"fmt"
	"strings"
	"time"
)

func jakartaLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		// Fall back to a fixed UTC+7 when tzdata is missing.
		loc = time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// FormatDateTime renders a time as "02-01-2006 15:04:05" in WIB.
func FormatDateTime(t time.Time) string {
	return t.In(jakartaLocation()).Format("02-01-2006 15:04:05")
}

// FormatRupiah renders an amount with dot thousand separators: 150000 → "Rp 150.000".
func FormatRupiah(amount int64) string {
	return "Rp " + groupThousands(amount)
}

func groupThousands(n int64) string {
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s.%03d", groupThousands(n/1000), n%1000)
}

// FormatRemaining renders a countdown as "12m 34s".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

// ParseCredentialInput splits a "/username-password" message into its parts.
// The username is everything before the first dash, the password everything
// after it; both must be non-empty. Returns ErrInvalidCredentials otherwise.
func ParseCredentialInput(text string) (username, password string, err error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", ErrInvalidCredentials
	}
	body := strings.TrimPrefix(text, "/")
	parts := strings.SplitN(body, "-", 2)
	if len(parts) != 2 {
		return "", "", ErrInvalidCredentials
	}
	username = strings.TrimSpace(parts[0])
	password = strings.TrimSpace(parts[1])
	if username == "" || password == "" {
		return "", "", ErrInvalidCredentials
	}
	return username, password, nil
}
