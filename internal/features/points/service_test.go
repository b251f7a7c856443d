package points

import (
	"context"
	"errors"
	"testing"

	"licensebot/internal/common"
	"licensebot/internal/db/proxy"
	"licensebot/internal/db/proxy/proxytest"
)

func TestForDuration(t *testing.T) {
	cases := []struct {
		days int
		want int64
	}{
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 4},
		{5, 4},
		{6, 5},
		{7, 5},
		{8, 8},
		{10, 8},
		{15, 12},
		{20, 15},
		{30, 20},
		{365, 20},
	}
	for _, c := range cases {
		if got := ForDuration(c.days); got != c.want {
			t.Errorf("ForDuration(%d) = %d, want %d", c.days, got, c.want)
		}
	}
}

func TestRedeemCost(t *testing.T) {
	svc := &Service{costPerDay: DefaultCostPerDay}
	if got := svc.RedeemCost(3); got != 36 {
		t.Errorf("RedeemCost(3) = %d, want 36", got)
	}
	if got := svc.RedeemCost(7); got != 84 {
		t.Errorf("RedeemCost(7) = %d, want 84", got)
	}
}

func TestRedeemCostUsesConfiguredRate(t *testing.T) {
	svc := NewService(nil, 6)
	if got := svc.RedeemCost(3); got != 18 {
		t.Errorf("RedeemCost(3) at 6/day = %d, want 18", got)
	}
	if got := svc.CostPerDay(); got != 6 {
		t.Errorf("CostPerDay() = %d, want 6", got)
	}

	// A missing or invalid rate falls back to the default.
	svc = NewService(nil, 0)
	if got := svc.RedeemCost(1); got != DefaultCostPerDay {
		t.Errorf("RedeemCost(1) with zero rate = %d, want %d", got, DefaultCostPerDay)
	}
}

func newService(t *testing.T) (*Service, *proxytest.Server) {
	t.Helper()
	fake := proxytest.NewServer("k")
	t.Cleanup(fake.Close)
	return NewService(NewRepository(proxy.New(fake.URL(), "k")), DefaultCostPerDay), fake
}

func TestCreditAndBalance(t *testing.T) {
	svc, fake := newService(t)
	ctx := context.Background()

	if err := svc.Credit(ctx, 10, 5, "purchase ORD1"); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := svc.Credit(ctx, 10, 2, "purchase ORD2"); err != nil {
		t.Fatalf("Credit: %v", err)
	}

	bal, err := svc.Balance(ctx, 10)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal != 7 {
		t.Errorf("balance = %d, want 7", bal)
	}
	if entries := fake.Ledger(10); len(entries) != 2 {
		t.Errorf("ledger should have 2 entries, got %d", len(entries))
	}
}

func TestCreditRejectsNonPositive(t *testing.T) {
	svc, _ := newService(t)
	for _, amount := range []int64{0, -5} {
		if err := svc.Credit(context.Background(), 10, amount, "x"); !errors.Is(err, common.ErrInvalidAmount) {
			t.Errorf("Credit(%d) = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestDebitInsufficientLeavesLedgerUntouched(t *testing.T) {
	svc, fake := newService(t)
	ctx := context.Background()
	fake.SeedPoints(10, 30)

	err := svc.Debit(ctx, 10, 36, "redeem 3 days")
	if !errors.Is(err, common.ErrInsufficientPoints) {
		t.Fatalf("want ErrInsufficientPoints, got %v", err)
	}
	if bal := fake.Balance(10); bal != 30 {
		t.Errorf("failed debit must not mutate the ledger, balance = %d", bal)
	}
	if entries := fake.Ledger(10); len(entries) != 1 {
		t.Errorf("ledger grew on failed debit: %d entries", len(entries))
	}
}

func TestDebitSucceeds(t *testing.T) {
	svc, fake := newService(t)
	ctx := context.Background()
	fake.SeedPoints(10, 50)

	if err := svc.Debit(ctx, 10, 36, "redeem 3 days"); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if bal := fake.Balance(10); bal != 14 {
		t.Errorf("balance = %d, want 14", bal)
	}
}

func TestAwardForPurchase(t *testing.T) {
	svc, fake := newService(t)
	if err := svc.AwardForPurchase(context.Background(), 10, 30, "ORD9"); err != nil {
		t.Fatalf("AwardForPurchase: %v", err)
	}
	if bal := fake.Balance(10); bal != 20 {
		t.Errorf("balance = %d, want 20 for a 30-day purchase", bal)
	}
}
