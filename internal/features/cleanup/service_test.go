package cleanup

import (
	"context"
	"testing"
	"time"

	"licensebot/internal/config"
	"licensebot/internal/db/proxy"
	"licensebot/internal/db/proxy/proxytest"
	"licensebot/internal/features/credentials"
	"licensebot/internal/features/orders"
	"licensebot/internal/features/points"
	"licensebot/internal/payment"
)

type fakeGateway struct {
	settled map[string]bool
}

func (g *fakeGateway) CreateDeposit(_ context.Context, orderID string, _ int64) (*payment.Deposit, error) {
	return &payment.Deposit{Code: "DEP" + orderID, QRURL: "https://qr.example/x"}, nil
}

func (g *fakeGateway) CheckSettled(_ context.Context, code string) (bool, error) {
	return g.settled[code], nil
}

type recorder struct {
	deleted     []int
	completions []*orders.Completion
	expired     []int
}

func (r *recorder) Delete(_ int64, messageID int) { r.deleted = append(r.deleted, messageID) }
func (r *recorder) RenderCompletion(_ int64, messageID int, res *orders.Completion) {
	r.completions = append(r.completions, res)
}
func (r *recorder) RenderExpired(_ int64, messageID int, _ bool) {
	r.expired = append(r.expired, messageID)
}

type fixture struct {
	svc     *Service
	orders  *orders.Service
	fake    *proxytest.Server
	gateway *fakeGateway
	rec     *recorder
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := proxytest.NewServer("k")
	t.Cleanup(fake.Close)

	client := proxy.New(fake.URL(), "k")
	gateway := &fakeGateway{settled: map[string]bool{}}
	ordersSvc := orders.NewService(
		orders.NewRepository(client),
		gateway,
		credentials.NewService(credentials.NewRepository(client)),
		points.NewService(points.NewRepository(client), points.DefaultCostPerDay),
		orders.Options{
			Prefix:        "ORD",
			Timeout:       1500 * time.Second,
			CheckInterval: 20 * time.Second,
			MerchantCode:  "LICBOT",
			Prices:        config.DefaultPrices(),
		},
	)
	rec := &recorder{}
	f := &fixture{
		svc:     NewService(NewRepository(client), ordersSvc, rec, rec),
		orders:  ordersSvc,
		fake:    fake,
		gateway: gateway,
		rec:     rec,
		now:     time.Now(),
	}
	f.setNow(f.now)
	return f
}

// setNow pins the store clock. The order service keeps following real time,
// so tests stay near time.Now and shift the store instead.
func (f *fixture) setNow(t0 time.Time) {
	f.now = t0
	f.fake.Now = func() time.Time { return t0 }
}

func TestTickDeletesDueMessagesOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Schedule one deletion due in 60s and one in 3600s.
	client := proxy.New(f.fake.URL(), "k")
	repo := orders.NewRepository(client)
	if err := repo.ScheduleAutoDelete(ctx, 10, 111, 60, "notice"); err != nil {
		t.Fatalf("ScheduleAutoDelete: %v", err)
	}
	if err := repo.ScheduleAutoDelete(ctx, 10, 222, 3600, "notice"); err != nil {
		t.Fatalf("ScheduleAutoDelete: %v", err)
	}

	f.svc.Tick(ctx)
	if len(f.rec.deleted) != 0 {
		t.Fatalf("nothing is due yet, deleted %v", f.rec.deleted)
	}

	f.setNow(f.now.Add(90 * time.Second))
	f.svc.Tick(ctx)
	if len(f.rec.deleted) != 1 || f.rec.deleted[0] != 111 {
		t.Fatalf("deleted %v, want only message 111", f.rec.deleted)
	}
	if f.fake.AutoDeleteCount() != 1 {
		t.Errorf("completed task should leave the queue, %d tasks remain", f.fake.AutoDeleteCount())
	}

	// A second tick must not delete it again.
	f.svc.Tick(ctx)
	if len(f.rec.deleted) != 1 {
		t.Errorf("task ran twice: deleted %v", f.rec.deleted)
	}
}

func TestTickCompletesSettledOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, _, err := f.orders.CreatePurchase(ctx, 10, orders.GameFreeFire, 3, orders.KeyTypeRandom, "", "")
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if err := f.orders.TrackPaymentMessage(ctx, 10, 500); err != nil {
		t.Fatalf("TrackPaymentMessage: %v", err)
	}
	f.gateway.settled[o.DepositCode] = true

	f.svc.Tick(ctx)

	if len(f.rec.completions) != 1 {
		t.Fatalf("expected one rendered completion, got %d", len(f.rec.completions))
	}
	stored, _ := f.fake.OrderByDeposit(o.DepositCode)
	if stored.Status != orders.StatusCompleted {
		t.Errorf("order status = %q, want completed", stored.Status)
	}
	if f.fake.PaymentCheckCount() != 0 {
		t.Error("completion must drop the poll entry")
	}

	// The settled order is gone; another tick renders nothing new.
	f.svc.Tick(ctx)
	if len(f.rec.completions) != 1 {
		t.Errorf("completion rendered twice")
	}
}

func TestTickExpiresOverdueOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Create the order with the store clock 1501s in the past, so by real
	// time the order is already overdue and its auto delete is due.
	f.setNow(time.Now().Add(-1501 * time.Second))
	o, _, err := f.orders.CreatePurchase(ctx, 10, orders.GameFreeFire, 3, orders.KeyTypeRandom, "", "")
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if err := f.orders.TrackPaymentMessage(ctx, 10, 500); err != nil {
		t.Fatalf("TrackPaymentMessage: %v", err)
	}
	f.setNow(time.Now())

	f.svc.Tick(ctx)

	stored, _ := f.fake.OrderByDeposit(o.DepositCode)
	if stored.Status != orders.StatusExpired {
		t.Errorf("order status = %q, want expired", stored.Status)
	}
	if f.fake.PaymentCheckCount() != 0 {
		t.Error("expiry must drop the poll entry")
	}
}

func TestTickRespectsPollInterval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.orders.CreatePurchase(ctx, 10, orders.GameFreeFire, 3, orders.KeyTypeRandom, "", "")
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if err := f.orders.TrackPaymentMessage(ctx, 10, 500); err != nil {
		t.Fatalf("TrackPaymentMessage: %v", err)
	}

	// First tick polls (entry never checked) and marks the entry.
	f.svc.Tick(ctx)
	// Five seconds later the entry is not due again.
	f.setNow(f.now.Add(5 * time.Second))
	checks, err := NewRepository(proxy.New(f.fake.URL(), "k")).DuePaymentChecks(ctx, 20)
	if err != nil {
		t.Fatalf("DuePaymentChecks: %v", err)
	}
	if len(checks) != 0 {
		t.Errorf("entry polled again before the interval: %v", checks)
	}

	// After the interval it is due once more.
	f.setNow(f.now.Add(20 * time.Second))
	checks, err = NewRepository(proxy.New(f.fake.URL(), "k")).DuePaymentChecks(ctx, 20)
	if err != nil {
		t.Fatalf("DuePaymentChecks: %v", err)
	}
	if len(checks) != 1 {
		t.Errorf("entry should be due after the interval, got %v", checks)
	}
}
