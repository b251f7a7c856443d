package orders

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"licensebot/internal/common"
	"licensebot/internal/config"
	"licensebot/internal/features/credentials"
	"licensebot/internal/features/points"
	"licensebot/internal/payment"
)

// Options are the tunables of the order lifecycle.
type Options struct {
	Prefix        string        // order id prefix for purchases
	Timeout       time.Duration // pending orders expire after this
	CheckInterval time.Duration // settlement poll interval
	MerchantCode  string        // reference stamped on issued licenses
	Prices        config.PriceTable
}

// Service drives the pending-order lifecycle.
type Service struct {
	repo    *Repository
	gateway payment.Gateway
	creds   *credentials.Service
	points  *points.Service
	opts    Options

	// now is replaceable in tests to pin timeout boundaries.
	now func() time.Time
	rnd *rand.Rand
}

// NewService creates the order service.
func NewService(repo *Repository, gateway payment.Gateway, creds *credentials.Service, pts *points.Service, opts Options) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		creds:   creds,
		points:  pts,
		opts:    opts,
		now:     time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// newOrderID builds "<prefix><unix seconds><3 digits>". Uniqueness is
// probabilistic and only used as a human-readable reference; the deposit code
// from the gateway is the real key.
func (s *Service) newOrderID(prefix string) string {
	return prefix + strconv.FormatInt(s.now().Unix(), 10) + strconv.Itoa(100+s.rnd.Intn(900))
}

// CheckInterval exposes the settlement poll interval for the cleanup tick.
func (s *Service) CheckInterval() time.Duration { return s.opts.CheckInterval }

// PriceFor returns the price of a duration, ErrUnknownDuration when it is
// not offered.
func (s *Service) PriceFor(days int) (int64, error) {
	price, ok := s.opts.Prices.PriceFor(days)
	if !ok {
		return 0, common.ErrUnknownDuration
	}
	return price, nil
}

// Durations lists the offered durations in ascending order.
func (s *Service) Durations() []int { return s.opts.Prices.Durations() }

// Pending returns the chat's pending order, ErrNoActiveOrder when none.
func (s *Service) Pending(ctx context.Context, chatID int64) (*Order, error) {
	o, err := s.repo.Pending(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, common.ErrNoActiveOrder
	}
	return o, nil
}

// CreatePurchase opens a pending purchase order: it obtains a QRIS deposit
// and persists the order. Nothing is persisted when the gateway fails.
// keyType is KeyTypeRandom or KeyTypeManual; manual credentials travel with
// the order until completion.
func (s *Service) CreatePurchase(ctx context.Context, chatID int64, gameType string, duration int, keyType, manualUsername, manualPassword string) (*Order, *payment.Deposit, error) {
	amount, err := s.PriceFor(duration)
	if err != nil {
		return nil, nil, err
	}

	orderID := s.newOrderID(s.opts.Prefix)
	dep, err := s.gateway.CreateDeposit(ctx, orderID, amount)
	if err != nil {
		return nil, nil, err
	}

	o := &Order{
		OrderID:        orderID,
		ChatID:         chatID,
		GameType:       gameType,
		Duration:       duration,
		Amount:         amount,
		DepositCode:    dep.Code,
		KeyType:        keyType,
		ManualUsername: manualUsername,
		ManualPassword: manualPassword,
		Status:         StatusPending,
		CreatedAt:      s.now(),
	}
	if err := s.repo.SavePending(ctx, o); err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"order_id": orderID,
		"chat_id":  chatID,
		"game":     gameType,
		"days":     duration,
		"amount":   amount,
		"key_type": keyType,
	}).Info("order created")
	return o, dep, nil
}

// CreateExtend opens a pending extend order for an existing license. The
// credentials were already verified against the store by the input flow.
func (s *Service) CreateExtend(ctx context.Context, chatID int64, gameType string, duration int, username, password string) (*Order, *payment.Deposit, error) {
	amount, err := s.PriceFor(duration)
	if err != nil {
		return nil, nil, err
	}

	orderID := s.newOrderID("EXTEND")
	dep, err := s.gateway.CreateDeposit(ctx, orderID, amount)
	if err != nil {
		return nil, nil, err
	}

	o := &Order{
		OrderID:        orderID,
		ChatID:         chatID,
		GameType:       gameType,
		Duration:       duration,
		Amount:         amount,
		DepositCode:    dep.Code,
		KeyType:        KeyTypeExtend,
		ManualUsername: username,
		ManualPassword: password,
		Status:         StatusPending,
		CreatedAt:      s.now(),
	}
	if err := s.repo.SavePending(ctx, o); err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"order_id": orderID,
		"chat_id":  chatID,
		"game":     gameType,
		"days":     duration,
	}).Info("extend order created")
	return o, dep, nil
}

// TrackPaymentMessage ties the sent QR message to the order: the message is
// auto-deleted at the order timeout and polled for settlement until then.
func (s *Service) TrackPaymentMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := s.repo.ScheduleAutoDelete(ctx, chatID, messageID, int(s.opts.Timeout.Seconds()), "payment"); err != nil {
		return err
	}
	return s.repo.StartPaymentCheck(ctx, chatID, messageID)
}

// Remaining returns how long the order has before it times out.
func (s *Service) Remaining(o *Order) time.Duration {
	return s.opts.Timeout - s.now().Sub(o.CreatedAt)
}

// Expired reports whether the order has outlived its timeout.
func (s *Service) Expired(o *Order) bool {
	return s.now().Sub(o.CreatedAt) > s.opts.Timeout
}

// Status is the outcome of one settlement check.
type Status struct {
	State     string         // pending, expired or completed
	Remaining time.Duration  // set while pending
	Result    *Completion    // set when completed
	Order     *Order
}

// CheckStatus runs the settlement logic for the chat's pending order: expire
// it when overdue, complete it when the deposit settled, otherwise report the
// remaining time. ErrNoActiveOrder when the chat has no pending order.
func (s *Service) CheckStatus(ctx context.Context, chatID int64) (*Status, error) {
	o, err := s.Pending(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if s.Expired(o) {
		if err := s.Expire(ctx, o); err != nil {
			return nil, err
		}
		return &Status{State: StatusExpired, Order: o}, nil
	}

	settled, err := s.gateway.CheckSettled(ctx, o.DepositCode)
	if err != nil {
		return nil, err
	}
	if !settled {
		return &Status{State: StatusPending, Remaining: s.Remaining(o), Order: o}, nil
	}

	res, err := s.Complete(ctx, o)
	if err != nil {
		return nil, err
	}
	return &Status{State: StatusCompleted, Result: res, Order: o}, nil
}

// Expire transitions an overdue order to expired. Losing the compare-and-set
// means another path already finished the order; that is not an error. The
// poll entry is dropped either way, the auto-delete stays so the tick still
// removes the stale QR message.
func (s *Service) Expire(ctx context.Context, o *Order) error {
	updated, err := s.repo.UpdateStatus(ctx, o.DepositCode, StatusExpired, StatusPending)
	if err != nil {
		return err
	}
	if updated {
		log.WithFields(log.Fields{"order_id": o.OrderID, "chat_id": o.ChatID}).Info("order expired")
	}
	return s.repo.StopPaymentCheck(ctx, o.ChatID)
}

// Cancel aborts the chat's pending order. ErrNoActiveOrder when there is
// nothing to cancel; losing the compare-and-set is reported as
// ErrOrderTerminal because the order finished under the caller.
func (s *Service) Cancel(ctx context.Context, chatID int64) (*Order, error) {
	o, err := s.Pending(ctx, chatID)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateStatus(ctx, o.DepositCode, StatusCancelled, StatusPending)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, common.ErrOrderTerminal
	}
	if err := s.repo.StopPaymentCheck(ctx, chatID); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("failed to stop payment check on cancel")
	}
	if err := s.repo.CancelAutoDelete(ctx, chatID, 0); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("failed to cancel auto delete on cancel")
	}
	log.WithFields(log.Fields{"order_id": o.OrderID, "chat_id": chatID}).Info("order cancelled")
	return o, nil
}

// Completion is what a completed order provisioned.
type Completion struct {
	Order        *Order
	Credentials  credentials.Pair // issued credentials (purchase orders)
	NewExpiry    time.Time        // new expiry (extend orders)
	PointsEarned int64
}

// Complete finishes a settled order exactly once. The compare-and-set on the
// status happens before any side effect: the winner provisions, a loser
// returns ErrOrderTerminal and must do nothing. If provisioning fails after
// the won transition the order stays completed — the payment is real and a
// second settlement path must not issue the key again; the failure surfaces
// to the caller for manual follow-up.
func (s *Service) Complete(ctx context.Context, o *Order) (*Completion, error) {
	updated, err := s.repo.UpdateStatus(ctx, o.DepositCode, StatusCompleted, StatusPending)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, common.ErrOrderTerminal
	}

	if err := s.repo.StopPaymentCheck(ctx, o.ChatID); err != nil {
		log.WithError(err).WithField("chat_id", o.ChatID).Warn("failed to stop payment check on completion")
	}
	if err := s.repo.CancelAutoDelete(ctx, o.ChatID, 0); err != nil {
		log.WithError(err).WithField("chat_id", o.ChatID).Warn("failed to cancel auto delete on completion")
	}

	res := &Completion{Order: o}
	switch o.KeyType {
	case KeyTypeExtend:
		affected, err := s.repo.ExtendLicense(ctx, o.ManualUsername, o.ManualPassword, o.Duration, o.GameType)
		if err != nil {
			return nil, fmt.Errorf("extend after settlement: %w", err)
		}
		if affected == 0 {
			return nil, fmt.Errorf("extend after settlement: %w", common.ErrLicenseNotFound)
		}
		lic, err := s.repo.GetLicense(ctx, o.ManualUsername, o.ManualPassword, o.GameType)
		if err == nil && lic != nil {
			res.NewExpiry = lic.ExpiresAt
		}
		res.Credentials = credentials.Pair{Username: o.ManualUsername, Password: o.ManualPassword}

	case KeyTypeManual:
		res.Credentials = credentials.Pair{Username: o.ManualUsername, Password: o.ManualPassword}
		if err := s.repo.SaveLicense(ctx, TableFor(o.GameType), res.Credentials.Username, res.Credentials.Password, o.Duration, s.opts.MerchantCode); err != nil {
			return nil, fmt.Errorf("save license after settlement: %w", err)
		}

	default: // KeyTypeRandom
		pair, err := s.creds.UniqueRandom(ctx, TableFor(o.GameType))
		if err != nil {
			return nil, fmt.Errorf("issue credentials after settlement: %w", err)
		}
		res.Credentials = pair
		if err := s.repo.SaveLicense(ctx, TableFor(o.GameType), pair.Username, pair.Password, o.Duration, s.opts.MerchantCode); err != nil {
			return nil, fmt.Errorf("save license after settlement: %w", err)
		}
	}

	res.PointsEarned = points.ForDuration(o.Duration)
	if err := s.points.AwardForPurchase(ctx, o.ChatID, o.Duration, o.OrderID); err != nil {
		// The key is already issued; a missed reward is logged, not fatal.
		log.WithError(err).WithField("order_id", o.OrderID).Warn("failed to award purchase points")
		res.PointsEarned = 0
	}

	log.WithFields(log.Fields{
		"order_id": o.OrderID,
		"chat_id":  o.ChatID,
		"key_type": o.KeyType,
	}).Info("order completed")
	return res, nil
}

// Redemption is the outcome of a points redemption.
type Redemption struct {
	Credentials credentials.Pair
	Days        int
	Cost        int64
	ExpiresAt   time.Time
	Balance     int64
}

// Redeem exchanges points for a key: generate unique credentials, debit the
// ledger, then persist the license. A failed persist refunds the debit with
// a compensating credit so the ledger stays append-only.
func (s *Service) Redeem(ctx context.Context, chatID int64, gameType string, days int) (*Redemption, error) {
	cost := s.points.RedeemCost(days)

	pair, err := s.creds.UniqueRedeem(ctx, TableFor(gameType))
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("redeem %d day key", days)
	if err := s.points.Debit(ctx, chatID, cost, desc); err != nil {
		return nil, err
	}

	if err := s.repo.SaveLicense(ctx, TableFor(gameType), pair.Username, pair.Password, days, s.opts.MerchantCode); err != nil {
		if refundErr := s.points.Credit(ctx, chatID, cost, "refund: "+desc); refundErr != nil {
			log.WithError(refundErr).WithFields(log.Fields{
				"chat_id": chatID,
				"points":  cost,
			}).Error("refund after failed redemption persist also failed")
		}
		return nil, err
	}

	balance, err := s.points.Balance(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("failed to read balance after redemption")
	}

	log.WithFields(log.Fields{
		"chat_id": chatID,
		"game":    gameType,
		"days":    days,
		"cost":    cost,
	}).Info("points redeemed for key")
	return &Redemption{
		Credentials: pair,
		Days:        days,
		Cost:        cost,
		ExpiresAt:   s.now().AddDate(0, 0, days),
		Balance:     balance,
	}, nil
}

// VerifyLicense checks that credentials belong to an existing license of the
// given game, for the extend flow's input validation.
func (s *Service) VerifyLicense(ctx context.Context, username, password, gameType string) (*License, error) {
	lic, err := s.repo.GetLicense(ctx, username, password, gameType)
	if err != nil {
		return nil, err
	}
	if lic == nil {
		return nil, common.ErrLicenseNotFound
	}
	return lic, nil
}

// UsernameFree reports whether manual credentials can still be used for the
// given game.
func (s *Service) UsernameFree(ctx context.Context, gameType, username string) error {
	exists, err := s.creds.Exists(ctx, TableFor(gameType), username)
	if err != nil {
		return err
	}
	if exists {
		return common.ErrUsernameTaken
	}
	return nil
}
