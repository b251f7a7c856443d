// Package payment implements the QRIS deposit gateway client. The gateway is
// a single GET endpoint dispatching on ?action=: get-deposit creates a deposit
// with a QR image, get-mutasi reports whether it has settled.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"licensebot/internal/common"
)

// Deposit is a freshly created QRIS deposit.
type Deposit struct {
	Code      string
	QRURL     string
	ExpiresAt string
}

// Gateway is what order processing needs from the payment side.
// *Client satisfies it; tests substitute fakes.
type Gateway interface {
	CreateDeposit(ctx context.Context, orderID string, amount int64) (*Deposit, error)
	CheckSettled(ctx context.Context, depositCode string) (bool, error)
}

// Client talks to the QRIS gateway.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a gateway client for the given base URL (e.g. "https://host/qris/").
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type depositResponse struct {
	Status bool `json:"status"`
	Data   struct {
		KodeDeposit string `json:"kode_deposit"`
		LinkQR      string `json:"link_qr"`
		ExpiredAt   string `json:"expired_at"`
	} `json:"data"`
	Message string `json:"message"`
}

type mutationResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Status string `json:"status"`
	} `json:"data"`
}

// CreateDeposit asks the gateway for a new deposit covering amount Rupiah.
// Any gateway-side rejection or transport failure surfaces as ErrPaymentGateway.
func (c *Client) CreateDeposit(ctx context.Context, orderID string, amount int64) (*Deposit, error) {
	q := url.Values{}
	q.Set("action", "get-deposit")
	q.Set("kode", orderID)
	q.Set("nominal", strconv.FormatInt(amount, 10))

	var resp depositResponse
	if err := c.get(ctx, q, &resp); err != nil {
		return nil, err
	}
	if !resp.Status || resp.Data.KodeDeposit == "" {
		log.WithFields(log.Fields{"order_id": orderID, "message": resp.Message}).Warn("deposit rejected by gateway")
		return nil, fmt.Errorf("%w: deposit rejected", common.ErrPaymentGateway)
	}
	return &Deposit{
		Code:      resp.Data.KodeDeposit,
		QRURL:     resp.Data.LinkQR,
		ExpiresAt: resp.Data.ExpiredAt,
	}, nil
}

// CheckSettled reports whether the deposit has been paid. Only an explicit
// "Success" mutation counts as settled; anything ambiguous is not settled.
func (c *Client) CheckSettled(ctx context.Context, depositCode string) (bool, error) {
	q := url.Values{}
	q.Set("action", "get-mutasi")
	q.Set("kode", depositCode)

	var resp mutationResponse
	if err := c.get(ctx, q, &resp); err != nil {
		return false, err
	}
	return resp.Status && resp.Data.Status == "Success", nil
}

func (c *Client) get(ctx context.Context, q url.Values, out interface{}) error {
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrPaymentGateway, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).WithField("action", q.Get("action")).Warn("payment gateway unreachable")
		return fmt.Errorf("%w: %v", common.ErrPaymentGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithFields(log.Fields{"action": q.Get("action"), "status": resp.StatusCode}).Warn("payment gateway returned non-200")
		return fmt.Errorf("%w: status %d", common.ErrPaymentGateway, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", common.ErrPaymentGateway, err)
	}
	return nil
}
