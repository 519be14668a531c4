package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/Digital-Creators-Team/casino-engine/httpclient"
	"github.com/Digital-Creators-Team/casino-engine/pkg/providers"
	"github.com/Digital-Creators-Team/casino-engine/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrPaymentRejected is an explicit refusal from the payment service.
var ErrPaymentRejected = errors.New("payment rejected")

// HTTPPaymentProvider implements providers.PaymentProvider against the
// payment service. Calls are never retried.
type HTTPPaymentProvider struct {
	client *httpclient.Client
	house  string
	logger zerolog.Logger
}

// NewHTTPPaymentProvider creates a payment provider bounded by cfg.Timeout
func NewHTTPPaymentProvider(cfg config.PaymentConfig, logger zerolog.Logger) *HTTPPaymentProvider {
	return newHTTPPaymentProvider(httpclient.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Logger:  logger,
	}), cfg.HouseAccount, logger)
}

func newHTTPPaymentProvider(client *httpclient.Client, house string, logger zerolog.Logger) *HTTPPaymentProvider {
	return &HTTPPaymentProvider{
		client: client,
		house:  house,
		logger: logger.With().Str("component", "payment_provider").Logger(),
	}
}

type paymentBody struct {
	PlayerID string `json:"playerId"`
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   string `json:"amount"`
	Purpose  string `json:"purpose"`
	RoundID  string `json:"roundId,omitempty"`
}

type signatureData struct {
	Signature string `json:"signature"`
}

type balanceData struct {
	Balance decimal.Decimal `json:"balance"`
}

// GetBalance retrieves the balance of address
func (p *HTTPPaymentProvider) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	resp, err := p.client.Get(ctx, "/wallet/balance", url.Values{"address": {address}})
	if err != nil {
		return decimal.Zero, classify(err)
	}
	if !resp.IsSuccess() {
		return decimal.Zero, fmt.Errorf("%w: balance status %d", ErrPaymentRejected, resp.StatusCode)
	}
	var out types.SuccessResponse[balanceData]
	if err := resp.Unmarshal(&out); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode balance: %w", err)
	}
	return out.Data.Balance, nil
}

// Transfer moves the stake from the player to the house account
func (p *HTTPPaymentProvider) Transfer(ctx context.Context, req *providers.TransferRequest) (string, error) {
	return p.post(ctx, "/payments/transfer", paymentBody{
		PlayerID: req.PlayerID,
		From:     req.From,
		To:       p.house,
		Amount:   req.Amount.String(),
		Purpose:  req.Purpose,
		RoundID:  req.RoundID,
	})
}

// Settle pays req.Amount from the house account to the player
func (p *HTTPPaymentProvider) Settle(ctx context.Context, req *providers.SettleRequest) (string, error) {
	return p.post(ctx, "/payments/settle", paymentBody{
		PlayerID: req.PlayerID,
		From:     p.house,
		To:       req.To,
		Amount:   req.Amount.String(),
		Purpose:  req.Purpose,
		RoundID:  req.RoundID,
	})
}

func (p *HTTPPaymentProvider) post(ctx context.Context, path string, body paymentBody) (string, error) {
	var out types.SuccessResponse[signatureData]
	err := p.client.PostJSON(ctx, path, body, &out)
	if err != nil {
		var status *httpclient.StatusError
		if errors.As(err, &status) {
			p.logger.Warn().Str("path", path).Int("status", status.StatusCode).Str("round_id", body.RoundID).Msg("payment rejected")
			return "", fmt.Errorf("%w: %s", ErrPaymentRejected, status.Body)
		}
		return "", classify(err)
	}
	if out.Data.Signature == "" {
		return "", fmt.Errorf("%w: empty signature", ErrPaymentRejected)
	}
	return out.Data.Signature, nil
}

// classify maps transport timeouts to providers.ErrNoResponse.
func classify(err error) error {
	if httpclient.IsTimeout(err) {
		return fmt.Errorf("%w: %v", providers.ErrNoResponse, err)
	}
	return err
}
