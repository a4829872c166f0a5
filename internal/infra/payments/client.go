package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"roamly/internal/app/policies"
	"roamly/internal/domain/shared/money"
)

// HTTPClient starts charges against the external payment collaborator
// and returns the redirect URL the guest completes payment at.
type HTTPClient struct {
	Client   *http.Client
	Endpoint string
	Logger   *slog.Logger
}

type initChargeRequest struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Email     string `json:"email"`
	Reference string `json:"reference"`
}

type initChargeResponse struct {
	RedirectURL string `json:"redirectUrl"`
	Reference   string `json:"reference"`
}

func (c *HTTPClient) InitCharge(ctx context.Context, amount money.Money, payerEmail, reference string) (policies.RedirectHandle, error) {
	var zero policies.RedirectHandle

	if c == nil || c.Client == nil {
		return zero, errors.New("payments: http client not configured")
	}
	if c.Endpoint == "" {
		return zero, errors.New("payments: endpoint not configured")
	}

	body, err := json.Marshal(initChargeRequest{
		Amount:    amount.Amount,
		Currency:  amount.Currency,
		Email:     payerEmail,
		Reference: reference,
	})
	if err != nil {
		return zero, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(request)
	if err != nil {
		c.logError("payment init request failed", reference, err)
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("payments: provider returned status %d: %s", resp.StatusCode, string(snippet))
		c.logError("payment init returned error", reference, err)
		return zero, err
	}

	var decoded initChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logError("payment init decode failed", reference, err)
		return zero, err
	}
	if decoded.RedirectURL == "" {
		return zero, errors.New("payments: provider response missing redirect url")
	}
	if decoded.Reference == "" {
		decoded.Reference = reference
	}

	return policies.RedirectHandle{
		RedirectURL: decoded.RedirectURL,
		Reference:   decoded.Reference,
	}, nil
}

func (c *HTTPClient) logError(msg, reference string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error(msg, "reference", reference, "error", err)
}
