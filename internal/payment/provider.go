package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrMalformedSecret = errors.New("client secret does not name a payment intent")

// HTTPProvider confirms intents against a Stripe-compatible REST API.
type HTTPProvider struct {
	baseURL string
	key     string
	client  *http.Client
}

func NewHTTPProvider(baseURL, key string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type providerError struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	DeclineCode string `json:"decline_code"`
	Message     string `json:"message"`
}

type intentResponse struct {
	ID               string         `json:"id"`
	Status           string         `json:"status"`
	LastPaymentError *providerError `json:"last_payment_error"`
	Error            *providerError `json:"error"`
}

func (p *HTTPProvider) ConfirmCardPayment(ctx context.Context, clientSecret string, card Card) (string, error) {
	intentID := IntentIDFromSecret(clientSecret)
	if intentID == "" {
		return "", ErrMalformedSecret
	}

	form := url.Values{}
	form.Set("client_secret", clientSecret)
	form.Set("payment_method_data[type]", CardPaymentType)
	form.Set("payment_method_data[card][number]", card.Number)
	form.Set("payment_method_data[card][exp_month]", card.ExpMonth)
	form.Set("payment_method_data[card][exp_year]", card.ExpYear)
	form.Set("payment_method_data[card][cvc]", card.CVC)

	endpoint := fmt.Sprintf("%s/v1/payment_intents/%s/confirm", p.baseURL, url.PathEscape(intentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build confirm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if p.key != "" {
		req.Header.Set("Authorization", "Bearer "+p.key)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("confirm intent %s: %w", intentID, err)
	}
	defer resp.Body.Close()

	var body intentResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode confirm response (status %d): %w", resp.StatusCode, err)
	}

	if body.Error != nil {
		if resp.StatusCode == http.StatusPaymentRequired || body.Error.Type == "card_error" {
			return "", declined(body.Error)
		}
		return "", fmt.Errorf("confirm intent %s: provider returned %d: %s", intentID, resp.StatusCode, body.Error.Message)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("confirm intent %s: provider returned %d", intentID, resp.StatusCode)
	}

	switch body.Status {
	case "succeeded", "processing", "requires_capture":
		if body.ID == "" {
			return intentID, nil
		}
		return body.ID, nil
	default:
		if body.LastPaymentError != nil {
			return "", declined(body.LastPaymentError)
		}
		return "", &DeclinedError{Code: body.Status, Message: "payment intent is " + body.Status}
	}
}

func declined(e *providerError) *DeclinedError {
	code := e.DeclineCode
	if code == "" {
		code = e.Code
	}
	return &DeclinedError{Code: code, Message: e.Message}
}
