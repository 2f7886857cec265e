package payment

import (
	"context"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// Stripe test card numbers honoured by the sandbox.
const (
	sandboxApproveCard = "4242424242424242"
	sandboxDeclineCard = "4000000000000002"
)

var sandboxDeclines = map[int]DeclinedError{
	1: {Code: "insufficient_funds", Message: "Your card has insufficient funds."},
	2: {Code: "card_declined", Message: "Your card was declined."},
	3: {Code: "expired_card", Message: "Your card has expired."},
	4: {Code: "incorrect_cvc", Message: "Your card's security code is incorrect."},
	5: {Code: "fraudulent", Message: "Your card was declined."},
}

// SandboxProvider approves most payments and declines the rest at random.
// Development only.
type SandboxProvider struct {
	roll func() int
}

func NewSandboxProvider() *SandboxProvider {
	return &SandboxProvider{roll: func() int {
		return rand.Intn(101) // 101 because Intn is exclusive of the upper bound
	}}
}

func (p *SandboxProvider) ConfirmCardPayment(ctx context.Context, clientSecret string, card Card) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	intentID := IntentIDFromSecret(clientSecret)
	if intentID == "" {
		intentID = "pi_sandbox_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	switch strings.ReplaceAll(card.Number, " ", "") {
	case sandboxApproveCard:
		return intentID, nil
	case sandboxDeclineCard:
		d := sandboxDeclines[2]
		return "", &d
	}
	return calcOutcome(p.roll(), intentID)
}

func calcOutcome(n int, intentID string) (string, error) {
	if n < 95 {
		return intentID, nil
	}
	d, ok := sandboxDeclines[n-95]
	if !ok {
		return "", &DeclinedError{Code: "unknown", Message: "unknown reason"}
	}
	return "", &d
}
