package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type Method string

const (
	MethodPayOnline    Method = "pay-online"
	MethodBankTransfer Method = "bank-transfer"
)

func (m Method) IsValid() bool {
	return m == MethodPayOnline || m == MethodBankTransfer
}

// CardPaymentType is the only online payment method type wired end to end.
const CardPaymentType = "card"

// Method types the provider offers but this storefront does not handle.
var unsupportedTypes = map[string]bool{
	"apple_pay":  true,
	"google_pay": true,
	"klarna":     true,
}

var (
	ErrUnknownMethod            = errors.New("unknown payment method")
	ErrUnsupportedPaymentMethod = errors.New("payment method is not yet supported")
	ErrIllegalTransition        = errors.New("illegal payment state transition")
	ErrNoAttempt                = errors.New("no payment in progress")
	ErrWrongMethod              = errors.New("payment method does not match this step")
	ErrAlreadyConfirmed         = errors.New("payment already confirmed")
	ErrPaymentInProgress        = errors.New("payment already charged, finish it before switching method")
	ErrCheckoutChanged          = errors.New("checkout total changed after the payment was charged")
	ErrInvalidCard              = errors.New("card details are incomplete")
	ErrProofTooLarge            = errors.New("proof of payment exceeds the size limit")
	ErrProofType                = errors.New("proof of payment must be an image")
)

// DeclinedError is a refusal reported by the payment provider.
type DeclinedError struct {
	Code    string
	Message string
}

func (e *DeclinedError) Error() string {
	if e.Message == "" {
		return "payment declined: " + e.Code
	}
	return "payment declined: " + e.Message
}

// Card is the card data collected for an online payment.
type Card struct {
	Number   string `json:"number"`
	ExpMonth string `json:"exp_month"`
	ExpYear  string `json:"exp_year"`
	CVC      string `json:"cvc"`
}

func (c Card) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"number", c.Number},
		{"exp_month", c.ExpMonth},
		{"exp_year", c.ExpYear},
		{"cvc", c.CVC},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidCard, strings.Join(missing, ", "))
	}
	return nil
}

// Attempt is the payment sub-flow persisted in the session. Secrets and ids
// obtained along the way are kept so a retry resumes where it failed.
type Attempt struct {
	Method            Method               `json:"method"`
	Status            domain.PaymentStatus `json:"status"`
	FailedStep        domain.PaymentStatus `json:"failed_step,omitempty"`
	LastError         string               `json:"last_error,omitempty"`
	Total             decimal.Decimal      `json:"total"`
	PaymentMethodType string               `json:"payment_method_type,omitempty"`
	ClientSecret      string               `json:"client_secret,omitempty"`
	IntentID          string               `json:"intent_id,omitempty"`
	Confirmation      json.RawMessage      `json:"confirmation,omitempty"`
	ProofFilename     string               `json:"proof_filename,omitempty"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

func (a *Attempt) moveTo(next domain.PaymentStatus) error {
	if !domain.CanTransitionTo(a.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, a.Status, next)
	}
	a.Status = next
	if next != domain.PaymentFailed {
		a.FailedStep = ""
		a.LastError = ""
	}
	return nil
}

func (a *Attempt) fail(step domain.PaymentStatus, cause error) {
	if err := a.moveTo(domain.PaymentFailed); err != nil {
		return
	}
	a.FailedStep = step
	a.LastError = cause.Error()
}

// rewind discards an uncharged intent so the next call creates a new one
// for total.
func (a *Attempt) rewind(total decimal.Decimal) {
	a.ClientSecret = ""
	a.Total = total
	a.Status = domain.PaymentAwaitingIntent
	a.FailedStep = ""
	a.LastError = ""
}

// resumeStep is the step the next PayOnline call starts from.
func (a *Attempt) resumeStep() domain.PaymentStatus {
	if a.Status == domain.PaymentFailed {
		return a.FailedStep
	}
	return a.Status
}

// restartable reports whether a new method may replace this attempt. Once
// the provider has confirmed a charge the attempt must be finished.
func (a *Attempt) restartable() bool {
	if a.IntentID != "" && a.Status != domain.PaymentConfirmed {
		return false
	}
	return true
}

// IntentIDFromSecret derives the intent id from a Stripe-style client
// secret ("pi_123_secret_abc" -> "pi_123").
func IntentIDFromSecret(secret string) string {
	if i := strings.Index(secret, "_secret_"); i > 0 {
		return secret[:i]
	}
	return ""
}
