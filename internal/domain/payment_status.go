package domain

type PaymentStatus string

const (
	PaymentSelectingMethod   PaymentStatus = "SELECTING_METHOD"
	PaymentAwaitingIntent    PaymentStatus = "AWAITING_INTENT"
	PaymentConfirmingPayment PaymentStatus = "CONFIRMING_PAYMENT"
	PaymentRecordingPayment  PaymentStatus = "RECORDING_PAYMENT"
	PaymentAwaitingTransfer  PaymentStatus = "AWAITING_TRANSFER"
	PaymentConfirmed         PaymentStatus = "CONFIRMED"
	PaymentFailed            PaymentStatus = "FAILED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentSelectingMethod:   {PaymentAwaitingIntent, PaymentAwaitingTransfer},
	PaymentAwaitingIntent:    {PaymentConfirmingPayment, PaymentFailed},
	PaymentConfirmingPayment: {PaymentRecordingPayment, PaymentFailed},
	PaymentRecordingPayment:  {PaymentConfirmed, PaymentFailed},
	// A failed attempt re-enters the step that failed; the caller checks which one.
	PaymentFailed: {PaymentAwaitingIntent, PaymentConfirmingPayment, PaymentRecordingPayment},
}

func CanTransitionTo(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentConfirmed
}

// String representation (for logging)
func (s PaymentStatus) String() string {
	return string(s)
}
