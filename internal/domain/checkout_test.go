package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShippingMethodFee(t *testing.T) {
	assert.Equal(t, "10", ShippingStandard.Fee().String())
	assert.Equal(t, "20", ShippingExpress.Fee().String())
	assert.True(t, ShippingCashOnDelivery.Fee().IsZero())
	assert.True(t, ShippingMethod("drone").Fee().IsZero())
	assert.False(t, ShippingMethod("drone").IsValid())
}

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, CanTransitionTo(PaymentSelectingMethod, PaymentAwaitingIntent))
	assert.True(t, CanTransitionTo(PaymentSelectingMethod, PaymentAwaitingTransfer))
	assert.True(t, CanTransitionTo(PaymentRecordingPayment, PaymentConfirmed))
	assert.True(t, CanTransitionTo(PaymentFailed, PaymentConfirmingPayment))

	assert.False(t, CanTransitionTo(PaymentSelectingMethod, PaymentConfirmed))
	assert.False(t, CanTransitionTo(PaymentConfirmed, PaymentFailed))
	assert.False(t, CanTransitionTo(PaymentAwaitingTransfer, PaymentFailed))
	assert.True(t, PaymentConfirmed.IsTerminal())
}
