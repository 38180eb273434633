// Package payment talks to the checkout provider
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// CheckoutRequest describes a single-item checkout
type CheckoutRequest struct {
	OrderID    string
	Amount     decimal.Decimal
	BuyerName  string
	BuyerEmail string
	ItemID     string
	ItemName   string
}

// Checkout is the form created by the provider
type Checkout struct {
	Token       string
	RedirectURL string
	Form        string
}

// Result is the outcome of a payment as reported by the provider
type Result struct {
	Success    bool
	Status     string
	PaidAmount decimal.Decimal
	Reference  string
}

// Gateway creates checkout forms and retrieves their results
type Gateway interface {
	// Name returns the provider tag stored as the payment method
	Name() string

	// CreateCheckout registers a checkout form at the provider
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)

	// RetrievePayment returns the current result of an order
	RetrievePayment(ctx context.Context, orderID string) (*Result, error)
}
