package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TestGateway is an in-process provider where every checkout succeeds
type TestGateway struct {
	mu     sync.Mutex
	orders map[string]decimal.Decimal
}

// NewTestGateway creates a sandbox gateway
func NewTestGateway() *TestGateway {
	return &TestGateway{
		orders: make(map[string]decimal.Decimal),
	}
}

// Name returns the provider tag
func (g *TestGateway) Name() string {
	return "test"
}

// CreateCheckout records the order and returns a random token
func (g *TestGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	g.mu.Lock()
	g.orders[req.OrderID] = req.Amount
	g.mu.Unlock()

	token := "test-" + uuid.NewString()
	return &Checkout{
		Token: token,
		Form:  `<div id="test-checkout" data-token="` + token + `"></div>`,
	}, nil
}

// RetrievePayment reports every order as settled
func (g *TestGateway) RetrievePayment(ctx context.Context, orderID string) (*Result, error) {
	g.mu.Lock()
	amount := g.orders[orderID]
	g.mu.Unlock()

	return &Result{
		Success:    true,
		Status:     "settlement",
		PaidAmount: amount,
		Reference:  orderID,
	}, nil
}
