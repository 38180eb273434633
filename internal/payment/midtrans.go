package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type snapAPI interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type coreAPI interface {
	CheckTransaction(param string) (*coreapi.TransactionStatusResponse, *midtrans.Error)
}

// MidtransGateway implements Gateway with Midtrans Snap checkout
type MidtransGateway struct {
	snap   snapAPI
	core   coreAPI
	logger *zap.Logger
}

// NewMidtransGateway creates a gateway for the sandbox or production environment
func NewMidtransGateway(serverKey string, useProduction bool, logger *zap.Logger) *MidtransGateway {
	env := midtrans.Sandbox
	if useProduction {
		env = midtrans.Production
	}

	var snapClient snap.Client
	snapClient.New(serverKey, env)

	var coreClient coreapi.Client
	coreClient.New(serverKey, env)

	return &MidtransGateway{
		snap:   &snapClient,
		core:   &coreClient,
		logger: logger,
	}
}

// Name returns the provider tag
func (g *MidtransGateway) Name() string {
	return "midtrans"
}

// CreateCheckout creates a Snap transaction with one line item
func (g *MidtransGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Midtrans charges whole IDR
	grossAmount := req.Amount.Round(0).IntPart()
	if grossAmount <= 0 {
		return nil, errors.New("amount must be at least 1")
	}

	firstName, lastName := splitName(req.BuyerName)
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: grossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: firstName,
			LName: lastName,
			Email: req.BuyerEmail,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       req.ItemID,
				Name:     truncate(req.ItemName, 50),
				Price:    grossAmount,
				Qty:      1,
				Category: "course",
			},
		},
	}

	resp, mErr := g.snap.CreateTransaction(snapReq)
	if mErr != nil {
		g.logger.Error("midtrans create transaction failed",
			zap.String("order_id", req.OrderID),
			zap.Int("status_code", mErr.StatusCode),
			zap.String("message", mErr.Message),
		)
		return nil, fmt.Errorf("midtrans: %s", mErr.Message)
	}

	return &Checkout{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		Form:        resp.RedirectURL,
	}, nil
}

// RetrievePayment checks the transaction status of an order.
// settlement, or capture accepted by fraud detection, counts as paid.
func (g *MidtransGateway) RetrievePayment(ctx context.Context, orderID string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, mErr := g.core.CheckTransaction(orderID)
	if mErr != nil {
		g.logger.Error("midtrans check transaction failed",
			zap.String("order_id", orderID),
			zap.Int("status_code", mErr.StatusCode),
			zap.String("message", mErr.Message),
		)
		return nil, fmt.Errorf("midtrans: %s", mErr.Message)
	}

	status := strings.ToLower(resp.TransactionStatus)
	fraud := strings.ToLower(resp.FraudStatus)

	result := &Result{
		Status:    status,
		Reference: resp.TransactionID,
	}
	if amount, err := decimal.NewFromString(resp.GrossAmount); err == nil {
		result.PaidAmount = amount
	}

	switch status {
	case "settlement":
		result.Success = true
	case "capture":
		result.Success = fraud == "" || fraud == "accept"
	}

	return result, nil
}

func splitName(name string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	return first, strings.TrimSpace(last)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
