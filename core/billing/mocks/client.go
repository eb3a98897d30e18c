package mocks

import (
	"context"

	"purchase-reconciler/core/billing"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of billing.Client
type Client struct {
	mock.Mock
}

func (m *Client) Connect(ctx context.Context, listener billing.Listener) (billing.Session, error) {
	args := m.Called(ctx, listener)
	if s, ok := args.Get(0).(billing.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// Session is a mock implementation of billing.Session
type Session struct {
	mock.Mock
}

func (m *Session) QueryPurchases(ctx context.Context, productType billing.ProductType) ([]billing.Purchase, error) {
	args := m.Called(ctx, productType)
	if p, ok := args.Get(0).([]billing.Purchase); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Session) Acknowledge(ctx context.Context, purchaseToken string) error {
	args := m.Called(ctx, purchaseToken)
	return args.Error(0)
}

func (m *Session) Close() error {
	args := m.Called()
	return args.Error(0)
}
