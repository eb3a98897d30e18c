package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"purchase-reconciler/core/billing"
	"purchase-reconciler/core/billing/push"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	sessionsPath    = "/v1/accounts/{account}/sessions"
	sessionPath     = "/v1/sessions/{session}"
	purchasesPath   = "/v1/sessions/{session}/purchases"
	acknowledgePath = "/v1/sessions/{session}/purchases:acknowledge"
)

type sessionResponse struct {
	billing.Result
	SessionID string `json:"session_id"`
}

type purchasesResponse struct {
	billing.Result
	Purchases []billing.Purchase `json:"purchases"`
}

type acknowledgeRequest struct {
	PurchaseToken string `json:"purchase_token"`
}

// Client talks to the billing provider REST API.
type Client struct {
	http    *resty.Client
	account string
	feed    push.Feed
	logger  *zap.Logger
}

// New creates a provider client for the configured account. Pushed updates are
// taken from feed; pass push.NopFeed{} when push is not configured.
func New(cfg billing.Config, feed push.Feed, logger *zap.Logger) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(time.Duration(timeout)*time.Second).
		SetHeader("Accept", "application/json")
	if cfg.ApiKey != "" {
		httpClient.SetAuthToken(cfg.ApiKey)
	}
	if feed == nil {
		feed = push.NopFeed{}
	}

	return &Client{
		http:    httpClient,
		account: cfg.AccountID,
		feed:    feed,
		logger:  logger,
	}
}

// Connect implements billing.Client.
func (c *Client) Connect(ctx context.Context, listener billing.Listener) (billing.Session, error) {
	if c.account == "" {
		return nil, &billing.ResponseError{Op: "connect", Code: billing.DeveloperError, Message: "billing account id is not configured"}
	}

	var out sessionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("account", c.account).
		SetResult(&out).
		SetError(&out).
		Post(sessionsPath)
	if err := check("connect", resp, err, out.Result); err != nil {
		return nil, err
	}
	if out.SessionID == "" {
		return nil, &billing.ResponseError{Op: "connect", Code: billing.Error, Message: "provider returned no session id"}
	}

	s := &session{client: c, id: out.SessionID}
	cancel, err := c.feed.Subscribe(c.account, listener)
	if err != nil {
		_ = s.delete()
		return nil, fmt.Errorf("failed to register purchase update listener: %w", err)
	}
	s.unsubscribe = cancel

	c.logger.Debug("Billing session opened", zap.String("session_id", s.id))
	return s, nil
}

type session struct {
	client      *Client
	id          string
	unsubscribe func()
	closeOnce   sync.Once
	closeErr    error
}

func (s *session) QueryPurchases(ctx context.Context, productType billing.ProductType) ([]billing.Purchase, error) {
	var out purchasesResponse
	resp, err := s.client.http.R().
		SetContext(ctx).
		SetPathParam("session", s.id).
		SetQueryParam("product_type", string(productType)).
		SetResult(&out).
		SetError(&out).
		Get(purchasesPath)
	if err := check("query", resp, err, out.Result); err != nil {
		return nil, err
	}
	return out.Purchases, nil
}

func (s *session) Acknowledge(ctx context.Context, purchaseToken string) error {
	var out billing.Result
	resp, err := s.client.http.R().
		SetContext(ctx).
		SetPathParam("session", s.id).
		SetBody(acknowledgeRequest{PurchaseToken: purchaseToken}).
		SetResult(&out).
		SetError(&out).
		Post(acknowledgePath)
	return check("acknowledge", resp, err, out)
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.closeErr = s.delete()
	})
	return s.closeErr
}

func (s *session) delete() error {
	var out billing.Result
	resp, err := s.client.http.R().
		SetPathParam("session", s.id).
		SetResult(&out).
		SetError(&out).
		Delete(sessionPath)
	return check("close", resp, err, out)
}

// check folds transport failures, HTTP failures and provider codes into one error.
func check(op string, resp *resty.Response, err error, result billing.Result) error {
	if err != nil {
		code := billing.NetworkError
		if errors.Is(err, context.DeadlineExceeded) {
			code = billing.ServiceTimeout
		}
		return &billing.ResponseError{Op: op, Code: code, Message: err.Error(), Err: err}
	}
	if !result.OK() {
		return billing.NewResponseError(op, result)
	}
	if resp.IsError() {
		code := billing.Error
		if resp.StatusCode() == http.StatusServiceUnavailable {
			code = billing.ServiceUnavailable
		}
		return &billing.ResponseError{Op: op, Code: code, Message: fmt.Sprintf("http status %d", resp.StatusCode())}
	}
	return nil
}
