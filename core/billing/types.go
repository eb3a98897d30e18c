package billing

import (
	"fmt"
	"time"
)

// ResponseCode is the status code the billing provider attaches to every result.
// Exactly one code (OK) means success; every other code is a failure.
type ResponseCode int

const (
	ServiceTimeout      ResponseCode = -3
	FeatureNotSupported ResponseCode = -2
	ServiceDisconnected ResponseCode = -1
	OK                  ResponseCode = 0
	UserCanceled        ResponseCode = 1
	ServiceUnavailable  ResponseCode = 2
	BillingUnavailable  ResponseCode = 3
	ItemUnavailable     ResponseCode = 4
	DeveloperError      ResponseCode = 5
	Error               ResponseCode = 6
	ItemAlreadyOwned    ResponseCode = 7
	ItemNotOwned        ResponseCode = 8
	NetworkError        ResponseCode = 12
)

var codeNames = map[ResponseCode]string{
	ServiceTimeout:      "SERVICE_TIMEOUT",
	FeatureNotSupported: "FEATURE_NOT_SUPPORTED",
	ServiceDisconnected: "SERVICE_DISCONNECTED",
	OK:                  "OK",
	UserCanceled:        "USER_CANCELED",
	ServiceUnavailable:  "SERVICE_UNAVAILABLE",
	BillingUnavailable:  "BILLING_UNAVAILABLE",
	ItemUnavailable:     "ITEM_UNAVAILABLE",
	DeveloperError:      "DEVELOPER_ERROR",
	Error:               "ERROR",
	ItemAlreadyOwned:    "ITEM_ALREADY_OWNED",
	ItemNotOwned:        "ITEM_NOT_OWNED",
	NetworkError:        "NETWORK_ERROR",
}

// String returns the provider name of the code, e.g. "SERVICE_UNAVAILABLE(2)".
func (c ResponseCode) String() string {
	if name, ok := codeNames[c]; ok {
		return fmt.Sprintf("%s(%d)", name, int(c))
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(c))
}

// Result is the outcome the provider attaches to a connect, query, acknowledge or push.
type Result struct {
	Code         ResponseCode `json:"response_code"`
	DebugMessage string       `json:"debug_message,omitempty"`
}

// OK reports whether the result carries the success code.
func (r Result) OK() bool {
	return r.Code == OK
}

// ProductType selects the purchase category to query.
type ProductType string

const (
	// Subscription is the category reconciled by default.
	Subscription ProductType = "subs"
	// InApp covers one-time products.
	InApp ProductType = "inapp"
)

// IsValid reports whether the product type is one the provider understands.
func (p ProductType) IsValid() bool {
	return p == Subscription || p == InApp
}

// Purchase is the provider's read-only snapshot of one purchase.
type Purchase struct {
	// PurchaseToken identifies the transaction and is the acknowledgment key.
	PurchaseToken string `json:"purchase_token"`
	// OrderID is the provider order id, used to correlate reports.
	OrderID string `json:"order_id"`
	// Acknowledged is true once the provider has stored an acknowledgment.
	Acknowledged bool `json:"acknowledged"`
	// ProductIDs lists the products bought in this transaction.
	ProductIDs []string `json:"product_ids,omitempty"`
	// PurchaseTime is when the purchase was made.
	PurchaseTime time.Time `json:"purchase_time,omitempty"`
}
