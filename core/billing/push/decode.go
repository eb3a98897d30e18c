package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"purchase-reconciler/core/billing"
	"purchase-reconciler/core/utils"
)

// ErrMissingToken is returned when a pushed purchase has no purchase token.
var ErrMissingToken = errors.New("purchase without purchase_token")

// DecodeUpdate parses a provider purchase-update payload:
//
//	{"response_code": 0, "debug_message": "", "purchases": [{"purchase_token": "T1",
//	  "order_id": "O1", "acknowledged": false, "product_ids": ["gold"], "purchase_time": 1700000000000}]}
//
// The provider is loose about types: codes may arrive as strings, booleans as 0/1,
// and purchase_time as epoch milliseconds or RFC 3339.
func DecodeUpdate(data []byte) (billing.Result, []billing.Purchase, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return billing.Result{}, nil, fmt.Errorf("failed to decode purchase update: %w", err)
	}

	result := billing.Result{
		Code:         billing.ResponseCode(utils.ToInt(raw["response_code"])),
		DebugMessage: utils.ToString(raw["debug_message"]),
	}

	items, _ := raw["purchases"].([]any)
	if raw["purchases"] == nil {
		return result, nil, nil
	}
	if items == nil {
		return billing.Result{}, nil, fmt.Errorf("failed to decode purchase update: purchases is not a list")
	}

	purchases := make([]billing.Purchase, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return billing.Result{}, nil, fmt.Errorf("failed to decode purchase %d: not an object", i)
		}
		p := billing.Purchase{
			PurchaseToken: utils.ToString(fields["purchase_token"]),
			OrderID:       utils.ToString(fields["order_id"]),
			Acknowledged:  utils.ToBool(fields["acknowledged"]),
			ProductIDs:    utils.ToStringSlice(fields["product_ids"]),
			PurchaseTime:  parseTime(fields["purchase_time"]),
		}
		if p.PurchaseToken == "" {
			return billing.Result{}, nil, fmt.Errorf("failed to decode purchase %d: %w", i, ErrMissingToken)
		}
		purchases = append(purchases, p)
	}

	return result, purchases, nil
}

func parseTime(val any) time.Time {
	switch v := val.(type) {
	case float64:
		return time.UnixMilli(int64(v)).UTC()
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
		if ms := utils.ToInt(v); ms > 0 {
			return time.UnixMilli(int64(ms)).UTC()
		}
	}
	return time.Time{}
}
