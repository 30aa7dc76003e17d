package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentOrderRequest is the inbound body of an order creation call.
// Amount is in major units and accepts either a JSON number or a numeric string.
type PaymentOrderRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

// OrderParams is what the gateway receives when an order is created.
type OrderParams struct {
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

// GatewayOrder is the gateway's order entity. It is relayed to clients
// exactly as the gateway returned it.
type GatewayOrder struct {
	ID         string          `json:"id"`
	Entity     string          `json:"entity"`
	Amount     int64           `json:"amount"`
	AmountPaid int64           `json:"amount_paid"`
	AmountDue  int64           `json:"amount_due"`
	Currency   string          `json:"currency"`
	Receipt    string          `json:"receipt"`
	Status     string          `json:"status"`
	Attempts   int             `json:"attempts"`
	Notes      json.RawMessage `json:"notes,omitempty"`
	CreatedAt  int64           `json:"created_at"`

	raw json.RawMessage
}

// MarshalJSON re-emits the gateway payload verbatim when one was captured.
func (o GatewayOrder) MarshalJSON() ([]byte, error) {
	if len(o.raw) > 0 {
		return o.raw, nil
	}
	type plain GatewayOrder
	return json.Marshal(plain(o))
}

func decodeGatewayOrder(body []byte) (*GatewayOrder, error) {
	var order GatewayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("decode gateway order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("decode gateway order: missing id")
	}
	order.raw = append(json.RawMessage(nil), body...)
	return &order, nil
}

// VerifyPaymentRequest is the client's report that checkout completed.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// PaymentConfirmation is a verified payment report. It is written once and never updated.
type PaymentConfirmation struct {
	ID        int64     `json:"id"`
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id"`
	Signature string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type VerifyResult struct {
	Confirmation *PaymentConfirmation
	Duplicate    bool
}

type OrderStatus struct {
	Order         *GatewayOrder         `json:"order"`
	Confirmations []PaymentConfirmation `json:"confirmations"`
	Confirmed     bool                  `json:"confirmed"`
}

// DuplicatePolicy decides what happens when an order already has a stored confirmation.
type DuplicatePolicy string

const (
	// PolicyAppend stores every verified report, duplicates included.
	PolicyAppend DuplicatePolicy = "append"
	// PolicyDedupe stores the first report and acknowledges later ones without writing.
	PolicyDedupe DuplicatePolicy = "dedupe"
	// PolicyReject stores the first report and refuses later ones.
	PolicyReject DuplicatePolicy = "reject"
)

func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(s); p {
	case PolicyAppend, PolicyDedupe, PolicyReject:
		return p, nil
	case "":
		return PolicyAppend, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}
