package payment

import "context"

// Gateway is the external payment processor's order API.
type Gateway interface {
	CreateOrder(ctx context.Context, params OrderParams) (*GatewayOrder, error)
	FetchOrder(ctx context.Context, orderID string) (*GatewayOrder, error)
}
