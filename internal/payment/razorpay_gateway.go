package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ishop-be/internal/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	razorpayOrdersPath = "/v1/orders"
	razorpayOrderPath  = "/v1/orders/{orderID}"
	gatewayTimeout     = 15 * time.Second
)

type razorpayGateway struct {
	client *resty.Client
}

// razorpayErrorBody is the gateway's error envelope.
type razorpayErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// ----------------- Constructor -----------------

// NewRazorpayGateway builds the long-lived order API client. It is
// constructed once at startup; rotating credentials means building a new one.
func NewRazorpayGateway(baseURL, keyID, keySecret string) Gateway {
	if keyID == "" || keySecret == "" {
		logger.L().Warn("Razorpay credentials are empty")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetBasicAuth(keyID, keySecret).
		SetTimeout(gatewayTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &razorpayGateway{client: client}
}

// ----------------- CreateOrder -----------------

func (g *razorpayGateway) CreateOrder(ctx context.Context, params OrderParams) (*GatewayOrder, error) {
	log := logger.FromCtx(ctx).With(
		zap.Int64("amount", params.AmountMinor),
		zap.String("currency", params.Currency),
		zap.String("receipt", params.Receipt),
	)

	log.Info("Sending order request to Razorpay")

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(params).
		Post(razorpayOrdersPath)
	if err != nil {
		log.Error("Razorpay request failed", zap.Error(err))
		return nil, &GatewayError{Detail: err.Error(), Err: err}
	}

	if !resp.IsSuccess() {
		log.Error("Razorpay returned non-success status",
			zap.Int("status", resp.StatusCode()),
			zap.ByteString("response", resp.Body()),
		)
		return nil, &GatewayError{StatusCode: resp.StatusCode(), Detail: errorDetail(resp.Body())}
	}

	order, err := decodeGatewayOrder(resp.Body())
	if err != nil {
		log.Error("Failed decoding Razorpay response", zap.Error(err))
		return nil, &GatewayError{StatusCode: resp.StatusCode(), Detail: "malformed gateway response", Err: err}
	}

	log.Info("Razorpay order created",
		zap.String("order_id", order.ID),
		zap.String("status", order.Status),
	)
	return order, nil
}

// ----------------- FetchOrder -----------------

func (g *razorpayGateway) FetchOrder(ctx context.Context, orderID string) (*GatewayOrder, error) {
	log := logger.FromCtx(ctx).With(zap.String("order_id", orderID))

	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("orderID", orderID).
		Get(razorpayOrderPath)
	if err != nil {
		log.Error("Razorpay request failed", zap.Error(err))
		return nil, &GatewayError{Detail: err.Error(), Err: err}
	}

	if !resp.IsSuccess() {
		detail := errorDetail(resp.Body())
		if resp.StatusCode() == http.StatusNotFound ||
			(resp.StatusCode() == http.StatusBadRequest && strings.Contains(detail, "does not exist")) {
			log.Warn("Order not found at Razorpay")
			return nil, ErrOrderNotFound
		}
		log.Error("Razorpay returned error",
			zap.Int("http_status", resp.StatusCode()),
			zap.ByteString("response", resp.Body()),
		)
		return nil, &GatewayError{StatusCode: resp.StatusCode(), Detail: detail}
	}

	order, err := decodeGatewayOrder(resp.Body())
	if err != nil {
		log.Error("Failed decoding Razorpay order", zap.Error(err))
		return nil, &GatewayError{StatusCode: resp.StatusCode(), Detail: "malformed gateway response", Err: err}
	}
	return order, nil
}

// errorDetail renders the gateway's error envelope as "CODE: description",
// falling back to the raw body.
func errorDetail(body []byte) string {
	var e razorpayErrorBody
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Description != "" {
		if e.Error.Code == "" {
			return e.Error.Description
		}
		return e.Error.Code + ": " + e.Error.Description
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return http.StatusText(http.StatusBadGateway)
}
