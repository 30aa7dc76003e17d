package payment

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"ishop-be/internal/logger"
	"ishop-be/internal/metrics"
	"ishop-be/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	CreateOrder(ctx context.Context, req PaymentOrderRequest) (*GatewayOrder, error)
	VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*VerifyResult, error)
	GetOrder(ctx context.Context, orderID string) (*OrderStatus, error)
}

// ServiceConfig is read-only process configuration shared by all requests.
type ServiceConfig struct {
	// Secret keys the callback signature. It is never logged.
	Secret   string
	Currency string
	Policy   DuplicatePolicy
	Metrics  *metrics.Payments

	// MaxAmount caps a single order in major units. Zero means no cap
	// beyond what the gateway amount field can hold.
	MaxAmount decimal.Decimal
}

type service struct {
	gateway   Gateway
	repo      Repository
	secret    string
	currency  string
	policy    DuplicatePolicy
	maxAmount decimal.Decimal
	validate  *validator.Validate
	metrics   *metrics.Payments
}

func NewService(gateway Gateway, repo Repository, cfg ServiceConfig) Service {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewPayments()
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyAppend
	}
	return &service{
		gateway:   gateway,
		repo:      repo,
		secret:    cfg.Secret,
		currency:  cfg.Currency,
		policy:    cfg.Policy,
		maxAmount: cfg.MaxAmount,
		validate:  newValidator(),
		metrics:   cfg.Metrics,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError lists the offending JSON fields under ErrValidation.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fe.Field())
		}
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func (s *service) CreateOrder(ctx context.Context, req PaymentOrderRequest) (*GatewayOrder, error) {
	log := logger.FromCtx(ctx)

	if err := s.validate.Struct(req); err != nil {
		s.metrics.OrdersInvalid.Inc()
		return nil, validationError(err)
	}
	amountMinor, err := MinorUnits(*req.Amount, s.maxAmount)
	if err != nil {
		s.metrics.OrdersInvalid.Inc()
		return nil, err
	}

	params := OrderParams{
		AmountMinor: amountMinor,
		Currency:    s.currency,
		Receipt:     utils.GenerateReceipt(),
	}

	timer := metrics.StartTimer()
	order, err := s.gateway.CreateOrder(ctx, params)
	s.metrics.ObserveGateway(timer)
	if err != nil {
		s.metrics.OrdersFailed.Inc()
		log.Error("order creation failed",
			zap.String("receipt", params.Receipt),
			zap.Int64("amount", params.AmountMinor),
			zap.Error(err),
		)
		var gwErr *GatewayError
		if !errors.As(err, &gwErr) {
			err = &GatewayError{Detail: err.Error(), Err: err}
		}
		return nil, err
	}

	s.metrics.OrdersCreated.Inc()
	log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("receipt", params.Receipt),
	)
	return order, nil
}

// VerifyPayment authenticates a client's payment report and records it.
// Nothing is stored unless the signature matches.
func (s *service) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*VerifyResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", req.OrderID),
		zap.String("payment_id", req.PaymentID),
	)

	if err := s.validate.Struct(req); err != nil {
		s.metrics.VerifyInvalid.Inc()
		err = validationError(err)
		log.Warn("payment report invalid", zap.Error(err))
		return nil, err
	}

	authentic, err := VerifySignature(req.OrderID, req.PaymentID, req.Signature, s.secret)
	if err != nil {
		s.metrics.VerifyInvalid.Inc()
		log.Warn("payment report invalid", zap.Error(err))
		return nil, err
	}
	if !authentic {
		s.metrics.VerifyRejected.Inc()
		log.Warn("payment signature rejected")
		return nil, ErrVerificationRejected
	}

	confirmation := &PaymentConfirmation{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	}

	duplicate, err := s.repo.SaveConfirmation(ctx, confirmation, s.policy)
	if err != nil {
		s.metrics.VerifyPersistFails.Inc()
		log.Error("failed to persist payment confirmation", zap.Error(err))
		var storeErr *StorageError
		if !errors.As(err, &storeErr) {
			err = &StorageError{Op: "save confirmation", Err: err}
		}
		return nil, err
	}

	if duplicate {
		s.metrics.VerifyDuplicate.Inc()
		if s.policy == PolicyReject {
			log.Warn("duplicate payment confirmation rejected")
			return nil, ErrDuplicateConfirmation
		}
		log.Info("duplicate payment confirmation acknowledged")
		return &VerifyResult{Confirmation: confirmation, Duplicate: true}, nil
	}

	s.metrics.VerifyConfirmed.Inc()
	log.Info("payment confirmed", zap.Int64("confirmation_id", confirmation.ID))
	return &VerifyResult{Confirmation: confirmation}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID string) (*OrderStatus, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrValidation)
	}

	order, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	confirmations, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list confirmations",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return nil, err
	}

	return &OrderStatus{
		Order:         order,
		Confirmations: confirmations,
		Confirmed:     len(confirmations) > 0,
	}, nil
}
