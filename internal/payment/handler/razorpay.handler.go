package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"ishop-be/internal/logger"
	"ishop-be/internal/payment"
	"ishop-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Handler exposes order creation and payment verification over HTTP.
type Handler struct {
	Svc payment.Service
}

func NewHandler(svc payment.Service) *Handler {
	return &Handler{Svc: svc}
}

// Routes mounts the payment endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/order", h.CreateOrder)
	r.Post("/verify", h.VerifyPayment)
	r.Get("/order/{orderID}", h.GetOrder)
}

// CreateOrder handles POST /order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req payment.PaymentOrderRequest
	if !decode(w, r, &req) {
		return
	}

	order, err := h.Svc.CreateOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"data": order})
}

// VerifyPayment handles POST /verify. Every outcome gets an explicit response.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req payment.VerifyPaymentRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Svc.VerifyPayment(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	body := map[string]any{"message": "confirmed"}
	if res.Duplicate {
		body["duplicate"] = true
	}
	utils.WriteJSON(w, http.StatusOK, body)
}

// GetOrder handles GET /order/{orderID}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	status, err := h.Svc.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"data": status})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		utils.WriteJSONError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

// writeError maps service errors to responses. Storage and unexpected
// failures never reveal internals to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		gwErr    *payment.GatewayError
		storeErr *payment.StorageError
	)

	switch {
	case errors.Is(err, payment.ErrValidation):
		utils.WriteJSONError(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, payment.ErrVerificationRejected):
		utils.WriteJSONError(w, http.StatusUnauthorized, "payment not authentic", "")
	case errors.Is(err, payment.ErrDuplicateConfirmation):
		utils.WriteJSONError(w, http.StatusConflict, "payment already confirmed", "")
	case errors.Is(err, payment.ErrOrderNotFound):
		utils.WriteJSONError(w, http.StatusNotFound, "order not found", "")
	case errors.As(err, &gwErr):
		utils.WriteJSONError(w, http.StatusInternalServerError, "Something went wrong", gwErr.Detail)
	case errors.As(err, &storeErr):
		utils.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error!", "")
	default:
		logger.FromCtx(r.Context()).Error("unhandled payment error",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		utils.WriteJSONError(w, http.StatusInternalServerError, "internal server error", "")
	}
}
