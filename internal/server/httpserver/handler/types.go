package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/telemetry/logger"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// WriteJSON writes data in a success envelope.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeEnvelope(w, status, NewResponse(requestIDOf(w, r), data))
}

// requestIDOf prefers the context value and falls back to the response
// header set by the request ID middleware.
func requestIDOf(w http.ResponseWriter, r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return w.Header().Get("X-Request-ID")
}

// WriteError writes err as an error envelope. Domain errors keep their
// code and status; anything else becomes SF-SYS-5000 and is logged without
// leaking the detail to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	requestID := requestIDOf(w, r)

	var de *domain.DomainError
	if !errors.As(err, &de) {
		log.ErrorContext(r.Context(), "unhandled error",
			"method", r.Method, "path", r.URL.Path, "error", err)
		de = domain.ErrInternalServer
	}

	status := domain.HTTPStatus(de.Code)
	if status >= http.StatusInternalServerError && de.Cause != nil {
		log.ErrorContext(r.Context(), "request failed",
			"code", de.Code, "error", de.Cause)
	}

	var details any
	if de.Details != "" {
		details = de.Details
	}
	w.Header().Set("X-Error-Code", de.Code)
	if status == http.StatusTooManyRequests && w.Header().Get("Retry-After") == "" {
		w.Header().Set("Retry-After", "1")
	}
	writeEnvelope(w, status, NewErrorResponse(requestID, de.Code, de.Message, details))
}

func writeEnvelope(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// ============================================================================
// Request bodies
// ============================================================================

// RegisterRequest is the body of POST /api/user/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/user/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IDRequest is the body of requests naming a single entity.
type IDRequest struct {
	ID string `json:"id"`
}

// AddProductRequest is the JSON body of POST /api/product/add.
type AddProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Category    string   `json:"category"`
	SubCategory string   `json:"subCategory"`
	Sizes       []string `json:"sizes"`
	Bestseller  bool     `json:"bestseller"`
	Images      []string `json:"images"`
}

// UserRequest is the body of requests scoped to a user.
type UserRequest struct {
	UserID string `json:"userId"`
}

// CartItemRequest is the body of POST /api/cart/add and /api/cart/update.
type CartItemRequest struct {
	UserID   string `json:"userId"`
	ItemID   string `json:"itemId"`
	Size     string `json:"size"`
	Quantity *int   `json:"quantity,omitempty"`
}

// PlaceOrderRequest is the body of POST /api/order/place.
type PlaceOrderRequest struct {
	UserID        string         `json:"userId"`
	Address       map[string]any `json:"address"`
	PaymentMethod string         `json:"paymentMethod"`
}

// OrderStatusRequest is the body of POST /api/order/status.
type OrderStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}
