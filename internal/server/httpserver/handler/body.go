package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yndnr/storefront-go/internal/core/domain"
)

type bodyKey struct{}

// WithBody stores a validated JSON request body in ctx.
func WithBody(ctx context.Context, raw json.RawMessage) context.Context {
	return context.WithValue(ctx, bodyKey{}, raw)
}

// Body returns the JSON request body stored by WithBody, or nil.
func Body(ctx context.Context) json.RawMessage {
	raw, _ := ctx.Value(bodyKey{}).(json.RawMessage)
	return raw
}

// decode unmarshals the request's JSON body into v. Requests without a
// JSON body leave v untouched.
func decode(r *http.Request, v any) error {
	raw := Body(r.Context())
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return domain.ErrBadRequest.WithDetails("field " + typeErr.Field + " has the wrong type")
		}
		return domain.ErrBadRequest.WithCause(err)
	}
	return nil
}
