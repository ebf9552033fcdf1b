package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sharetube/partyqueue/pkg/validator"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownType      = errors.New("unknown message type")
	ErrInvalidPayload   = errors.New("invalid payload")
)

// PayloadError carries the field violations of a rejected payload.
type PayloadError struct {
	Errors []validator.ValidationError
}

func (e *PayloadError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

func (e *PayloadError) Unwrap() error {
	return ErrInvalidPayload
}

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// HandlerFunc serves one inbound message. C is the connection type.
type HandlerFunc[C any] func(ctx context.Context, conn C, payload json.RawMessage) error

type Middleware[C any] func(next HandlerFunc[C]) HandlerFunc[C]

// ErrorHandler receives every error a handler returns, including routing and
// decoding failures.
type ErrorHandler[C any] func(ctx context.Context, conn C, err error)

type WSRouter[C any] struct {
	routes       map[string]HandlerFunc[C]
	middlewares  []Middleware[C]
	errorHandler ErrorHandler[C]
	validate     *validator.Validator
}

func New[C any](validate *validator.Validator) *WSRouter[C] {
	return &WSRouter[C]{
		routes:       make(map[string]HandlerFunc[C]),
		errorHandler: func(context.Context, C, error) {},
		validate:     validate,
	}
}

// Use appends middlewares. The first one registered runs outermost.
func (r *WSRouter[C]) Use(mws ...Middleware[C]) {
	r.middlewares = append(r.middlewares, mws...)
}

func (r *WSRouter[C]) SetErrorHandler(h ErrorHandler[C]) {
	r.errorHandler = h
}

func (r *WSRouter[C]) HandleRaw(messageType string, h HandlerFunc[C]) {
	r.routes[messageType] = h
}

// Handle registers a handler with a typed payload. The payload is decoded and
// validated before h runs.
func Handle[C, T any](r *WSRouter[C], messageType string, h func(ctx context.Context, conn C, input T) error) {
	r.HandleRaw(messageType, func(ctx context.Context, conn C, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 && string(payload) != "null" {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
		}

		if r.validate != nil {
			if errs, ok := r.validate.Validate(input); !ok {
				return &PayloadError{Errors: errs}
			}
		}

		return h(ctx, conn, input)
	})
}

// Dispatch routes one raw frame. Errors go to the error handler, never back
// to the caller, so one bad message never ends the connection.
func (r *WSRouter[C]) Dispatch(ctx context.Context, conn C, data []byte) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		r.errorHandler(ctx, conn, fmt.Errorf("%w: %w", ErrMalformedMessage, err))
		return
	}

	ctx = context.WithValue(ctx, messageTypeKey, msg.Type)

	handler, ok := r.routes[msg.Type]
	if !ok {
		handler = func(context.Context, C, json.RawMessage) error {
			return fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
		}
	}

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	if err := handler(ctx, conn, msg.Payload); err != nil {
		r.errorHandler(ctx, conn, err)
	}
}
