package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/sharetube/partyqueue/pkg/ctxlogger"
	"github.com/sharetube/partyqueue/pkg/wsrouter"
)

func (c controller) wsRequestIdWSMw() wsrouter.Middleware[*client] {
	return func(next wsrouter.HandlerFunc[*client]) wsrouter.HandlerFunc[*client] {
		return func(ctx context.Context, conn *client, payload json.RawMessage) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_request_id", c.generateTimeBasedId()))
			return next(ctx, conn, payload)
		}
	}
}

// loggerWSMw never logs payloads: most of them carry credentials.
func (c controller) loggerWSMw() wsrouter.Middleware[*client] {
	return func(next wsrouter.HandlerFunc[*client]) wsrouter.HandlerFunc[*client] {
		return func(ctx context.Context, conn *client, payload json.RawMessage) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.InfoContext(ctx, "websocket message received", "payload_bytes", len(payload))

			start := time.Now()

			err := next(ctx, conn, payload)

			c.logger.InfoContext(ctx, "websocket message handled",
				"processing_time_us", time.Since(start).Microseconds(),
				"goroutines", runtime.NumGoroutine(),
				"failed", err != nil,
			)

			return err
		}
	}
}

func (c controller) recovererWSMw() wsrouter.Middleware[*client] {
	return func(next wsrouter.HandlerFunc[*client]) wsrouter.HandlerFunc[*client] {
		return func(ctx context.Context, conn *client, payload json.RawMessage) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					c.logger.ErrorContext(ctx, "panic in websocket handler",
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					err = errInternal
				}
			}()

			return next(ctx, conn, payload)
		}
	}
}

func (c controller) wsErrorHandler(ctx context.Context, conn *client, err error) {
	msg, _ := toErrorMessage(err)
	if msg.Type == ErrTypeInternal || msg.Type == ErrTypeExhaustedAttempts {
		c.logger.ErrorContext(ctx, "websocket handler failed", "error", err)
	} else {
		c.logger.InfoContext(ctx, "websocket request rejected", "error", err, "error_type", msg.Type)
	}

	c.writeToConn(ctx, conn, EventErrorMessage, msg)
}
