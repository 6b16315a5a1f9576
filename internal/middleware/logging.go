package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitchat/internal/metrics"
)

// sessionScoped is implemented by request messages that target a session.
type sessionScoped interface {
	GetSessionID() string
}

// Logging returns an interceptor that logs each RPC with its session and
// request IDs and counts it by procedure and Connect code. Register it after
// RequestID so the ID is available. A nil logger uses slog.Default and m may
// be nil.
func Logging(logger *slog.Logger, m *metrics.Metrics) connect.UnaryInterceptorFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := procedureName(req.Spec().Procedure)

			attrs := []any{"procedure", procedure, "request_id", GetRequestID(ctx)}
			if msg, ok := req.Any().(sessionScoped); ok && msg.GetSessionID() != "" {
				attrs = append(attrs, "session_id", msg.GetSessionID())
			}

			resp, err := next(ctx, req)

			attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())
			if err == nil {
				m.RPC(procedure, "ok")
				logger.Debug("RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			m.RPC(procedure, code.String())
			attrs = append(attrs, "code", code.String(), "error", err)
			switch code {
			case connect.CodeInvalidArgument, connect.CodeNotFound,
				connect.CodeFailedPrecondition, connect.CodeResourceExhausted:
				logger.Info("RPC rejected", attrs...)
			default:
				logger.Error("RPC failed", attrs...)
			}
			return resp, err
		}
	}
}

// procedureName turns "/splitchat.v1.SplitService/SendMessage" into
// "SendMessage".
func procedureName(procedure string) string {
	if i := strings.LastIndexByte(procedure, '/'); i >= 0 {
		return procedure[i+1:]
	}
	return procedure
}
