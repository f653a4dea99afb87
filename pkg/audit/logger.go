package audit

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/platinummonkey/menuguard/pkg/contextkeys"
)

// Logger persists system log entries
type Logger interface {
	Log(ctx context.Context, entry *Entry) error
	Close() error
}

// NoOpLogger discards every entry
type NoOpLogger struct{}

func (NoOpLogger) Log(ctx context.Context, entry *Entry) error { return nil }
func (NoOpLogger) Close() error                                { return nil }

type clientInfoKey struct{}

// ClientInfo is the caller address and agent recorded with each entry
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// WithClientInfo stores the caller address and agent in ctx
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFromContext returns the stored client info, if any
func ClientInfoFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}

// ClientInfoFromRequest extracts the client address, honoring proxy headers
func ClientInfoFromRequest(r *http.Request) ClientInfo {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		ip = strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	if ip == "" {
		ip = r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		}
	}
	return ClientInfo{IPAddress: ip, UserAgent: r.UserAgent()}
}

// WithRecorder adds a recorder to the context
func WithRecorder(ctx context.Context, recorder *Recorder) context.Context {
	return context.WithValue(ctx, contextkeys.AuditLoggerKey, recorder)
}

// RecorderFromContext retrieves the recorder from context. The result may be
// nil; every Recorder method accepts a nil receiver.
func RecorderFromContext(ctx context.Context) *Recorder {
	recorder, _ := ctx.Value(contextkeys.AuditLoggerKey).(*Recorder)
	return recorder
}
