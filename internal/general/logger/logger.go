package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// ErrorObject is attached to ERROR lines only.
type ErrorObject struct {
	Msg   string `json:"msg"`
	Stack string `json:"stack"`
}

// LogEntry is the single-line JSON format written to stdout.
type LogEntry struct {
	Timestamp string       `json:"timestamp"`            // RFC 3339, UTC
	Level     string       `json:"level"`                // DEBUG | INFO | ERROR
	Service   string       `json:"service"`              // e.g. tracking-service
	Action    string       `json:"action"`               // event name, e.g. location_accepted
	Message   string       `json:"message"`              // human-readable description
	Hostname  string       `json:"hostname"`             // emitting host
	RequestID string       `json:"request_id,omitempty"` // correlation id for tracing
	OrgID     string       `json:"org_id,omitempty"`     // organization scope, when known
	ConnID    string       `json:"conn_id,omitempty"`    // websocket session, when known
	Details   any          `json:"details,omitempty"`    // extra fields, map or struct
	Error     *ErrorObject `json:"error,omitempty"`
}

// Logger writes structured JSON lines. One instance per process; the ids
// that vary per operation travel in the context, not in the logger.
type Logger struct {
	service  string
	hostname string
	mu       sync.Mutex
}

// New creates a structured logger for the given service.
func New(service string) *Logger {
	hostname, err := os.Hostname()
	if err != nil || strings.TrimSpace(hostname) == "" {
		hostname = "unknown-hostname"
	}
	if strings.TrimSpace(service) == "" {
		service = "unknown-service"
	}
	return &Logger{service: service, hostname: hostname}
}

// Debug writes a DEBUG line with optional details.
func (l *Logger) Debug(ctx context.Context, action, msg string, details any) {
	l.write(ctx, "DEBUG", action, msg, details, nil)
}

// Info writes an INFO line with optional details.
func (l *Logger) Info(ctx context.Context, action, msg string, details any) {
	l.write(ctx, "INFO", action, msg, details, nil)
}

// Error writes an ERROR line with the error message and a stack trace.
func (l *Logger) Error(ctx context.Context, action, msg string, err error, details any) {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	l.write(ctx, "ERROR", action, msg, details, &ErrorObject{
		Msg:   strings.TrimSpace(err.Error()),
		Stack: string(debug.Stack()),
	})
}

// write assembles the entry from the call and the context, then emits it.
func (l *Logger) write(ctx context.Context, level, action, msg string, details any, errObj *ErrorObject) {
	action = strings.TrimSpace(action)
	if action == "" {
		action = "unspecified"
	}

	l.emit(LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Service:   l.service,
		Action:    action,
		Message:   strings.TrimSpace(msg),
		Hostname:  l.hostname,
		RequestID: fromCtx(ctx, ctxKeyRequestID),
		OrgID:     fromCtx(ctx, ctxKeyOrgID),
		ConnID:    fromCtx(ctx, ctxKeyConnID),
		Details:   details,
		Error:     errObj,
	})
}

// emit marshals and prints a single JSON line to stdout.
func (l *Logger) emit(e LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := json.Marshal(e)
	if err == nil {
		fmt.Println(string(b))
		return
	}

	// Details is the only caller-controlled field that can fail to marshal;
	// retry once without it
	e.Details = nil
	if b, retryErr := json.Marshal(e); retryErr == nil {
		fmt.Println(string(b))
		return
	}

	// keep even the failure JSON-shaped
	fallback := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     "ERROR",
		Service:   l.service,
		Action:    "logger_marshal_failed",
		Message:   "failed to encode log entry",
		Hostname:  l.hostname,
		Error: &ErrorObject{
			Msg:   strings.TrimSpace(err.Error()),
			Stack: string(debug.Stack()),
		},
	}
	if fb, fbErr := json.Marshal(fallback); fbErr == nil {
		fmt.Println(string(fb))
	} else {
		fmt.Fprintf(os.Stderr, "log marshal failed: %v\n", err)
	}
}

// ----- Context plumbing -----

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "geotrack_request_id"
	ctxKeyOrgID     ctxKey = "geotrack_org_id"
	ctxKeyConnID    ctxKey = "geotrack_conn_id"
)

// WithRequestID returns a context whose log lines carry request_id.
func (l *Logger) WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, ctxKeyRequestID, id)
}

// WithOrgID returns a context whose log lines carry org_id.
func (l *Logger) WithOrgID(ctx context.Context, id string) context.Context {
	return withValue(ctx, ctxKeyOrgID, id)
}

// WithConnID returns a context whose log lines carry conn_id.
func (l *Logger) WithConnID(ctx context.Context, id string) context.Context {
	return withValue(ctx, ctxKeyConnID, id)
}

func withValue(ctx context.Context, key ctxKey, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, key, id)
}

func fromCtx(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}
