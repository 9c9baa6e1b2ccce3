package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// maskedKeys contains attribute keys whose values are always masked.
// The browser session carries WAF clearance cookies and identifiers that
// should not end up in shareable logs.
var maskedKeys = map[string]bool{
	"cookie":     true,
	"set-cookie": true,
	"cookies":    true,
	"session":    true,
	"session_id": true,
	"csrf":       true,
	"csrf_token": true,
	"x-csrf":     true,
}

// payloadKeys contains attribute keys whose values are page payloads and
// should be truncated rather than masked.
var payloadKeys = map[string]bool{
	"html":    true,
	"body":    true,
	"page":    true,
	"content": true,
	"excerpt": true,
}

// HTMLPreviewLen is the number of leading bytes of a page payload kept in
// log output.
const HTMLPreviewLen = 256

// MaskValue is the string used to replace masked values.
const MaskValue = "***MASKED***"

// ScrapeHandler wraps an slog.Handler to truncate page payloads and mask
// browser credentials. It intercepts log records and rewrites matching
// attribute values before passing them to the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Components only ever see a plain *slog.Logger
type ScrapeHandler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler
}

// NewScrapeHandler creates a new ScrapeHandler wrapping the given handler.
// If handler is nil, the returned ScrapeHandler uses slog.Default().Handler().
func NewScrapeHandler(handler slog.Handler) *ScrapeHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &ScrapeHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *ScrapeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and passes it on.
func (h *ScrapeHandler) Handle(ctx context.Context, record slog.Record) error {
	rewritten := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(attr))
		return true
	})
	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler whose attributes are rewritten before
// being attached.
func (h *ScrapeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		rewritten[i] = h.rewriteAttr(attr)
	}
	return &ScrapeHandler{handler: h.handler.WithAttrs(rewritten)}
}

// WithGroup returns a new handler with the given group name.
func (h *ScrapeHandler) WithGroup(name string) slog.Handler {
	return &ScrapeHandler{handler: h.handler.WithGroup(name)}
}

// rewriteAttr applies masking and truncation to a single attribute,
// recursing into groups.
func (h *ScrapeHandler) rewriteAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		groupAttrs := a.Value.Group()
		rewritten := make([]slog.Attr, len(groupAttrs))
		for i, groupAttr := range groupAttrs {
			rewritten[i] = h.rewriteAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}
	}

	keyLower := strings.ToLower(a.Key)
	if maskedKeys[keyLower] || containsCredentialKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if payloadKeys[keyLower] && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, truncatePayload(a.Value.String()))
	}

	return a
}

// containsCredentialKeyword checks if the key contains credential keywords.
// Note: "cookie" appears as a substring match so composed keys like
// "clearance_cookie" are caught too.
func containsCredentialKeyword(key string) bool {
	credentialKeywords := []string{
		"cookie", "password", "token", "secret", "credential",
	}

	for _, keyword := range credentialKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// truncatePayload keeps the first HTMLPreviewLen bytes of a payload and
// appends the original length so the full size stays visible.
func truncatePayload(s string) string {
	if len(s) <= HTMLPreviewLen {
		return s
	}
	return fmt.Sprintf("%s... (%d bytes)", s[:HTMLPreviewLen], len(s))
}

// NewScrapeLogger creates a new slog.Logger with payload truncation and
// credential masking.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Info
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewScrapeLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewScrapeHandler(textHandler))
}

// NewScrapeJSONLogger creates a new slog.Logger that outputs JSON format.
// Useful when run output is collected by a log aggregator.
func NewScrapeJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewScrapeHandler(jsonHandler))
}
