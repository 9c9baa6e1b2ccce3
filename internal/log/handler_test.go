package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestScrapeHandler_MasksCredentials tests that credential keys are masked.
func TestScrapeHandler_MasksCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{
			name:     "cookie key is masked",
			key:      "cookie",
			value:    "cf_clearance=abc123",
			wantMask: true,
		},
		{
			name:     "Cookie key (uppercase) is masked",
			key:      "Cookie",
			value:    "cf_clearance=abc123",
			wantMask: true,
		},
		{
			name:     "session_id key is masked",
			key:      "session_id",
			value:    "sess_12345",
			wantMask: true,
		},
		{
			name:     "composed cookie key is masked",
			key:      "clearance_cookie",
			value:    "abc123",
			wantMask: true,
		},
		{
			name:     "csrf_token key is masked",
			key:      "csrf_token",
			value:    "tok_98765",
			wantMask: true,
		},
		{
			name:     "url key is NOT masked",
			key:      "url",
			value:    "https://dolap.com/kazak",
			wantMask: false,
		},
		{
			name:     "listing_id key is NOT masked",
			key:      "listing_id",
			value:    "442885461",
			wantMask: false,
		},
		{
			name:     "category key is NOT masked",
			key:      "category",
			value:    "kazak",
			wantMask: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewScrapeLogger(&buf, true)

			logger.Info("test message", tt.key, tt.value)

			output := buf.String()

			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("expected value %q to be masked, but found in output: %s", tt.value, output)
				}
				if !strings.Contains(output, MaskValue) {
					t.Errorf("expected mask value %q in output, but not found: %s", MaskValue, output)
				}
			} else {
				if !strings.Contains(output, tt.value) {
					t.Errorf("expected value %q to be present in output, but not found: %s", tt.value, output)
				}
			}
		})
	}
}

// TestScrapeHandler_TruncatesPayloads tests that page payloads are truncated.
func TestScrapeHandler_TruncatesPayloads(t *testing.T) {
	t.Parallel()

	t.Run("long html is truncated", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewScrapeLogger(&buf, true)

		page := "<html>" + strings.Repeat("x", 10000) + "</html>"
		logger.Debug("page rendered", "html", page)

		output := buf.String()
		if strings.Contains(output, "</html>") {
			t.Errorf("expected payload tail to be cut, output: %d bytes", len(output))
		}
		if !strings.Contains(output, "(10013 bytes)") {
			t.Errorf("expected original length marker, got: %s", output)
		}
	})

	t.Run("short html passes through", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewScrapeLogger(&buf, true)

		logger.Debug("page rendered", "html", "<html>short</html>")

		if !strings.Contains(buf.String(), "<html>short</html>") {
			t.Errorf("expected short payload intact, got: %s", buf.String())
		}
	})

	t.Run("non-payload key is untouched", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewScrapeLogger(&buf, true)

		long := strings.Repeat("u", 400)
		logger.Info("test", "url", long)

		if !strings.Contains(buf.String(), long) {
			t.Error("expected non-payload value to pass through untruncated")
		}
	})
}

// TestScrapeHandler_LogLevels tests that verbose toggles debug output.
func TestScrapeHandler_LogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		verbose    bool
		logLevel   slog.Level
		shouldShow bool
	}{
		{
			name:       "debug message shown in verbose mode",
			verbose:    true,
			logLevel:   slog.LevelDebug,
			shouldShow: true,
		},
		{
			name:       "debug message hidden in non-verbose mode",
			verbose:    false,
			logLevel:   slog.LevelDebug,
			shouldShow: false,
		},
		{
			name:       "info message shown in non-verbose mode",
			verbose:    false,
			logLevel:   slog.LevelInfo,
			shouldShow: true,
		},
		{
			name:       "error message shown in non-verbose mode",
			verbose:    false,
			logLevel:   slog.LevelError,
			shouldShow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewScrapeLogger(&buf, tt.verbose)

			testMsg := "test_unique_message_12345"

			switch tt.logLevel {
			case slog.LevelDebug:
				logger.Debug(testMsg)
			case slog.LevelInfo:
				logger.Info(testMsg)
			case slog.LevelWarn:
				logger.Warn(testMsg)
			case slog.LevelError:
				logger.Error(testMsg)
			}

			hasMessage := strings.Contains(buf.String(), testMsg)
			if tt.shouldShow && !hasMessage {
				t.Errorf("expected message to be shown, output: %s", buf.String())
			}
			if !tt.shouldShow && hasMessage {
				t.Errorf("expected message to be hidden, output: %s", buf.String())
			}
		})
	}
}

// TestScrapeHandler_WithAttrs tests that WithAttrs rewrites attributes.
func TestScrapeHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewScrapeLogger(&buf, true)

	childLogger := logger.With("cookie", "cf_clearance=xyz")
	childLogger.Info("test message")

	output := buf.String()
	if strings.Contains(output, "cf_clearance=xyz") {
		t.Errorf("expected cookie to be masked in WithAttrs, output: %s", output)
	}
	if !strings.Contains(output, MaskValue) {
		t.Errorf("expected mask value in output: %s", output)
	}
}

// TestScrapeHandler_WithGroup tests that grouped attributes are rewritten.
func TestScrapeHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewScrapeLogger(&buf, true)

	groupLogger := logger.WithGroup("request")
	groupLogger.Info("test message", "url", "https://dolap.com/kazak", "cookie", "session=abc")

	output := buf.String()
	if !strings.Contains(output, "https://dolap.com/kazak") {
		t.Errorf("expected url to be visible, output: %s", output)
	}
	if strings.Contains(output, "session=abc") {
		t.Errorf("expected cookie to be masked, output: %s", output)
	}
}

// TestNewScrapeJSONLogger tests JSON logger creation.
func TestNewScrapeJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewScrapeJSONLogger(&buf, true)

	logger.Info("test message", "cookie", "secretvalue")

	output := buf.String()
	if !strings.Contains(output, "{") || !strings.Contains(output, "}") {
		t.Errorf("expected JSON format, got: %s", output)
	}
	if strings.Contains(output, "secretvalue") {
		t.Errorf("expected cookie to be masked, output: %s", output)
	}
}

// TestNewScrapeHandler_NilHandler tests that nil handler is handled gracefully.
func TestNewScrapeHandler_NilHandler(t *testing.T) {
	t.Parallel()

	handler := NewScrapeHandler(nil)
	if handler == nil {
		t.Error("expected non-nil handler")
	}

	logger := slog.New(handler)
	logger.Info("test message") // must not panic
}
