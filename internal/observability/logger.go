package observability

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

const redacted = "[redacted]"

// Attribute keys whose values never reach the log output.
var sensitiveKeys = map[string]struct{}{
	"password":         {},
	"password_hash":    {},
	"confirm_password": {},
	"authorization":    {},
	"token":            {},
	"access_token":     {},
	"refresh_token":    {},
	"cookie":           {},
	"set-cookie":       {},
}

// compact JWS: header.payload.signature, header always starts with {"
var jwsPattern = regexp.MustCompile(`eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)

func NewLogger(env string) *slog.Logger {
	return NewLoggerTo(os.Stdout, env)
}

func NewLoggerTo(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: RedactAttr,
	})

	return slog.New(NewTraceHandler(handler))
}

// RedactAttr drops sensitive values and strips signatures from anything that
// looks like a token.
func RedactAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if s, ok := redactTokens(a.Value.String()); ok {
			return slog.String(a.Key, s)
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			if s, ok := redactTokens(err.Error()); ok {
				return slog.String(a.Key, s)
			}
		}
	}

	return a
}

func redactTokens(s string) (string, bool) {
	if !strings.Contains(s, "eyJ") {
		return s, false
	}
	out := jwsPattern.ReplaceAllStringFunc(s, func(tok string) string {
		i := strings.LastIndexByte(tok, '.')
		return tok[:i+1] + redacted
	})
	return out, out != s
}
