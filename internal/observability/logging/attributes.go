package logging

import (
	"log/slog"
	"net/url"
	"strings"
)

// urlValue logs a URL with its password masked
type urlValue struct {
	u   *url.URL
	raw string
}

// LogValue implements slog.LogValuer
func (v urlValue) LogValue() slog.Value {
	u := v.u
	if u == nil {
		if v.raw == "" {
			return slog.StringValue("")
		}
		parsed, err := url.Parse(v.raw)
		if err != nil {
			return slog.StringValue("<unparsable url>")
		}
		u = parsed
	}
	return slog.StringValue(u.Redacted())
}

// RedactURL returns a loggable form of u without its password
func RedactURL(u *url.URL) slog.LogValuer {
	return urlValue{u: u}
}

// RedactStringURL is RedactURL for a URL held as a string, e.g. a postgres:// DSN
func RedactStringURL(s string) slog.LogValuer {
	return urlValue{raw: s}
}

// Subject renders a token subject for logs, keeping only a short prefix
type Subject string

// LogValue implements slog.LogValuer
func (s Subject) LogValue() slog.Value {
	v := strings.TrimSpace(string(s))
	if len(v) <= 8 {
		return slog.StringValue(v)
	}
	return slog.StringValue(v[:8] + "…")
}
