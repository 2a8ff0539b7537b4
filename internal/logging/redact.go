package logging

import (
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"
)

// Redacted replaces sensitive values.
const Redacted = "***REDACTED***"

var redactKeys = map[string]struct{}{
	"password":       {},
	"passphrase":     {},
	"mnemonic":       {},
	"private_key":    {},
	"privatekey":     {},
	"keys":           {},
	"encryption_key": {},
	"secret":         {},
}

func isSensitive(key string) bool {
	_, ok := redactKeys[strings.ToLower(key)]
	return ok
}

// RedactHook blanks sensitive fields before any formatter sees them.
type RedactHook struct{}

func (RedactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (RedactHook) Fire(entry *logrus.Entry) error {
	for k := range entry.Data {
		if isSensitive(k) {
			entry.Data[k] = Redacted
		}
	}
	return nil
}

// RedactJSON rewrites sensitive keys at any depth of a JSON document.
// Input that is not JSON is returned unchanged.
func RedactJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}

	b, err := json.Marshal(redactValue(v))
	if err != nil {
		return raw
	}
	return string(b)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			if isSensitive(k) {
				out[k] = Redacted
				continue
			}
			out[k] = redactValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = redactValue(t[i])
		}
		return out
	default:
		return v
	}
}
