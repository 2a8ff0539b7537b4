package digest

import "fmt"

// SchemaError reports typed data that the requested version cannot encode.
// Path names the offending field, e.g. "[1].wallet", "types.Mail.cc" or "message.from.name".
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("typed data schema error at %s: %s", e.Path, e.Reason)
}

func schemaErr(path, format string, args ...any) *SchemaError {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
