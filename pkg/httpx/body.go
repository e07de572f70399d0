package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// maxPeekBodySize bounds how much of a request body is buffered when a
// rate limit key is derived from it. Login and reset payloads are tiny,
// anything larger is not worth inspecting.
const maxPeekBodySize = 64 << 10

// peekJSONField reads a single string field out of a JSON request body
// without consuming it. The body is buffered and restored so downstream
// handlers can decode it again. Returns "" when the body is missing,
// not valid JSON, or the field is absent or not a string.
func peekJSONField(r *http.Request, field string) string {
	if r.Body == nil {
		return ""
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBodySize))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(buf))
	if err != nil {
		return ""
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(buf, &payload); err != nil {
		return ""
	}

	raw, ok := payload[field]
	if !ok {
		return ""
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}
