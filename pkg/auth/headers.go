package auth

import (
	"net/http"
	"strings"
)

// ByteKey is a header name received as a raw byte sequence. Go map keys
// cannot be []byte, so raw names are carried under this distinct type.
type ByteKey string

// Headers maps header names to values as handed over by a transport.
// Names are string (text) or ByteKey (raw bytes). Values are string,
// []byte, or []string.
type Headers map[any]any

// authorizationKeys lists every accepted spelling of the Authorization
// header, checked in order.
var authorizationKeys = []any{
	"authorization",
	"Authorization",
	ByteKey("authorization"),
	ByteKey("Authorization"),
}

// Authorization returns the first non-empty Authorization header value,
// decoded as UTF-8 text, or an empty string if none is present.
func (h Headers) Authorization() string {
	for _, key := range authorizationKeys {
		if v := headerText(h[key]); v != "" {
			return v
		}
	}
	return ""
}

// headerText decodes a header value. Invalid UTF-8 in raw values is
// replaced so the result never fails the bearer checks in a surprising way.
func headerText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return strings.ToValidUTF8(string(val), "\uFFFD")
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

// FromHTTPHeader converts net/http headers into Headers. Names are stored
// in canonical form and lower-cased, so both lookups succeed.
func FromHTTPHeader(hdr http.Header) Headers {
	h := make(Headers, len(hdr)*2)
	for name, values := range hdr {
		if len(values) == 0 {
			continue
		}
		h[name] = values[0]
		h[strings.ToLower(name)] = values[0]
	}
	return h
}

// FromRawPairs converts raw header name/value byte pairs, as delivered by
// raw transports, into Headers keyed by ByteKey.
func FromRawPairs(pairs [][2][]byte) Headers {
	h := make(Headers, len(pairs))
	for _, p := range pairs {
		key := ByteKey(p[0])
		if _, seen := h[key]; seen {
			continue
		}
		h[key] = p[1]
	}
	return h
}
