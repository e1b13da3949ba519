package auth

import (
	"net/http"
	"testing"
)

func TestHeadersAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		headers Headers
		want    string
	}{
		{name: "empty", headers: Headers{}, want: ""},
		{name: "nil", headers: nil, want: ""},
		{name: "text lower", headers: Headers{"authorization": "Bearer a"}, want: "Bearer a"},
		{name: "text title", headers: Headers{"Authorization": "Bearer a"}, want: "Bearer a"},
		{name: "bytes lower", headers: Headers{ByteKey("authorization"): []byte("Bearer a")}, want: "Bearer a"},
		{name: "bytes title", headers: Headers{ByteKey("Authorization"): []byte("Bearer a")}, want: "Bearer a"},
		{name: "string slice value", headers: Headers{"authorization": []string{"Bearer a", "Bearer b"}}, want: "Bearer a"},
		{name: "empty slice value", headers: Headers{"authorization": []string{}}, want: ""},
		{name: "lower wins over title", headers: Headers{"authorization": "Bearer lower", "Authorization": "Bearer title"}, want: "Bearer lower"},
		{name: "text wins over bytes", headers: Headers{"Authorization": "Bearer text", ByteKey("authorization"): []byte("Bearer raw")}, want: "Bearer text"},
		{name: "empty value falls through", headers: Headers{"authorization": "", ByteKey("Authorization"): []byte("Bearer raw")}, want: "Bearer raw"},
		{name: "unsupported value type", headers: Headers{"authorization": 42}, want: ""},
		{name: "other spelling ignored", headers: Headers{"AUTHORIZATION": "Bearer a"}, want: ""},
		{name: "invalid utf8 replaced", headers: Headers{ByteKey("authorization"): []byte("Bearer \xff")}, want: "Bearer \uFFFD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.headers.Authorization(); got != tt.want {
				t.Errorf("Authorization() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromHTTPHeader(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer tok")
	hdr.Add("X-Custom", "one")
	hdr.Add("X-Custom", "two")

	h := FromHTTPHeader(hdr)
	if got := h.Authorization(); got != "Bearer tok" {
		t.Errorf("Authorization() = %q, want %q", got, "Bearer tok")
	}
	if h["authorization"] != "Bearer tok" || h["Authorization"] != "Bearer tok" {
		t.Errorf("expected both spellings, got %v", h)
	}
	if h["x-custom"] != "one" {
		t.Errorf("x-custom = %v, want first value", h["x-custom"])
	}
}

func TestFromRawPairs(t *testing.T) {
	h := FromRawPairs([][2][]byte{
		{[]byte("authorization"), []byte("Bearer first")},
		{[]byte("authorization"), []byte("Bearer second")},
		{[]byte("host"), []byte("example.com")},
	})
	if got := h.Authorization(); got != "Bearer first" {
		t.Errorf("Authorization() = %q, want first occurrence", got)
	}
	if len(h) != 2 {
		t.Errorf("len = %d, want 2", len(h))
	}
}
