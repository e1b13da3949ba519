package debug

import (
	"bytes"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"testing"
)

// withCategories swaps the enabled set for the duration of a test.
func withCategories(t *testing.T, s string) {
	t.Helper()
	orig := enabled
	enabled = parse(s)
	t.Cleanup(func() { enabled = orig })
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  []Category
	}{
		{"", nil},
		{"auth", []Category{Auth}},
		{" auth , storage ", []Category{Auth, Storage}},
		{"AUTH,Transport", []Category{Auth, Transport}},
		{"auth,,config,", []Category{Auth, Config}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := slices.Sorted(maps.Keys(parse(tt.input)))
			if !slices.Equal(got, tt.want) {
				t.Errorf("parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEnabled(t *testing.T) {
	withCategories(t, "auth")
	if !Enabled(Auth) {
		t.Error("auth should be enabled")
	}
	if Enabled(Storage) {
		t.Error("storage should not be enabled")
	}

	withCategories(t, "all")
	if !Enabled(Config) {
		t.Error("all should enable config")
	}
}

func TestLogRespectsCategory(t *testing.T) {
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(NewHandler(&buf, "text", slog.LevelDebug)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	withCategories(t, "storage")
	Log(Auth, "hidden")
	Log(Storage, "shown", "kind", "threads")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("disabled category logged: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "debug=storage") {
		t.Errorf("enabled category output = %q", out)
	}
}

func TestTokenAttr(t *testing.T) {
	attr := TokenAttr("abc.def.ghi")
	if attr.Key != "token_length" || attr.Value.Int64() != 11 {
		t.Errorf("TokenAttr = %v, want token_length=11", attr)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"trace":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, "JSON", slog.LevelInfo)).Info("hello", "k", "v")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("json handler output = %q, want JSON object", buf.String())
	}

	buf.Reset()
	slog.New(NewHandler(&buf, "text", slog.LevelInfo)).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("text handler output = %q, want key=value pairs", buf.String())
	}
}

func TestCategoriesSorted(t *testing.T) {
	withCategories(t, "storage,auth")
	if got := Categories(); !slices.Equal(got, []Category{Auth, Storage}) {
		t.Errorf("Categories() = %v, want [auth storage]", got)
	}
}
