// Package debug provides category-based debug logging for agentgate and
// installs the process-wide slog handler.
//
// Categories select which subsystems emit debug lines (AGENTGATE_DEBUG or
// logging.debug); the level selects how much is logged overall
// (AGENTGATE_LOG_LEVEL or logging.level).
//
//	debug.Log(debug.Auth, "verifying bearer token", debug.TokenAttr(token))
package debug

import (
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
)

// Category names a subsystem that can be debugged independently.
type Category = string

// Known categories. All enables every category.
const (
	Auth      Category = "auth"
	Storage   Category = "storage"
	Transport Category = "transport"
	Config    Category = "config"
	All       Category = "all"
)

// enabled is replaced wholesale by Init and only read afterwards.
var enabled = parse(os.Getenv("AGENTGATE_DEBUG"))

// Init sets the enabled categories and the default slog logger. The
// environment wins over the configured values.
func Init(configCategories, configLevel, configFormat string) {
	enabled = parse(envOr("AGENTGATE_DEBUG", configCategories))
	level := ParseLevel(envOr("AGENTGATE_LOG_LEVEL", configLevel))
	slog.SetDefault(slog.New(NewHandler(os.Stderr, configFormat, level)))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewHandler returns a JSON handler for format "json" and a text handler
// otherwise.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Enabled reports whether c emits debug output.
func Enabled(c Category) bool {
	return enabled[All] || enabled[c]
}

// Log writes a debug record tagged with c when c is enabled.
func Log(c Category, msg string, args ...any) {
	if Enabled(c) {
		slog.Debug(msg, append([]any{"debug", c}, args...)...)
	}
}

// TokenAttr describes a bearer token by length only. Token text never
// reaches the log.
func TokenAttr(token string) slog.Attr {
	return slog.Int("token_length", len(token))
}

// ParseLevel maps ERROR, WARN, INFO and DEBUG (any case) to a slog level.
// Unknown values yield INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the enabled categories in sorted order.
func Categories() []Category {
	return slices.Sorted(maps.Keys(enabled))
}

func parse(s string) map[Category]bool {
	set := make(map[Category]bool)
	for cat := range strings.SplitSeq(s, ",") {
		if cat = strings.ToLower(strings.TrimSpace(cat)); cat != "" {
			set[cat] = true
		}
	}
	return set
}
