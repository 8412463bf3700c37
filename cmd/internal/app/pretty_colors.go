package app

import (
	"log/slog"
	"strconv"
	"strings"
)

const (
	ansiReset   = "\x1b[0m"
	ansiBright  = "\x1b[1m"
	ansiDim     = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

func colorize(s, code string, color bool) string {
	if !color || code == "" {
		return s
	}
	return code + s + ansiReset
}

func colorizeHTTPMethod(m string, color bool) string {
	switch m {
	case "GET", "HEAD":
		return colorize(m, ansiGreen, color)
	case "POST":
		return colorize(m, ansiBlue, color)
	case "PUT", "PATCH":
		return colorize(m, ansiYellow, color)
	case "DELETE":
		return colorize(m, ansiRed, color)
	default:
		return colorize(m, ansiMagenta, color)
	}
}

func statusColor(status int) string {
	switch {
	case status >= 500:
		return ansiRed
	case status >= 400:
		return ansiYellow
	case status >= 300:
		return ansiCyan
	default:
		return ansiGreen
	}
}

func colorizeStatusCode(status int, color bool) string {
	return colorize(strconv.Itoa(status), statusColor(status), color)
}

func colorizeStatusClass(class string, color bool) string {
	if class == "" {
		return `""`
	}
	n := int(class[0]-'0') * 100
	return colorize(class, statusColor(n), color)
}

func colorizeDurationMS(ms int64, color bool) string {
	s := strconv.FormatInt(ms, 10) + "ms"
	switch {
	case ms >= 1000:
		return colorize(s, ansiRed, color)
	case ms >= 250:
		return colorize(s, ansiYellow, color)
	default:
		return colorize(s, ansiDim, color)
	}
}

func colorizeResult(result string, color bool) string {
	switch {
	case result == "success" || result == "ok":
		return colorize(result, ansiGreen, color)
	case strings.HasSuffix(result, "server_error") || result == "error":
		return colorize(result, ansiRed, color)
	case strings.HasSuffix(result, "client_error") || result == "fail":
		return colorize(result, ansiYellow, color)
	default:
		return quoteIfNeeded(result)
	}
}

func valueToInt64(v slog.Value) (int64, bool) {
	switch v.Kind() {
	case slog.KindInt64:
		return v.Int64(), true
	case slog.KindUint64:
		return int64(v.Uint64()), true
	case slog.KindFloat64:
		return int64(v.Float64()), true
	default:
		return 0, false
	}
}
