// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert reads optional scalar query parameters.

Malformed input yields the caller's default instead of an error, which is
what list filters such as "hide_empty=yes" want. Do not use it where a
malformed value must be rejected; use the validate package there.
*/
package convert

import (
	"strconv"
	"strings"
)

// Int parses raw, returning fallback when it is empty or malformed.
func Int(raw string, fallback int) int {
	if value, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		return value
	}
	return fallback
}

// Int64 parses raw, returning fallback when it is empty or malformed.
func Int64(raw string, fallback int64) int64 {
	if value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
		return value
	}
	return fallback
}

// Bool accepts the strconv spellings plus "yes", "no", "on" and "off".
func Bool(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if value, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
		return value
	}
	return fallback
}

// OptionalInt64 distinguishes "absent" (nil) from an explicit value, so
// "parent=0" still selects root terms.
func OptionalInt64(raw string) *int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil
	}
	return &value
}
