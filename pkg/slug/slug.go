// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug turns term names into the slugs stored in network.terms.
//
// A slug is lower case, hyphen separated and at most [MaxLength] runes long.
// Letters from any script are kept; accents are folded away so "Jázz" and
// "Jazz" collide, which is what the unique slug logic expects.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength matches the width of the slug column.
const MaxLength = 200

var (
	markup   = regexp.MustCompile(`<[^>]*>`)
	entities = regexp.MustCompile(`&(#?[a-zA-Z0-9]+);`)
	hyphens  = regexp.MustCompile(`-{2,}`)

	foldAccents = transform.Chain(norm.NFD, transform.RemoveFunc(isMark), norm.NFC)
)

/*
From sanitizes an arbitrary title into a slug.

Markup and character entities are dropped before folding, so
"Rock &amp; <b>Roll</b>" becomes "rock-roll". Underscores survive as in
"stock_ticker"; every other separator becomes a single hyphen.

Returns "" when nothing usable is left.
*/
func From(title string) string {
	title = markup.ReplaceAllString(title, "")
	title = entities.ReplaceAllString(title, "")

	folded, _, err := transform.String(foldAccents, title)
	if err != nil {
		folded = title
	}

	var builder strings.Builder
	builder.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteByte('-')
		}
	}

	result := hyphens.ReplaceAllString(builder.String(), "-")
	return strings.Trim(truncate(strings.Trim(result, "-")), "-")
}

// WithSuffix appends "-n" to base, e.g. WithSuffix("jazz", 2) == "jazz-2".
// base is shortened first so the result still fits the column.
func WithSuffix(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	limit := MaxLength - utf8.RuneCountInString(suffix)
	if utf8.RuneCountInString(base) > limit {
		base = strings.TrimRight(string([]rune(base)[:limit]), "-")
	}
	return base + suffix
}

func truncate(value string) string {
	if utf8.RuneCountInString(value) <= MaxLength {
		return value
	}
	return string([]rune(value)[:MaxLength])
}

func isMark(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
