// Copyright 2024-2026 Aiku AI

// Package redact implements whole-word keyword matching and spoiler-marker
// rewriting for chat messages.
//
// Keywords are always treated as literal text: any regexp metacharacters in
// a keyword are escaped before a word-boundary pattern is built, so a
// keyword matches exactly itself and nothing else.
package redact

import (
	"regexp"
	"strings"
)

// Marker is the spoiler delimiter understood by the chat platform.
const Marker = "||"

// wordPattern builds a whole-word pattern for a literal keyword.
func wordPattern(keyword string, caseSensitive bool) *regexp.Regexp {
	expr := `\b` + regexp.QuoteMeta(keyword) + `\b`
	if !caseSensitive {
		expr = `(?i)` + expr
	}
	return regexp.MustCompile(expr)
}

// FindMatches returns the keywords that occur as whole words in text.
// A keyword inside a larger word does not count: "end" does not match
// "endgame". Comparison is case-insensitive unless caseSensitive is set.
// An empty keyword list short-circuits without scanning the text.
func FindMatches(text string, keywords []string, caseSensitive bool) []string {
	if len(keywords) == 0 {
		return nil
	}
	var found []string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if wordPattern(kw, caseSensitive).MatchString(text) {
			found = append(found, kw)
		}
	}
	return found
}

// Redact wraps every whole-word occurrence of each keyword in spoiler
// markers, preserving the original casing of the occurrence. Occurrences
// that are already wrapped are left alone, so applying Redact twice with
// the same keywords produces the same text. Text outside matched spans is
// never modified.
func Redact(text string, keywords []string, caseSensitive bool) string {
	out := text
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		out = redactOne(out, kw, caseSensitive)
	}
	return out
}

func redactOne(text, keyword string, caseSensitive bool) string {
	quoted := regexp.QuoteMeta(keyword)
	wrapped := regexp.QuoteMeta(Marker) + quoted + regexp.QuoteMeta(Marker)
	// The already-wrapped form is listed first so it wins over the bare
	// word and can be passed through unchanged.
	expr := wrapped + `|\b` + quoted + `\b`
	if !caseSensitive {
		expr = `(?i)` + expr
	}
	return regexp.MustCompile(expr).ReplaceAllStringFunc(text, func(m string) string {
		if strings.HasPrefix(m, Marker) {
			return m
		}
		return Marker + m + Marker
	})
}
