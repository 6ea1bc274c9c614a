// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chapter handles the per-chapter half of a research run: turning
// a chapter title into targeted search queries, and drafting the chapter
// Markdown from the findings those queries produced.
package chapter

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// Defaults applied when the engine configuration leaves a field zero.
const (
	defaultBreadth    = 3
	defaultWindow     = 3
	defaultExcerptLen = 300
)

// renderRecent formats the newest findings as prompt context, each
// truncated to excerptLen runes. It returns "" when there is nothing to
// show.
func renderRecent(findings []types.Finding, window, excerptLen int) string {
	if window <= 0 || len(findings) == 0 {
		return ""
	}
	start := len(findings) - window
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for _, f := range findings[start:] {
		text := truncateRunes(f.Text, excerptLen)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "- (%s) %s\n", f.Chapter, text)
	}
	return strings.TrimSpace(b.String())
}

// renderFindings formats a chapter's findings for the writer prompt, each
// block naming the citation indices that may be used for it.
func renderFindings(findings []types.Finding) string {
	var b strings.Builder
	n := 0
	for _, f := range findings {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}
		n++
		if len(f.Citations) > 0 {
			fmt.Fprintf(&b, "Finding %d (cite as %s):\n%s\n\n", n, markers(f.Citations), text)
		} else {
			fmt.Fprintf(&b, "Finding %d (no citable source):\n%s\n\n", n, text)
		}
	}
	return strings.TrimSpace(b.String())
}

// markers renders citation indices as bracketed numerals: [2][5].
func markers(indices []int) string {
	var b strings.Builder
	for _, idx := range indices {
		fmt.Fprintf(&b, "[%d]", idx)
	}
	return b.String()
}

// truncateRunes shortens s to at most n runes, appending "..." when it cuts.
func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
