// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chapter

import (
	"regexp"
	"sort"
	"strconv"
)

// citationPattern matches bracketed numeric citation markers such as [3].
// Bracketed prose (Markdown links, mermaid node labels) does not match.
var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// ValidateCitations scans chapter Markdown for bracketed numeric markers
// and returns the ones missing from allowed, deduplicated and sorted. The
// draft itself is never rewritten; callers surface the result as a
// warning.
func ValidateCitations(content string, allowed []int) []int {
	known := make(map[int]bool, len(allowed))
	for _, idx := range allowed {
		known[idx] = true
	}

	seen := make(map[int]bool)
	for _, m := range citationPattern.FindAllStringSubmatch(content, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !known[idx] && !seen[idx] {
			seen[idx] = true
		}
	}

	unknown := make([]int, 0, len(seen))
	for idx := range seen {
		unknown = append(unknown, idx)
	}
	sort.Ints(unknown)
	return unknown
}
