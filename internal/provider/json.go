// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON parses raw model output into v. Models frequently wrap JSON in
// Markdown code fences even when told not to, so fences are stripped first.
// Callers must treat a decode failure as a signal to use their fallback
// value; it never indicates a transport problem.
func DecodeJSON(raw string, v any) error {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return fmt.Errorf("model returned an empty response")
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("parsing model JSON: %w", err)
	}
	return nil
}

// StripFences removes a surrounding Markdown code fence from s and trims
// whitespace. The opening fence's language tag (```json, ```markdown) is
// discarded with it. Text that does not open with a fence is returned
// unchanged, so payloads containing their own fenced blocks are safe.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
