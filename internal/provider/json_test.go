// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type outline struct {
		Title    string   `json:"title"`
		Chapters []string `json:"chapters"`
	}

	tests := []struct {
		name    string
		raw     string
		want    outline
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `{"title": "T", "chapters": ["A", "B"]}`,
			want: outline{Title: "T", Chapters: []string{"A", "B"}},
		},
		{
			name: "json fence",
			raw:  "```json\n{\"title\": \"T\", \"chapters\": [\"A\"]}\n```",
			want: outline{Title: "T", Chapters: []string{"A"}},
		},
		{
			name: "bare fence",
			raw:  "```\n{\"title\": \"T\", \"chapters\": []}\n```",
			want: outline{Title: "T", Chapters: []string{}},
		},
		{
			name: "fence with unexpected language tag",
			raw:  "```markdown\n{\"title\": \"T\", \"chapters\": [\"A\"]}\n```",
			want: outline{Title: "T", Chapters: []string{"A"}},
		},
		{
			name: "surrounding whitespace",
			raw:  "\n\n  {\"title\": \"T\", \"chapters\": [\"A\"]}  \n",
			want: outline{Title: "T", Chapters: []string{"A"}},
		},
		{
			name:    "prose instead of json",
			raw:     "Sure! Here is your outline: chapter one...",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "   ",
			wantErr: true,
		},
		{
			name:    "fenced garbage",
			raw:     "```json\nnot json at all\n```",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got outline
			err := DecodeJSON(tt.raw, &got)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStripFences_LeavesInnerFencesAlone(t *testing.T) {
	// Only the outermost fence is stripped; fenced blocks inside the
	// payload (e.g. mermaid diagrams inside a JSON string) survive.
	raw := "```json\n{\"body\": \"before ``` after\"}\n```"
	assert.Equal(t, "{\"body\": \"before ``` after\"}", StripFences(raw))
}
