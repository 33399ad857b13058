package selector

import (
	"net/url"
	"strings"

	"github.com/google/shlex"
)

// ParseDropped extracts the first path from text a terminal pastes when a
// file is dropped onto it. Terminals quote or backslash-escape paths with
// spaces and some send file:// URIs.
func ParseDropped(raw string) string {
	raw = strings.TrimSpace(raw)
	tok := raw
	if words, err := shlex.Split(raw); err == nil {
		if len(words) == 0 {
			return ""
		}
		tok = words[0]
	}
	if strings.HasPrefix(tok, "file://") {
		if u, err := url.Parse(tok); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return tok
}
