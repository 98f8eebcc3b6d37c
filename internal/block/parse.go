// Package block parses the line-oriented memory blocks written by the
// memory agent into field maps.
//
// A block is a sequence of entries. Each entry starts at a header line
// ("- concept_name: limits") and runs until the next header line or the end
// of the text. Inside an entry every "name: value" line, optionally prefixed
// with "- ", sets a field. Anything else is commentary and is skipped.
// Profile blocks have no header and form a single entry.
package block

import (
	"regexp"
	"strings"

	"github.com/rcliao/tutor-memory/internal/model"
)

const (
	FieldConceptName = "concept_name"
	FieldDialogID    = "dialog_id"
)

var fieldLine = regexp.MustCompile(`^\s*(?:-\s*)?([A-Za-z][A-Za-z0-9_]*)\s*:(.*)$`)

// Entry is one header-delimited span of a block.
type Entry struct {
	// Header is the trimmed header value. Empty for profile entries.
	Header string
	// Fields maps lower-cased field names to trimmed raw values.
	Fields map[string]string
	// Keys holds field names in first-seen order.
	Keys []string
}

// Get returns the raw value of a field and whether the field was present.
func (e Entry) Get(name string) (string, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

func (e *Entry) set(name, value string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, seen := e.Fields[name]; !seen {
		e.Keys = append(e.Keys, name)
	}
	e.Fields[name] = value
}

// HeaderField returns the field that opens an entry in blocks of the given
// kind, or "" when the kind has no header.
func HeaderField(kind model.BlockKind) string {
	switch kind {
	case model.KindUnderstanding:
		return FieldConceptName
	case model.KindLearning:
		return FieldDialogID
	}
	return ""
}

// Parse splits text into entries. It is a pure function of its input.
// Entries whose header value starts with '#' are commented-out placeholders
// and are omitted. Lines before the first header are ignored.
func Parse(text string, kind model.BlockKind) []Entry {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	header := HeaderField(kind)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	if header == "" {
		e := Entry{}
		for _, line := range lines {
			if name, value, ok := splitField(line); ok {
				e.set(name, value)
			}
		}
		return []Entry{e}
	}

	var entries []Entry
	var current *Entry
	skipping := false

	flush := func() {
		if current != nil && !skipping {
			entries = append(entries, *current)
		}
		current = nil
	}

	for _, line := range lines {
		if value, ok := headerValue(line, header); ok {
			flush()
			skipping = strings.HasPrefix(value, "#")
			current = &Entry{Header: value}
			current.set(header, value)
			continue
		}
		if current == nil || skipping {
			continue
		}
		if name, value, ok := splitField(line); ok {
			current.set(name, value)
		}
	}
	flush()

	return entries
}

// Collapse keeps only the last entry for each header value, ordered by the
// position of that last occurrence. Entries without a header are kept as is.
func Collapse(entries []Entry) []Entry {
	last := make(map[string]int, len(entries))
	for i, e := range entries {
		if e.Header != "" {
			last[e.Header] = i
		}
	}
	out := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if e.Header != "" && last[e.Header] != i {
			continue
		}
		out = append(out, e)
	}
	return out
}

// headerValue reports whether line is a "- <header>: value" line.
func headerValue(line, header string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "-") {
		return "", false
	}
	name, value, ok := splitField(trimmed)
	if !ok || name != header {
		return "", false
	}
	return value, true
}

func splitField(line string) (name, value string, ok bool) {
	m := fieldLine.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), strings.TrimSpace(m[2]), true
}
