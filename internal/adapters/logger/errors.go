package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// messager describes an error that can report its own message without the chain.
// zerr.Error provides it.
type messager interface {
	Message() string
	Metadata() map[string]any
}

// ErrorEntry is one level of an error chain.
type ErrorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries walks err's chain. zerr levels contribute their own
// message and metadata; the first standard error contributes its full text
// and ends the walk. A zerr level with an empty message hands its metadata
// to the next level.
func collectErrorEntries(err error) []ErrorEntry {
	var (
		entries []ErrorEntry
		pending map[string]any
	)

	for current := err; current != nil; {
		m, ok := current.(messager)
		if !ok {
			entries = append(entries, ErrorEntry{Message: current.Error(), Metadata: merge(nil, pending)})
			break
		}

		next := errors.Unwrap(current)
		if m.Message() == "" && next != nil {
			pending = merge(pending, m.Metadata())
			current = next
			continue
		}

		entries = append(entries, ErrorEntry{Message: m.Message(), Metadata: merge(m.Metadata(), pending)})
		pending = nil
		current = next
	}

	return entries
}

func merge(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		if _, exists := dst[k]; !exists {
			dst[k] = v
		}
	}
	return dst
}

// formatErrorEntries renders entries as:
//
//	Error: main message
//	       key: value
//
//	  Caused by:
//	    → cause
//	      key: value
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string

	for i, entry := range entries {
		msgLines := strings.Split(entry.Message, "\n")

		head, indent := "Error: ", "       "
		if i > 0 {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			head, indent = "    → ", "      "
		}

		lines = append(lines, head+msgLines[0])
		for _, line := range msgLines[1:] {
			lines = append(lines, indent+line)
		}
		for _, key := range slices.Sorted(maps.Keys(entry.Metadata)) {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, key, entry.Metadata[key]))
		}
	}

	return strings.Join(lines, "\n")
}
