// Package directive extracts document update suggestions from model replies.
//
// A reply may contain one update directive, wrapped in
// <prd_update>...</prd_update>. The payload is the markdown the model proposes
// to append to the document.
package directive

import (
	"regexp"
	"strings"
)

const (
	OpenMarker  = "<prd_update>"
	CloseMarker = "</prd_update>"
)

// The payload may span lines and ends at the first closing marker.
var directivePattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(OpenMarker) + `(.*?)` + regexp.QuoteMeta(CloseMarker))

// Extract returns the trimmed payload of the first directive in text, or nil
// when there is none or its payload is blank. Later directives are ignored.
func Extract(text string) *string {
	match := directivePattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	payload := strings.TrimSpace(match[1])
	if payload == "" {
		return nil
	}
	return &payload
}
