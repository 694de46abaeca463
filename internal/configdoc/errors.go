package configdoc

import "fmt"

// ParseError reports malformed YAML, either for a whole document on Load or
// for a single field edit that fell back to a string value.
type ParseError struct {
	// Path is the file being parsed, empty for field edits.
	Path string

	// Key is the field being edited, empty for document parses.
	Key string

	Err error
}

func (e *ParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("field %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
