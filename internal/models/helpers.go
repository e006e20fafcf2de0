package models

import "strings"

// NewNullString returns nil for a blank string so the column is stored as NULL.
func NewNullString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// TrimOptional is NewNullString for optional inputs.
func TrimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	return NewNullString(*s)
}
