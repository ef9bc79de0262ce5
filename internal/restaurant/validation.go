package restaurant

import (
	"strings"
	"unicode/utf8"
)

// Violation is a single failed field rule.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations keeps rule failures in evaluation order.
type Violations []Violation

// Valid reports whether no rule failed.
func (v Violations) Valid() bool { return len(v) == 0 }

// Messages returns the human readable messages in order.
func (v Violations) Messages() []string {
	out := make([]string, 0, len(v))
	for _, x := range v {
		out = append(out, x.Message)
	}
	return out
}

// ValidationError rejects a write whose entity or value object failed validation.
type ValidationError struct {
	Violations Violations
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations.Messages(), "; ")
}

// rules collects violations without short-circuiting.
type rules struct {
	out Violations
}

func (r *rules) check(ok bool, field, msg string) {
	if !ok {
		r.out = append(r.out, Violation{Field: field, Message: msg})
	}
}

func (r *rules) notEmpty(field, value, msg string) {
	r.check(strings.TrimSpace(value) != "", field, msg)
}

func (r *rules) maxLen(field, value string, n int, msg string) {
	r.check(utf8.RuneCountInString(value) <= n, field, msg)
}

func (r *rules) exactLen(field, value string, n int, msg string) {
	r.check(utf8.RuneCountInString(value) == n, field, msg)
}
