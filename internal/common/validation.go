package common

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// FieldProblem is one rejected value inside a larger input such as a template.
type FieldProblem struct {
	Path    string
	Value   any
	Message string
}

func (p FieldProblem) String() string {
	return fmt.Sprintf("%s %s (got %q)", p.Path, p.Message, fmt.Sprint(p.Value))
}

// Rule checks a single value and returns a message when it is rejected.
type Rule func(value any) (string, bool)

// Validator collects problems across several paths so callers can report
// them together.
type Validator struct {
	problems []FieldProblem
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field applies rules to value in order and records every failure.
func (v *Validator) Field(path string, value any, rules ...Rule) *Validator {
	for _, rule := range rules {
		if msg, bad := rule(value); bad {
			v.Add(path, value, msg)
		}
	}
	return v
}

func (v *Validator) Add(path string, value any, message string) *Validator {
	v.problems = append(v.problems, FieldProblem{Path: path, Value: value, Message: message})
	return v
}

func (v *Validator) Problems() []FieldProblem {
	return v.problems
}

// Err returns nil, or a VALIDATION_ERROR AppError listing every problem.
func (v *Validator) Err() error {
	if len(v.problems) == 0 {
		return nil
	}
	parts := make([]string, len(v.problems))
	for i, p := range v.problems {
		parts[i] = p.String()
	}
	return NewAppError("VALIDATION_ERROR", strings.Join(parts, "; "), ErrValidation)
}

// Required rejects nil and blank strings.
func Required(value any) (string, bool) {
	switch s := value.(type) {
	case nil:
		return "is required", true
	case string:
		return "is required", strings.TrimSpace(s) == ""
	}
	return "", false
}

func MaxLength(max int) Rule {
	return func(value any) (string, bool) {
		s, ok := value.(string)
		if !ok || utf8.RuneCountInString(s) <= max {
			return "", false
		}
		return fmt.Sprintf("must be at most %d characters", max), true
	}
}

// OneOf accepts only the listed values. Empty strings pass; pair with Required.
func OneOf(allowed ...string) Rule {
	return func(value any) (string, bool) {
		s := fmt.Sprint(value)
		if s == "" || slices.Contains(allowed, s) {
			return "", false
		}
		return "must be one of " + strings.Join(allowed, ", "), true
	}
}
