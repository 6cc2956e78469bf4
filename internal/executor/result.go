package executor

import (
	"errors"

	language "github.com/hanpama/jobgraph/internal/language"
)

// Location is a line/column position in the request document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError represents an error that occurred during execution
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExecutionResult represents the result of executing a GraphQL query
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// coder is implemented by errors that carry a stable machine-readable code.
type coder interface {
	Code() string
}

// ErrorCode returns the code of the first error in err's chain that has one.
func ErrorCode(err error) (string, bool) {
	var c coder
	if errors.As(err, &c) {
		return c.Code(), true
	}
	return "", false
}

// locatedErrors converts err into GraphQL errors positioned at the given
// field nodes. Joined errors are reported one entry each.
func locatedErrors(err error, fields []*language.Field, path Path) []GraphQLError {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []GraphQLError
		for _, inner := range joined.Unwrap() {
			out = append(out, locatedErrors(inner, fields, path)...)
		}
		return out
	}
	ge := GraphQLError{Message: err.Error(), Path: path}
	for _, f := range fields {
		if f != nil && f.Position != nil {
			ge.Locations = append(ge.Locations, Location{Line: f.Position.Line, Column: f.Position.Column})
		}
	}
	if code, ok := ErrorCode(err); ok {
		ge.Extensions = map[string]any{"code": code}
	}
	return []GraphQLError{ge}
}
