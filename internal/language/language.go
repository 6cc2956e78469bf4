package language

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// Error is a located parse or validation error. Validation errors name the
// rule that produced them.
type Error = gqlerror.Error

// ErrorList is a list of located parse or validation errors.
type ErrorList = gqlerror.List

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema parses and validates SDL. The GraphQL prelude (built-in
// scalars, directives and introspection types) is included implicitly.
func LoadSchema(name, source string) (*ValidatedSchema, error) {
	s, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// LoadQuery parses source and validates it against s.
func LoadQuery(s *ValidatedSchema, source string) (*QueryDocument, ErrorList) {
	doc, errs := gqlparser.LoadQuery(s, source)
	if len(errs) > 0 {
		return nil, errs
	}
	return doc, nil
}
