package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL from the Schema.
// Deterministic ordering: type/directive names sorted lexicographically;
// fields and arguments keep declaration order.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder

	if s.Description != "" || !isConventionalRoots(s) {
		renderDescription(&b, "", s.Description)
		b.WriteString("schema {\n")
		if s.QueryType != "" {
			b.WriteString("  query: " + s.QueryType + "\n")
		}
		if s.MutationType != "" {
			b.WriteString("  mutation: " + s.MutationType + "\n")
		}
		b.WriteString("}\n\n")
	}

	typeNames := make([]string, 0, len(s.Types))
	for name, typ := range s.Types {
		if isBuiltinType(typ) || isIntrospectionName(name) {
			continue
		}
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, name := range typeNames {
		typ := s.Types[name]
		switch typ.Kind {
		case TypeKindScalar:
			renderScalar(&b, typ)
		case TypeKindObject:
			renderObject(&b, typ)
		case TypeKindEnum:
			renderEnum(&b, typ)
		}
	}

	directiveNames := make([]string, 0, len(s.Directives))
	for name, directive := range s.Directives {
		if isBuiltinDirective(directive) {
			continue
		}
		directiveNames = append(directiveNames, name)
	}
	sort.Strings(directiveNames)
	for _, name := range directiveNames {
		renderDirective(&b, s.Directives[name])
	}

	out := strings.TrimRight(b.String(), "\n") + "\n"
	return out
}

// isConventionalRoots reports whether the root types use the default names,
// in which case the schema block can be omitted.
func isConventionalRoots(s *Schema) bool {
	return (s.QueryType == "" || s.QueryType == QueryTypeName) &&
		(s.MutationType == "" || s.MutationType == MutationTypeName)
}

// ----- render helpers -----

func renderDescription(b *strings.Builder, indent, desc string) {
	if desc == "" {
		return
	}
	if !strings.ContainsAny(desc, "\n\"\\") {
		b.WriteString(indent + strconv.Quote(desc) + "\n")
		return
	}
	escaped := strings.ReplaceAll(desc, `"""`, `\"""`)
	b.WriteString(indent + `"""` + "\n")
	for _, line := range strings.Split(escaped, "\n") {
		b.WriteString(indent + line + "\n")
	}
	b.WriteString(indent + `"""` + "\n")
}

func renderScalar(b *strings.Builder, typ *Type) {
	renderDescription(b, "", typ.Description)
	b.WriteString("scalar ")
	b.WriteString(typ.Name)
	b.WriteString("\n\n")
}

func renderObject(b *strings.Builder, typ *Type) {
	renderDescription(b, "", typ.Description)
	b.WriteString("type ")
	b.WriteString(typ.Name)
	b.WriteString(" {\n")
	for _, field := range typ.Fields {
		if isIntrospectionName(field.Name) {
			continue
		}
		renderField(b, field)
	}
	b.WriteString("}\n\n")
}

func renderEnum(b *strings.Builder, typ *Type) {
	renderDescription(b, "", typ.Description)
	b.WriteString("enum ")
	b.WriteString(typ.Name)
	b.WriteString(" {\n")
	for _, v := range typ.EnumValues {
		renderDescription(b, "  ", v.Description)
		b.WriteString("  ")
		b.WriteString(v.Name)
		if v.IsDeprecated {
			b.WriteString(" @deprecated")
			if v.DeprecationReason != "" {
				b.WriteString("(reason: " + strconv.Quote(v.DeprecationReason) + ")")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

// isIntrospectionName reports names reserved for the introspection system.
// Every GraphQL schema implies them, so SDL never spells them out.
func isIntrospectionName(name string) bool { return strings.HasPrefix(name, "__") }

func renderField(b *strings.Builder, field *Field) {
	renderDescription(b, "  ", field.Description)
	b.WriteString("  ")
	b.WriteString(field.Name)
	renderArguments(b, "  ", field.Arguments)
	b.WriteString(": ")
	b.WriteString(field.Type.String())
	if field.IsDeprecated {
		b.WriteString(" @deprecated")
		if field.DeprecationReason != "" {
			b.WriteString("(reason: ")
			b.WriteString(strconv.Quote(field.DeprecationReason))
			b.WriteString(")")
		}
	}
	b.WriteString("\n")
}

// renderArguments writes arguments inline unless one of them carries a
// description, in which case each argument goes on its own line.
func renderArguments(b *strings.Builder, indent string, args []*InputValue) {
	if len(args) == 0 {
		return
	}
	multiline := false
	for _, arg := range args {
		if arg.Description != "" {
			multiline = true
			break
		}
	}
	b.WriteString("(")
	for i, arg := range args {
		if multiline {
			b.WriteString("\n")
			renderDescription(b, indent+"  ", arg.Description)
			b.WriteString(indent + "  ")
		} else if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.Name)
		b.WriteString(": ")
		b.WriteString(arg.Type.String())
		if arg.DefaultValue != nil {
			b.WriteString(" = ")
			b.WriteString(renderValue(arg.DefaultValue))
		}
	}
	if multiline {
		b.WriteString("\n" + indent)
	}
	b.WriteString(")")
}

func renderDirective(b *strings.Builder, directive *Directive) {
	renderDescription(b, "", directive.Description)
	b.WriteString("directive @")
	b.WriteString(directive.Name)
	renderArguments(b, "", directive.Arguments)
	if directive.IsRepeatable {
		b.WriteString(" repeatable")
	}
	b.WriteString(" on ")
	b.WriteString(strings.Join(directive.Locations, " | "))
	b.WriteString("\n\n")
}

// FormatValue renders value as a GraphQL literal.
func FormatValue(value any) string { return renderValue(value) }

// renderValue renders a GraphQL value (for default values, directive arguments, etc.)
func renderValue(value any) string {
	if value == nil {
		return "null"
	}

	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		var parts []string
		for _, item := range v {
			parts = append(parts, renderValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}
