package executor

import (
	"fmt"
	"strconv"
	"strings"

	language "github.com/hanpama/jobgraph/internal/language"
	schema "github.com/hanpama/jobgraph/internal/schema"
)

// coerceVariableValues applies defaults and enforces presence of required
// variables. Values are passed through untyped; argument validation happens
// in the runtime.
func coerceVariableValues(
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			val, ok = variableValues[strings.TrimPrefix(name, "$")]
		}
		if !ok {
			switch {
			case varDef.DefaultValue != nil:
				val = astValueToGo(varDef.DefaultValue)
			case t.NonNull:
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t.String())
			default:
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, t.String())
		}
		// A single value supplied for a list type becomes a list of one.
		if t.Elem != nil && val != nil {
			if _, isList := val.([]any); !isList {
				val = []any{val}
			}
		}
		coerced[name] = val
	}
	return coerced, nil
}

// argumentValues collects the field's argument values with variables
// substituted. Arguments bound to an unset variable are left out, and
// declared defaults fill in the rest.
func argumentValues(
	fieldDef *schema.Field,
	arguments language.ArgumentList,
	variableValues map[string]any,
) map[string]any {
	values := make(map[string]any)
	for _, arg := range arguments {
		if arg.Value != nil && arg.Value.Kind == language.Variable {
			v, ok := variableValues[arg.Value.Raw]
			if !ok {
				continue
			}
			values[arg.Name] = v
			continue
		}
		values[arg.Name] = valueFromASTWithVars(arg.Value, variableValues)
	}
	for _, argDef := range fieldDef.Arguments {
		if _, ok := values[argDef.Name]; !ok && argDef.DefaultValue != nil {
			values[argDef.Name] = argDef.DefaultValue
		}
	}
	return values
}

// valueFromASTWithVars converts an AST value to a runtime value with variable substitution
func valueFromASTWithVars(value *language.Value, variableValues map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.Variable:
		return variableValues[value.Raw]
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = valueFromASTWithVars(c.Value, variableValues)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = valueFromASTWithVars(f.Value, variableValues)
		}
		return m
	default:
		return astValueToGo(value)
	}
}

// astValueToGo converts a constant AST value to a Go value. Integer literals
// that do not fit an int64 are kept as their source text.
func astValueToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		if iv, err := strconv.ParseInt(value.Raw, 10, 64); err == nil {
			return iv
		}
		return value.Raw
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue, language.EnumValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.NullValue:
		return nil
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = astValueToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}
