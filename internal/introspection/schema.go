package introspection

import (
	schema "github.com/hanpama/jobgraph/internal/schema"
)

var (
	str     = schema.NamedType("String")
	boolean = schema.NamedType("Boolean")
)

func nonNull(name string) *schema.TypeRef { return schema.NonNullType(schema.NamedType(name)) }

func listOf(name string) *schema.TypeRef {
	return schema.ListType(schema.NonNullType(schema.NamedType(name)))
}

func includeDeprecated() *schema.InputValue {
	return schema.NewInputValue("includeDeprecated", "", boolean).SetDefault(false)
}

// extend returns a copy of s that also declares the introspection types and
// the __schema and __type root fields. s itself is left untouched.
func extend(s *schema.Schema) *schema.Schema {
	out := schema.NewSchema(s.Description).SetQueryType(s.QueryType).SetMutationType(s.MutationType)
	for _, t := range s.Types {
		out.AddType(t)
	}
	for _, d := range s.Directives {
		out.AddDirective(d)
	}
	for _, t := range introspectionTypes() {
		out.AddType(t)
	}

	if q := s.GetQueryType(); q != nil {
		root := schema.NewType(q.Name, q.Kind, q.Description)
		root.Fields = append(root.Fields, q.Fields...)
		root.AddField(schema.NewField("__schema", "Access the current type schema of this server.", nonNull("__Schema")))
		root.AddField(schema.NewField("__type", "Request the type information of a single type.", schema.NamedType("__Type")).
			AddArgument(schema.NewInputValue("name", "The name of the type to look up.", nonNull("String"))))
		out.AddType(root)
	}
	return out
}

func introspectionTypes() []*schema.Type {
	schemaT := schema.NewType("__Schema", schema.TypeKindObject, "A GraphQL Schema defines the capabilities of a GraphQL server.").
		AddField(schema.NewField("description", "", str)).
		AddField(schema.NewField("types", "A list of all types supported by this server.", schema.NonNullType(listOf("__Type")))).
		AddField(schema.NewField("queryType", "The type that query operations will be rooted at.", nonNull("__Type"))).
		AddField(schema.NewField("mutationType", "The type that mutation operations will be rooted at, if any.", schema.NamedType("__Type"))).
		AddField(schema.NewField("subscriptionType", "The type that subscription operations will be rooted at, if any.", schema.NamedType("__Type"))).
		AddField(schema.NewField("directives", "A list of all directives supported by this server.", schema.NonNullType(listOf("__Directive"))))

	typeT := schema.NewType("__Type", schema.TypeKindObject, "The fundamental unit of any GraphQL Schema is the type.").
		AddField(schema.NewField("kind", "", nonNull("__TypeKind"))).
		AddField(schema.NewField("name", "", str)).
		AddField(schema.NewField("description", "", str)).
		AddField(schema.NewField("specifiedByURL", "", str)).
		AddField(schema.NewField("fields", "", listOf("__Field")).AddArgument(includeDeprecated())).
		AddField(schema.NewField("interfaces", "", listOf("__Type"))).
		AddField(schema.NewField("possibleTypes", "", listOf("__Type"))).
		AddField(schema.NewField("enumValues", "", listOf("__EnumValue")).AddArgument(includeDeprecated())).
		AddField(schema.NewField("inputFields", "", listOf("__InputValue")).AddArgument(includeDeprecated())).
		AddField(schema.NewField("ofType", "", schema.NamedType("__Type"))).
		AddField(schema.NewField("isOneOf", "", boolean))

	fieldT := schema.NewType("__Field", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", nonNull("String"))).
		AddField(schema.NewField("description", "", str)).
		AddField(schema.NewField("args", "", schema.NonNullType(listOf("__InputValue"))).AddArgument(includeDeprecated())).
		AddField(schema.NewField("type", "", nonNull("__Type"))).
		AddField(schema.NewField("isDeprecated", "", nonNull("Boolean"))).
		AddField(schema.NewField("deprecationReason", "", str))

	inputValueT := schema.NewType("__InputValue", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", nonNull("String"))).
		AddField(schema.NewField("description", "", str)).
		AddField(schema.NewField("type", "", nonNull("__Type"))).
		AddField(schema.NewField("defaultValue", "A GraphQL-formatted string representing the default value.", str)).
		AddField(schema.NewField("isDeprecated", "", nonNull("Boolean"))).
		AddField(schema.NewField("deprecationReason", "", str))

	enumValueT := schema.NewType("__EnumValue", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", nonNull("String"))).
		AddField(schema.NewField("description", "", str)).
		AddField(schema.NewField("isDeprecated", "", nonNull("Boolean"))).
		AddField(schema.NewField("deprecationReason", "", str))

	directiveT := schema.NewType("__Directive", schema.TypeKindObject, "").
		AddField(schema.NewField("name", "", nonNull("String"))).
		AddField(schema.NewField("description", "", str)).
		AddField(schema.NewField("isRepeatable", "", nonNull("Boolean"))).
		AddField(schema.NewField("locations", "", schema.NonNullType(listOf("__DirectiveLocation")))).
		AddField(schema.NewField("args", "", schema.NonNullType(listOf("__InputValue"))).AddArgument(includeDeprecated()))

	return []*schema.Type{
		schemaT, typeT, fieldT, inputValueT, enumValueT, directiveT,
		enum("__TypeKind", "SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL"),
		enum("__DirectiveLocation",
			"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
			"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
			"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT",
			"INPUT_FIELD_DEFINITION"),
	}
}

func enum(name string, values ...string) *schema.Type {
	t := schema.NewType(name, schema.TypeKindEnum, "")
	for _, v := range values {
		t.AddEnumValue(&schema.EnumValue{Name: v})
	}
	return t
}
