package executor

import (
	"context"
	"fmt"
	"reflect"

	language "github.com/hanpama/jobgraph/internal/language"
	schema "github.com/hanpama/jobgraph/internal/schema"
)

type Path []PathElement

type PathElement any

// executionState holds the state during query execution
type executionState struct {
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	asyncTaskGroup []asyncTask
	errors         []GraphQLError
	// prefixes of paths that have been nullified (tombstoned)
	nullifiedPrefix map[string]struct{}
}

// asyncTask represents a pending async field resolution
type asyncTask struct {
	Task         AsyncResolveTask
	ResponsePath Path
	FieldType    *schema.TypeRef
	Fields       []*language.Field
}

// asyncPending marks a response slot whose value arrives with a later batch.
type asyncPending struct{}

type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// Schema returns the schema the executor runs against.
func (e *Executor) Schema() *schema.Schema { return e.schema }

// ExecuteRequest runs the selected operation of document. The document is
// expected to be validated already.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation := GetOperation(document, operationName)
	if operation == nil {
		msg := "operation not found"
		if operationName != "" {
			msg = fmt.Sprintf("operation %q not found", operationName)
		}
		return &ExecutionResult{Errors: []GraphQLError{{Message: msg}}}
	}

	coercedVariableValues, err := coerceVariableValues(operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation)}}}
	}

	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("root type not found for %s operation", operation.Operation)}}}
	}

	state := &executionState{
		runtime:         e.runtime,
		schema:          e.schema,
		document:        document,
		variableValues:  coercedVariableValues,
		context:         ctx,
		errors:          []GraphQLError{},
		nullifiedPrefix: make(map[string]struct{}),
	}

	// Root selection set: sync immediate expansion, async queued
	responseRoot := executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, Path{})
	if responseRoot == nil {
		responseRoot = make(map[string]any)
	}

	// Depth-wise batch loop
	for len(state.asyncTaskGroup) > 0 {
		if err := ctx.Err(); err != nil {
			for _, at := range state.asyncTaskGroup {
				failAsyncField(state, at, err, responseRoot)
			}
			break
		}
		filtered, results := flushAsyncTasks(state)
		for i, at := range filtered {
			completeAsyncField(state, at, results[i], responseRoot)
		}
	}

	return &ExecutionResult{Data: responseRoot, Errors: state.errors}
}

// executeSelectionSet executes a selection set without flushing
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path Path) map[string]any {
	groupedFields := collectFields(state, objectType, selectionSet)
	resultMap := make(map[string]any)

	for _, collectedField := range groupedFields.orderedFields() {
		responseName := collectedField.ResponseName
		fields := collectedField.Fields
		fieldPath := appendPath(path, responseName)

		if fields[0].Name == "__typename" {
			resultMap[responseName] = objectType.Name
			continue
		}

		fieldDef := objectType.Field(fields[0].Name)
		if fieldDef == nil {
			state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", fields[0].Name, objectType.Name), fields, fieldPath)
			continue
		}

		fieldResult := executeField(state, objectType, fieldDef, objectValue, fields, fieldPath)

		if schema.IsNonNull(fieldDef.Type) && isNullish(fieldResult) {
			if len(path) > 0 {
				return nil
			}
			// Root level: keep going but write nil
			resultMap[responseName] = nil
			continue
		}

		// Coerce typed-nil to interface-nil
		if isNullish(fieldResult) {
			resultMap[responseName] = nil
		} else {
			resultMap[responseName] = fieldResult
		}
	}

	return resultMap
}

func executeField(state *executionState, objectType *schema.Type, fieldDef *schema.Field, objectValue any, fields []*language.Field, path Path) any {
	argumentValues := argumentValues(fieldDef, fields[0].Arguments, state.variableValues)

	if !fieldDef.Async {
		value, err := state.runtime.ResolveSync(state.context, objectType.Name, fieldDef.Name, objectValue, argumentValues)
		if err != nil {
			state.addLocated(err, fields, path)
			return nil
		}
		return completeValue(state, fieldDef.Type, fields, value, path)
	}

	state.asyncTaskGroup = append(state.asyncTaskGroup, asyncTask{
		Task: AsyncResolveTask{
			ObjectType: objectType.Name,
			Field:      fieldDef.Name,
			Source:     objectValue,
			Args:       argumentValues,
		},
		ResponsePath: path,
		FieldType:    fieldDef.Type,
		Fields:       fields,
	})
	return asyncPending{}
}

// flushAsyncTasks flushes tasks and returns results (filtered by tombstones)
func flushAsyncTasks(state *executionState) ([]asyncTask, []AsyncResolveResult) {
	filtered := make([]asyncTask, 0, len(state.asyncTaskGroup))
	for _, at := range state.asyncTaskGroup {
		if state.hasNullifiedPrefix(at.ResponsePath) {
			continue
		}
		filtered = append(filtered, at)
	}

	tasks := make([]AsyncResolveTask, len(filtered))
	for i, at := range filtered {
		tasks[i] = at.Task
	}

	// Clear group before executing; completions queue the next depth.
	state.asyncTaskGroup = nil
	if len(tasks) == 0 {
		return nil, nil
	}

	results := state.runtime.BatchResolveAsync(state.context, tasks)
	if len(results) != len(tasks) {
		err := fmt.Errorf("runtime returned %d results for %d tasks", len(results), len(tasks))
		results = make([]AsyncResolveResult, len(tasks))
		for i := range results {
			results[i].Error = err
		}
	}
	return filtered, results
}

// completeAsyncField completes a single async result, with non-null propagation and pruning
func completeAsyncField(state *executionState, at asyncTask, res AsyncResolveResult, responseRoot map[string]any) {
	path := at.ResponsePath
	if state.hasNullifiedPrefix(path) {
		return
	}

	if res.Error != nil {
		failAsyncField(state, at, res.Error, responseRoot)
		return
	}

	completed := completeValue(state, at.FieldType, at.Fields, res.Value, path)

	if schema.IsNonNull(at.FieldType) && isNullish(completed) {
		state.nullify(responseRoot, path)
		return
	}

	if isNullish(completed) {
		setValueAtPath(responseRoot, path, nil)
	} else {
		setValueAtPath(responseRoot, path, completed)
	}
}

func failAsyncField(state *executionState, at asyncTask, err error, responseRoot map[string]any) {
	state.addLocated(err, at.Fields, at.ResponsePath)
	if schema.IsNonNull(at.FieldType) {
		state.nullify(responseRoot, at.ResponsePath)
		return
	}
	setValueAtPath(responseRoot, at.ResponsePath, nil)
}

// nullify propagates a Non-Null violation at path to its top-level field and
// tombstones that field so queued descendants are dropped.
func (s *executionState) nullify(responseRoot map[string]any, path Path) {
	top := topLevelFieldPath(path)
	setValueAtPath(responseRoot, top, nil)
	s.markNullifiedPrefix(top)
}

// completeValue completes a value
func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), fields, path)
			}
			return nil
		}
		completed := completeValue(state, schema.Unwrap(fieldType), fields, result, path)
		if isNullish(completed) {
			return nil
		}
		return completed
	}

	if isNullish(result) {
		return nil
	}

	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path)
	}
	namedType := schema.GetNamedType(fieldType)
	typeObj := state.schema.Types[namedType]
	if typeObj == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", namedType), fields, path)
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar:
		serialized, err := state.runtime.SerializeLeafValue(state.context, namedType, result)
		if err != nil {
			state.addLocated(err, fields, path)
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		return executeSelectionSet(state, typeObj, mergeSelectionSets(fields), result, path)
	case schema.TypeKindEnum:
		name, ok := result.(string)
		if !ok || typeObj.EnumValue(name) == nil {
			state.addError(fmt.Sprintf("Enum '%s' cannot represent value: %v", namedType, result), fields, path)
			return nil
		}
		return name
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), fields, path)
		return nil
	}
}

// completeListValue completes a list value
func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), fields, path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := range rv.Len() {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		v := completeValue(state, inner, fields, item, appendPath(path, i))
		if schema.IsNonNull(inner) && isNullish(v) {
			// Propagate null to the list field; error already recorded by inner completion
			return nil
		}
		if isNullish(v) {
			// A nulled object arrives as a typed nil map.
			v = nil
		}
		completed[i] = v
	}
	return completed
}

func pathToString(path Path) string {
	result := ""
	for i, elem := range path {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				result += "."
			}
			result += v
		case int:
			result += fmt.Sprintf("[%d]", v)
		}
	}
	return result
}

func appendPath(path Path, elem PathElement) Path {
	newPath := make(Path, len(path)+1)
	copy(newPath, path)
	newPath[len(path)] = elem
	return newPath
}

// Prefix tombstone helpers
func (s *executionState) markNullifiedPrefix(p Path) {
	key := pathToString(p)
	if key != "" {
		s.nullifiedPrefix[key] = struct{}{}
	}
}

func (s *executionState) hasNullifiedPrefix(p Path) bool {
	if len(s.nullifiedPrefix) == 0 {
		return false
	}
	for i := 1; i <= len(p); i++ {
		if _, ok := s.nullifiedPrefix[pathToString(p[:i])]; ok {
			return true
		}
	}
	return false
}

func topLevelFieldPath(p Path) Path {
	for _, elem := range p {
		if name, ok := elem.(string); ok {
			return Path{name}
		}
	}
	return Path{}
}

// GetOperation selects the operation to run: the one named operationName, or
// the only operation when the name is empty.
func GetOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if document == nil {
		return nil
	}
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0]
		}
		return nil
	}
	return document.Operations.ForName(operationName)
}

func (s *executionState) addError(message string, fields []*language.Field, path Path) {
	s.addLocated(fmt.Errorf("%s", message), fields, path)
}

func (s *executionState) addLocated(err error, fields []*language.Field, path Path) {
	s.errors = append(s.errors, locatedErrors(err, fields, path)...)
}

// hasErrorAtPath reports whether an error with the given path already exists.
func (s *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range s.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// setValueAtPath writes value into the response tree. Intermediate maps and
// lists were created by earlier completions.
func setValueAtPath(responseRoot map[string]any, path Path, value any) {
	if len(path) == 0 {
		return
	}
	current := any(responseRoot)
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return
			}
			next, exists := m[e]
			if !exists || next == nil {
				return
			}
			current = next
		case int:
			slice, ok := current.([]any)
			if !ok || e >= len(slice) || slice[e] == nil {
				return
			}
			current = slice[e]
		}
	}
	switch fe := path[len(path)-1].(type) {
	case string:
		if m, ok := current.(map[string]any); ok {
			m[fe] = value
		}
	case int:
		if slice, ok := current.([]any); ok && fe < len(slice) {
			slice[fe] = value
		}
	}
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
