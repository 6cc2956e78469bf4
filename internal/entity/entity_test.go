package entity

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/jobgraph/internal/store"
)

type fakeRecord struct {
	id    int64
	attrs map[string]any
}

func (r fakeRecord) RecordKind() store.Kind { return store.KindUser }
func (r fakeRecord) RecordID() int64        { return r.id }
func (r fakeRecord) Attr(name string) (any, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

func TestBuildEntitySchema_DuplicateField(t *testing.T) {
	_, err := BuildEntitySchema("User", []FieldDescriptor{
		Describe("id", Int, false, ""),
		Describe("id", String, true, ""),
	}, store.KindUser)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	require.Contains(t, se.Error(), `duplicate field "id"`)
}

func TestBuildEntitySchema_EmptyNames(t *testing.T) {
	_, err := BuildEntitySchema("", nil, store.KindUser)
	require.Error(t, err)

	_, err = BuildEntitySchema("User", []FieldDescriptor{Describe(" ", Int, false, "")}, store.KindUser)
	require.Error(t, err)
}

func TestEntitySchema_FieldOrder(t *testing.T) {
	es, err := BuildEntitySchema("Job", []FieldDescriptor{
		Describe("id", Int, false, "job id"),
		Describe("name", String, true, "job name"),
		Describe("owner", Ref("User"), true, ""),
	}, store.KindJob)
	require.NoError(t, err)

	var names []string
	for _, f := range es.Fields() {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"id", "name", "owner"}, names); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
	f, ok := es.Field("owner")
	require.True(t, ok)
	require.True(t, f.Type.IsRelation())
}

func TestShape_SkipsRelationsAndKeepsOrder(t *testing.T) {
	es, err := BuildEntitySchema("User", []FieldDescriptor{
		Describe("id", Int, false, ""),
		Describe("name", String, true, ""),
		Describe("email", String, true, ""),
		Describe("jobs", ListOf(Ref("Job")), true, ""),
	}, store.KindUser)
	require.NoError(t, err)

	obj := es.Shape(fakeRecord{id: 7, attrs: map[string]any{
		"id":       int64(7),
		"name":     "kwen",
		"password": "secret-hash",
	}})
	require.Equal(t, int64(7), obj.ID)
	require.Equal(t, []string{"id", "name", "email"}, obj.Names())

	email, ok := obj.Get("email")
	require.True(t, ok)
	require.Nil(t, email)
	_, ok = obj.Get("password")
	require.False(t, ok, "undeclared attributes must not leak")

	b, err := json.Marshal(obj)
	require.NoError(t, err)
	require.Equal(t, `{"id":7,"name":"kwen","email":null}`, string(b))
}

func TestShape_IDFieldsAreStrings(t *testing.T) {
	es, err := BuildEntitySchema("Job", []FieldDescriptor{
		Describe("id", Int, false, ""),
		Describe("userId", ID, true, ""),
	}, store.KindJob)
	require.NoError(t, err)

	obj := es.Shape(fakeRecord{id: 3, attrs: map[string]any{"id": int64(3), "userId": int64(1)}})
	owner, _ := obj.Get("userId")
	require.Equal(t, "1", owner)
	b, err := json.Marshal(obj)
	require.NoError(t, err)
	require.Equal(t, `{"id":3,"userId":"1"}`, string(b))

	obj = es.Shape(fakeRecord{id: 4, attrs: map[string]any{"id": int64(4)}})
	owner, _ = obj.Get("userId")
	require.Nil(t, owner)
}

func TestSemanticTypeString(t *testing.T) {
	cases := map[string]SemanticType{
		"Int":     Int,
		"String":  String,
		"ID":      ID,
		"[Int]":   ListOf(Int),
		"[[ID]]":  ListOf(ListOf(ID)),
		"[Job]":   ListOf(Ref("Job")),
		"Account": Ref("Account"),
	}
	for want, st := range cases {
		require.Equal(t, want, st.String())
	}
}
