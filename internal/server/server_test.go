package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	eventbus "github.com/hanpama/jobgraph/internal/eventbus"
	events "github.com/hanpama/jobgraph/internal/events"
	"github.com/hanpama/jobgraph/internal/gqlrt"
	"github.com/hanpama/jobgraph/internal/registry"
	reqid "github.com/hanpama/jobgraph/internal/reqid"
	"github.com/hanpama/jobgraph/internal/resolver"
	schema "github.com/hanpama/jobgraph/internal/schema"
	"github.com/hanpama/jobgraph/internal/store/storetest"
)

type response struct {
	Data   map[string]any `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Path       []any          `json:"path"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	reg, err := registry.New(storetest.New(t), registry.WithHasher(resolver.BcryptHasher{Cost: bcrypt.MinCost}))
	require.NoError(t, err)
	exec, err := gqlrt.NewExecutor(reg)
	require.NoError(t, err)
	h, err := New(exec, opts...)
	require.NoError(t, err)
	return h
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response {
	t.Helper()
	var res response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return res
}

func TestCreateAndQuery(t *testing.T) {
	h := newTestHandler(t).Routes()

	w := post(t, h, `{"query":"mutation { CreateUser(name: \"kwen\", email: \"email@email.com\", password: \"123456\") { id name } }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{"id": float64(1), "name": "kwen"}, res.Data["CreateUser"])

	w = post(t, h, `{"query":"mutation($uid: ID) { CreateJob(userId: $uid, name: \"PHP开发工程师\", description: \"PHP\") { id userId } }","variables":{"uid":1}}`)
	res = decode(t, w)
	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{"id": float64(1), "userId": "1"}, res.Data["CreateJob"])

	w = post(t, h, `{"query":"query($n: Int) { users(limit: $n) { email jobs { name } } }","variables":{"n":5}}`)
	res = decode(t, w)
	require.Empty(t, res.Errors)
	assert.Equal(t, []any{map[string]any{
		"email": "email@email.com",
		"jobs":  []any{map[string]any{"name": "PHP开发工程师"}},
	}}, res.Data["users"])
}

func TestValidationCodes(t *testing.T) {
	h := newTestHandler(t)

	cases := []struct {
		name  string
		query string
		code  string
	}{
		{"missing argument", `mutation { CreateUser(name: "kwen") { id } }`, CodeMissingArgument},
		{"literal type mismatch", `{ users(limit: "ten") { id } }`, CodeTypeMismatch},
		{"unknown field", `{ users { password } }`, CodeValidationFailed},
		{"syntax", `{ users { id }`, CodeParseFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := json.Marshal(map[string]string{"query": tc.query})
			require.NoError(t, err)
			res := decode(t, post(t, h, string(body)))
			require.NotEmpty(t, res.Errors)
			assert.Nil(t, res.Data)
			for _, e := range res.Errors {
				assert.Equal(t, tc.code, e.Extensions["code"], e.Message)
			}
		})
	}
}

func TestExecutionErrorCodes(t *testing.T) {
	h := newTestHandler(t)

	res := decode(t, post(t, h, `{"query":"mutation { UpdateUser(id: 9, name: \"n\", email: \"e\") { id } }"}`))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "NOT_FOUND", res.Errors[0].Extensions["code"])
	assert.Equal(t, []any{"UpdateUser"}, res.Errors[0].Path)

	res = decode(t, post(t, h, `{"query":"query($id: Int) { users(id: $id) { id } }","variables":{"id":"x"}}`))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "TYPE_MISMATCH", res.Errors[0].Extensions["code"])
}

func TestTypeMismatchHidesArgumentValue(t *testing.T) {
	h := newTestHandler(t)

	w := post(t, h, `{"query":"mutation($p: String!) { CreateUser(name: \"a\", email: \"b\", password: $p) { id } }","variables":{"p":987654}}`)
	res := decode(t, w)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "TYPE_MISMATCH", res.Errors[0].Extensions["code"])
	assert.Contains(t, res.Errors[0].Message, "password")
	assert.NotContains(t, w.Body.String(), "987654")
}

func TestBatch(t *testing.T) {
	h := newTestHandler(t)

	w := post(t, h, `[{"query":"{ users { id } }"},{"query":"{ jobs { id } }"}]`)
	require.Equal(t, http.StatusOK, w.Code)
	var out []response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, []any{}, out[0].Data["users"])
	assert.Equal(t, []any{}, out[1].Data["jobs"])

	w = post(t, h, `[]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGet(t *testing.T) {
	h := newTestHandler(t)

	q := url.Values{"query": {"{ users { id } }"}}
	req := httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w).Errors)

	q = url.Values{"query": {`mutation { CreateUser(name: "a", email: "b", password: "c") { id } }`}}
	req = httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	res := decode(t, w)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeBadRequest, res.Errors[0].Extensions["code"])
}

func TestSchemaAndHealth(t *testing.T) {
	h := newTestHandler(t)
	routes := h.Routes()

	w := httptest.NewRecorder()
	routes.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schema.graphql", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, schema.Render(h.exec.Schema()), w.Body.String())

	w = httptest.NewRecorder()
	routes.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	sick := newTestHandler(t, WithHealthCheck(func(context.Context) error { return errors.New("db down") })).Routes()
	w = httptest.NewRecorder()
	sick.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "db down")
}

func TestCORSAndPreflight(t *testing.T) {
	h := newTestHandler(t, WithCORS("*"))

	// simple request
	req := httptest.NewRequest("POST", "/graphql", bytes.NewBufferString(`{"query":"{ users { id } }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	// preflight
	pre := httptest.NewRequest("OPTIONS", "/graphql", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	assert.Equal(t, http.StatusNoContent, pw.Code)
	assert.Equal(t, "*", pw.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Test", pw.Header().Get("Access-Control-Allow-Headers"))
}

func TestMaxBodyBytes(t *testing.T) {
	h := newTestHandler(t, WithMaxBodyBytes(10))
	w := post(t, h, `{"query":"1234567890"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	h := newTestHandler(t)
	bus := eventbus.New()
	eventbus.Use(bus)
	t.Cleanup(func() { eventbus.Use(nil) })

	var seen []string
	var statuses, ops []int
	eventbus.On(bus, func(ctx context.Context, _ events.GraphQLStart) {
		id, _ := reqid.FromContext(ctx)
		seen = append(seen, id)
	})
	eventbus.On(bus, func(_ context.Context, e events.HTTPFinish) {
		statuses = append(statuses, e.Status)
		ops = append(ops, e.Operations)
	})

	w := post(t, h, `{"query":"{ users { id } }"}`)
	generated := w.Header().Get(reqid.Header)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)

	forwarded := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`{"query":"{ users { id } }"}`))
	req.Header.Set(reqid.Header, forwarded)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, forwarded, w.Header().Get(reqid.Header))

	assert.Equal(t, []string{generated, forwarded}, seen)
	assert.Equal(t, []int{http.StatusOK, http.StatusOK}, statuses)

	post(t, h, `[{"query":"{ users { id } }"},{"query":"{ jobs { id } }"}]`)
	post(t, h, `{"query":`)
	assert.Equal(t, []int{1, 1, 2, 0}, ops)
	assert.Equal(t, http.StatusBadRequest, statuses[3])
}

func TestIntrospection(t *testing.T) {
	h := newTestHandler(t).Routes()

	w := post(t, h, `{"query":"{ __schema { queryType { name } mutationType { name } } __type(name: \"User\") { kind fields { name } } }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{
		"queryType":    map[string]any{"name": "Query"},
		"mutationType": map[string]any{"name": "Mutation"},
	}, res.Data["__schema"])

	var names []any
	for _, f := range res.Data["__type"].(map[string]any)["fields"].([]any) {
		names = append(names, f.(map[string]any)["name"])
	}
	assert.Equal(t, []any{"id", "name", "email", "created_at", "updated_at", "jobs"}, names)
}

func TestIntrospectionArgsOfArgumentlessFields(t *testing.T) {
	h := newTestHandler(t).Routes()

	w := post(t, h, `{"query":"{ __type(name: \"User\") { fields { name args { name } } } }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	require.Empty(t, res.Errors)
	fields := res.Data["__type"].(map[string]any)["fields"].([]any)
	require.NotEmpty(t, fields)
	for _, f := range fields {
		assert.Equal(t, []any{}, f.(map[string]any)["args"], "%v", f)
	}
}

func TestIntrospectionDisabled(t *testing.T) {
	reg, err := registry.New(storetest.New(t))
	require.NoError(t, err)
	exec, err := gqlrt.NewExecutor(reg, gqlrt.WithIntrospection(false))
	require.NoError(t, err)
	h, err := New(exec)
	require.NoError(t, err)

	res := decode(t, post(t, h, `{"query":"{ __schema { queryType { name } } }"}`))
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "__schema")
}
