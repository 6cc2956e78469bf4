package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI against a SQLite file in dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("JOBGRAPH_DATABASE_DRIVER", "sqlite")
	t.Setenv("JOBGRAPH_DATABASE_DSN", filepath.Join(dir, "jobgraph.db"))
	t.Setenv("JOBGRAPH_LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestMigrateSeedAndCall(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated sqlite")

	out, err = run(t, dir, "seed")
	require.NoError(t, err)
	assert.Equal(t, "seeded 2 users, 2 jobs\n", out)

	out, err = run(t, dir, "seed")
	require.NoError(t, err)
	assert.Equal(t, "seeded 0 users, 0 jobs\n", out)

	out, err = run(t, dir, "call", "users", "--arg", "email=email@email.com")
	require.NoError(t, err)
	var users []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "kwen", users[0]["name"])
	assert.NotContains(t, out, "123456")

	out, err = run(t, dir, "call", "jobs")
	require.NoError(t, err)
	var jobs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &jobs))
	require.Len(t, jobs, 2)
	for _, job := range jobs {
		assert.IsType(t, "", job["userId"], "userId should match its GraphQL form")
	}

	out, err = run(t, dir, "call", "UpdateUser", "--arg", "id=1", "--arg", "name=kwen!", "--arg", "email=new@email.com")
	require.NoError(t, err)
	var user map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "kwen!", user["name"])
	assert.Equal(t, float64(1), user["id"])
}

func TestCallErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "call", "DeleteUser")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DeleteUser")

	_, err = run(t, dir, "call", "CreateUser", "--arg", "name=kwen")
	require.Error(t, err)

	_, err = run(t, dir, "call", "CreateJob", "--arg", "userId=99", "--arg", "name=x", "--arg", "description=y")
	require.Error(t, err)

	_, err = run(t, dir, "call", "users", "--arg", "limit")
	require.ErrorContains(t, err, "name=value")
}

func TestSchemaCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "schema")
	require.NoError(t, err)
	for _, want := range []string{"type Query", "type Mutation", "type User", "type Job", "CreateUser("} {
		assert.Contains(t, out, want)
	}

	path := filepath.Join(dir, "schema.graphql")
	_, err = run(t, dir, "schema", "--out", path)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "--log-format", "xml", "schema")
	require.ErrorContains(t, err, "log format")

	_, err = run(t, dir, "--db-driver", "mysql", "migrate")
	require.ErrorContains(t, err, "mysql")
}

func TestHandlerServesGraphQL(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "seed")
	require.NoError(t, err)

	// Reuse the loading path of the CLI to build the server routes.
	t.Setenv("JOBGRAPH_HTTP_PRETTY", "true")
	a := &app{}
	cmd := newRootCmd()
	require.NoError(t, a.load(cmd))
	b, err := a.open(context.Background(), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	routes, err := a.handler(b)
	require.NoError(t, err)

	srv := httptest.NewServer(routes)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/graphql", "application/json",
		strings.NewReader(`{"query":"{ users { name jobs { name } } }"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Users []struct {
				Name string
				Jobs []struct{ Name string }
			}
		}
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data.Users, 2)
	assert.Equal(t, "PHP开发工程师", body.Data.Users[1].Jobs[0].Name)

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
