package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/lambda/internal/server"
)

const (
	basicsScript = "../../testdata/scripts/basics.risor"
	todosScript  = "../../testdata/scripts/todos.risor"
)

// cleanEnv clears the LAMBDA_ variables so tests see the built-in defaults.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LAMBDA_BACKEND", "LAMBDA_DGRAPH_URL", "LAMBDA_DB", "LAMBDA_ADDR",
		"LAMBDA_LOG_LEVEL", "LAMBDA_LOG_FORMAT", "LAMBDA_OTLP_ENDPOINT", "LAMBDA_HTTP_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{}
	err := a.execute(context.Background(), args, &out, io.Discard)
	return out.String(), err
}

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"))
}

func TestCLI_Golden(t *testing.T) {
	cleanEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"resolve_fortytwo", []string{"resolve", "--script", basicsScript, "--event", "../../testdata/events/fortytwo.yaml"}},
		{"resolve_fullname_text", []string{"resolve", "--format", "text", "--script", basicsScript, "--event", "../../testdata/events/fullname.json"}},
		{"resolve_toomany", []string{"resolve", "--script", basicsScript, "--event", "../../testdata/events/toomany.yaml"}},
		{"resolvers", []string{"resolvers", "--script", basicsScript}},
		{"resolvers_text", []string{"resolvers", "--script", basicsScript, "--format", "text"}},
	}
	g := newGoldie(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(out))
		})
	}
}

func TestCLI_ErrorEnvelope(t *testing.T) {
	cleanEnv(t)
	out, err := run(t, "resolve", "--script", "../../testdata/scripts/missing.risor", "--event", "../../testdata/events/fortytwo.yaml")
	require.Error(t, err)
	newGoldie(t).Assert(t, "resolve_missing_script", []byte(out))
}

func TestCLI_TextErrorGoesToStderr(t *testing.T) {
	cleanEnv(t)
	var out, errOut bytes.Buffer
	a := &app{}
	err := a.execute(context.Background(),
		[]string{"resolve", "--format", "text", "--script", basicsScript, "--event", "nope.yaml"},
		&out, &errOut)
	require.Error(t, err)
	assert.True(t, a.errorHandled)
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Error: reading nope.yaml")
}

func TestCLI_ImportThenResolve(t *testing.T) {
	cleanEnv(t)
	db := filepath.Join(t.TempDir(), "nodes.db")

	out, err := run(t, "import", "--db", db, "../../testdata/nodes/todos.yaml")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "import", []byte(out))

	out, err = run(t, "resolve", "--backend", "sqlite", "--db", db,
		"--script", todosScript, "--event", "../../testdata/events/summary.yaml")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "resolve_summary", []byte(out))
}

func TestCLI_BackendFromEnv(t *testing.T) {
	cleanEnv(t)
	db := filepath.Join(t.TempDir(), "nodes.db")
	t.Setenv("LAMBDA_DB", db)

	_, err := run(t, "import", "../../testdata/nodes/todos.yaml")
	require.NoError(t, err)

	t.Setenv("LAMBDA_BACKEND", "sqlite")
	out, err := run(t, "resolve", "--format", "text", "--script", todosScript, "--event", "../../testdata/events/summary.yaml")
	require.NoError(t, err)
	assert.Equal(t,
		`{"name":"alice","todos":["Kick Ass","Take Names"]}`+"\n"+
			`{"name":"bob","todos":["Chew Bubblegum"]}`+"\n", out)
}

func TestCLI_DgraphBackend(t *testing.T) {
	cleanEnv(t)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /graphql", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"queryUser":[{"name":"alice"}]}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	script := filepath.Join(dir, "users.risor")
	require.NoError(t, os.WriteFile(script, []byte(`
addGraphQLResolvers({
	"Query.firstUser": func(ctx) {
		gql := ctx["graphql"]
		return ctx["parents"].map(func(p) { return gql("{ queryUser { name } }")["data"]["queryUser"][0]["name"] })
	}
})
`), 0o644))
	event := filepath.Join(dir, "event.yaml")
	require.NoError(t, os.WriteFile(event, []byte("type: Query.firstUser\nparents: [null]\n"), 0o644))

	out, err := run(t, "resolve", "--format", "text", "--backend", "dgraph", "--dgraph-url", srv.URL,
		"--script", script, "--event", event)
	require.NoError(t, err)
	assert.Equal(t, "alice\n", out)
}

func TestCLI_InvalidFlags(t *testing.T) {
	cleanEnv(t)
	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{"format", []string{"resolvers", "--format", "xml", "--script", basicsScript}, `invalid format "xml"`},
		{"backend", []string{"resolvers", "--backend", "postgres", "--script", basicsScript}, "unknown backend"},
		{"missing script", []string{"resolvers"}, "--script is required"},
		{"missing event flag", []string{"resolve", "--script", basicsScript}, `required flag(s) "event" not set`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestReadNodes_RequiresType(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nodes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- data: {a: 1}\n"), 0o644))
	_, err := readNodes(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 0 has no type")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		done <- serve(ctx, ln, server.New(stubResolver{}, server.WithLogger(logger)), logger)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
