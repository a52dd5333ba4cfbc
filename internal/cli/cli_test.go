package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/statekit/internal/fixture"
	"github.com/mesh-intelligence/statekit/pkg/types"
)

// testEnv isolates one CLI run sequence in temporary directories.
type testEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
	backend   string
}

type result struct {
	code   int
	stdout string
	stderr string
}

func newTestEnv(t *testing.T, backend string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		t:         t,
		configDir: filepath.Join(dir, "config"),
		dataDir:   filepath.Join(dir, "data"),
		backend:   backend,
	}
}

func (e *testEnv) run(args ...string) result {
	e.t.Helper()
	full := []string{"--config-dir", e.configDir, "--data-dir", e.dataDir}
	if e.backend != "" {
		full = append(full, "--backend", e.backend)
	}
	full = append(full, args...)

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := run(context.Background(), root, full, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (e *testEnv) mustRun(args ...string) result {
	e.t.Helper()
	r := e.run(args...)
	require.Equal(e.t, exitSuccess, r.code, "statekit %v\nstderr: %s", args, r.stderr)
	return r
}

// list runs "view --json" with extra args and decodes the output.
func (e *testEnv) list(args ...string) listOutput {
	e.t.Helper()
	r := e.mustRun(append([]string{"--json", "view"}, args...)...)
	var out listOutput
	require.NoError(e.t, json.Unmarshal([]byte(r.stdout), &out), r.stdout)
	return out
}

func titles(items []types.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestInitWritesConfigAndStorage(t *testing.T) {
	env := newTestEnv(t, "")

	r := env.mustRun("--json", "init")

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, types.BackendSQLite, out["backend"])
	assert.Equal(t, env.dataDir, out["data_dir"])

	data, err := os.ReadFile(filepath.Join(env.configDir, configFileExt))
	require.NoError(t, err)
	var cfg configFile
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, types.BackendSQLite, cfg.Backend)
	assert.Equal(t, types.DefaultMaxHistory, cfg.MaxHistory)
	assert.Equal(t, env.dataDir, cfg.DataDir)

	assert.DirExists(t, env.dataDir)

	// A second init leaves the file alone.
	env.mustRun("init")
	again, err := os.ReadFile(filepath.Join(env.configDir, configFileExt))
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestItemsSurviveAcrossRuns(t *testing.T) {
	for _, backend := range []string{types.BackendSQLite, types.BackendFile, types.BackendBolt} {
		t.Run(backend, func(t *testing.T) {
			env := newTestEnv(t, backend)

			env.mustRun("add", "Buy", "milk", "--category", "errands")
			env.mustRun("add", "Write report", "-c", "work")

			out := env.list()
			assert.Equal(t, []string{"Buy milk", "Write report"}, titles(out.Items))
			assert.Equal(t, int64(1), out.Items[0].ID)
			assert.Equal(t, int64(2), out.Items[1].ID)
			assert.Equal(t, []string{"errands", "work"}, out.Categories)
		})
	}
}

func TestToggleAndFilter(t *testing.T) {
	env := newTestEnv(t, types.BackendFile)
	env.mustRun("add", "A")
	env.mustRun("add", "B")
	env.mustRun("add", "C")

	env.mustRun("toggle", "1", "3")

	out := env.list("--filter", types.FilterCompleted)
	assert.Equal(t, []string{"A", "C"}, titles(out.Items))
	assert.Equal(t, "/?filter=completed", out.Location)
	assert.Equal(t, 1, out.Active)
	assert.Equal(t, 2, out.Completed)

	// The filter is remembered.
	out = env.list()
	assert.Equal(t, types.FilterCompleted, out.Filter)
	assert.Len(t, out.Items, 2)
}

func TestViewNavigatesToLocation(t *testing.T) {
	env := newTestEnv(t, types.BackendFile)
	env.mustRun("add", "Fix door", "-c", "home")
	env.mustRun("add", "Ship release", "-c", "work")

	out := env.list("/todos?category=work")

	assert.Equal(t, types.RouteTodos, out.Route)
	assert.Equal(t, "work", out.Category)
	assert.Equal(t, []string{"Ship release"}, titles(out.Items))

	out = env.list("--category", "all", "--search", "DOOR")
	assert.Equal(t, []string{"Fix door"}, titles(out.Items))
}

func TestEditRenamesItem(t *testing.T) {
	env := newTestEnv(t, types.BackendFile)
	env.mustRun("add", "Draft")

	r := env.mustRun("edit", "1", "Final", "copy")
	assert.Contains(t, r.stdout, "Item renamed.")

	assert.Equal(t, []string{"Final copy"}, titles(env.list().Items))
}

func TestUserErrors(t *testing.T) {
	env := newTestEnv(t, types.BackendFile)
	env.mustRun("add", "Only")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown item", []string{"toggle", "9"}},
		{"bad id", []string{"toggle", "abc"}},
		{"blank title", []string{"add", "  "}},
		{"remove without yes", []string{"remove", "1"}},
		{"remove id and selected", []string{"remove", "1", "--selected", "--yes"}},
		{"clear without yes", []string{"clear-completed"}},
		{"nothing completed", []string{"clear-completed", "--yes"}},
		{"unknown backend", []string{"--backend", "tape", "view"}},
		{"state clear without yes", []string{"state", "clear"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := env.run(tt.args...)
			assert.Equal(t, exitUserError, r.code, r.stderr)
			assert.Contains(t, r.stderr, "statekit:")
		})
	}

	assert.Equal(t, []string{"Only"}, titles(env.list().Items))
}

func TestRemoveAndClearCompleted(t *testing.T) {
	env := newTestEnv(t, types.BackendFile)
	for _, title := range []string{"A", "B", "C", "D"} {
		env.mustRun("add", title)
	}

	env.mustRun("remove", "2", "--yes")
	assert.Equal(t, []string{"A", "C", "D"}, titles(env.list().Items))

	env.mustRun("toggle", "1", "4")
	r := env.mustRun("clear-completed", "-y")
	assert.Contains(t, r.stdout, "Removed 2 items.")
	assert.Equal(t, []string{"C"}, titles(env.list().Items))
}

func TestRemoveSelected(t *testing.T) {
	env := newTestEnv(t, types.BackendFile)
	for _, title := range []string{"A", "B", "C"} {
		env.mustRun("add", title)
	}

	env.mustRun("select", "1", "3")
	env.mustRun("remove", "--selected", "--yes")

	assert.Equal(t, []string{"B"}, titles(env.list().Items))
}

func TestStateShowAndClear(t *testing.T) {
	env := newTestEnv(t, types.BackendFile)
	env.mustRun("add", "Keep me")

	r := env.mustRun("state", "show")
	var out struct {
		Backend  string         `json:"backend"`
		Location string         `json:"location"`
		State    map[string]any `json:"state"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, types.BackendFile, out.Backend)
	assert.Equal(t, types.RouteHome, out.Location)
	assert.Len(t, out.State[types.FieldItems], 1)

	env.mustRun("state", "clear", "--yes")
	assert.Empty(t, env.list().Items)
}

func TestFetchFromFixture(t *testing.T) {
	srv := httptest.NewServer(fixture.Handler(nil, nil))
	defer srv.Close()
	env := newTestEnv(t, types.BackendFile)

	env.mustRun("fetch", srv.URL+"/todos?_limit=3")
	out := env.list()
	assert.Len(t, out.Items, 3)
	assert.Equal(t, fixture.DemoItems()[0].Title, out.Items[0].Title)

	r := env.run("fetch", srv.URL+"/todos?fail=500")
	assert.Equal(t, exitSysError, r.code)
	assert.Contains(t, r.stderr, "The server had a problem.")
	assert.Contains(t, r.stdout, "The server had a problem.")

	// A failed load keeps the list.
	assert.Len(t, env.list().Items, 3)
}

func TestEnvironmentOverridesConfig(t *testing.T) {
	env := newTestEnv(t, "")
	t.Setenv("STATEKIT_BACKEND", types.BackendFile)

	r := env.mustRun("--json", "init")

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, types.BackendFile, out["backend"])
}

func TestCommandsRunWithoutInit(t *testing.T) {
	env := newTestEnv(t, types.BackendFile)

	env.mustRun("add", "No init needed")

	assert.NoFileExists(t, filepath.Join(env.configDir, configFileExt))
	assert.Len(t, env.list().Items, 1)
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t, "")
	r := env.mustRun("version")
	assert.Contains(t, r.stdout, "statekit v")
	assert.Contains(t, r.stdout, modulePath)
}

func TestRunRequiresTerminal(t *testing.T) {
	env := newTestEnv(t, types.BackendMemory)
	orig := stdoutIsTerminal
	stdoutIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdoutIsTerminal = orig })

	r := env.run("run")

	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "needs a terminal")
}
