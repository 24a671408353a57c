package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/placement"
	"github.com/matzehuels/panegrid/pkg/render"
	"github.com/matzehuels/panegrid/pkg/store"
)

func restoreStdout() { stdout = os.Stdout }

type testEnv struct {
	cli        *CLI
	out        *bytes.Buffer
	logs       *bytes.Buffer
	configPath string
	layoutDir  string
}

// newTestEnv writes a config whose file store lives in a temp dir and
// captures command output.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	layoutDir := filepath.Join(dir, "layouts")
	configPath := filepath.Join(dir, "config.toml")
	data := fmt.Sprintf("[store]\nbackend = \"file\"\ndir = %q\n", layoutDir)
	require.NoError(t, os.WriteFile(configPath, []byte(data), 0o644))

	var out, logs bytes.Buffer
	stdout = &out
	t.Cleanup(restoreStdout)

	return &testEnv{
		cli:        New(&logs, log.DebugLevel),
		out:        &out,
		logs:       &logs,
		configPath: configPath,
		layoutDir:  layoutDir,
	}
}

func (e *testEnv) run(args ...string) error {
	e.out.Reset()
	root := e.cli.RootCommand()
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	require.NoError(t, e.run(args...), "panegrid %s", strings.Join(args, " "))
	return e.out.String()
}

func (e *testEnv) snapshotLen(t *testing.T, layout string) int {
	t.Helper()
	s, err := store.NewFileStore(e.layoutDir)
	require.NoError(t, err)
	snap, err := s.Load(context.Background(), layout)
	require.NoError(t, err)
	return len(snap)
}

func TestPlaceCommand(t *testing.T) {
	env := newTestEnv(t)

	var got placeOutput
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "place", "--occupied", "6,7,8", "--json")), &got))
	assert.Equal(t, placeOutput{Cell: 16, Row: 3, Col: 1}, got)

	out := env.mustRun(t, "place", "--explain")
	assert.Contains(t, out, "Cell 6")
	assert.Contains(t, out, "total")

	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "place", "--columns", "1", "--rows", "1", "--occupied", "0", "--json")), &got))
	assert.True(t, got.Fallback)
	assert.Contains(t, env.logs.String(), "fallback")

	err := env.run("place", "--size", "0")
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidSize), "got %v", err)

	err = env.run("place", "--occupied", "25")
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidArgument), "got %v", err)
}

func TestRankCommand(t *testing.T) {
	env := newTestEnv(t)

	var got []placement.Candidate
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "rank", "--occupied", "6,7,8", "--json", "--limit", "3")), &got))
	require.Len(t, got, 3)
	assert.Equal(t, 16, got[0].Cell)

	out := env.mustRun(t, "rank", "--occupied", "6,7,8")
	assert.Contains(t, out, "Proximity")

	out = env.mustRun(t, "rank", "--columns", "2", "--rows", "2", "--size", "3")
	assert.Contains(t, out, "No eligible cell")
}

func TestWindowCommands(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "window", "register", "a", "--cell", "7")
	assert.Contains(t, out, "Registered a in cell 7")

	out = env.mustRun(t, "window", "register", "b", "--auto")
	assert.Contains(t, out, "Registered b in cell 6")
	assert.Equal(t, 2, env.snapshotLen(t, defaultLayout))

	assert.Equal(t, "6,7\n", env.mustRun(t, "window", "occupied"))

	out = env.mustRun(t, "window", "list")
	assert.Contains(t, out, "a")
	assert.Contains(t, out, "400,200")

	out = env.mustRun(t, "window", "update", "a", "--x", "0", "--y", "0")
	assert.Contains(t, out, "now in cell 0")

	assert.Error(t, env.run("window", "update", "a", "--x", "5"))
	assert.Error(t, env.run("window", "update", "a"))
	assert.Error(t, env.run("window", "register", "c"))
	assert.Error(t, env.run("window", "register", "c", "--cell", "1", "--auto"))

	env.mustRun(t, "window", "remove", "a")
	err := env.run("window", "remove", "a")
	assert.True(t, perrors.Is(err, perrors.ErrCodeWindowNotFound), "got %v", err)
	assert.Equal(t, 1, env.snapshotLen(t, defaultLayout))
}

func TestWindowCommands_Layouts(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "--layout", "work", "window", "register", "a", "--auto")
	env.mustRun(t, "--layout", "home", "window", "register", "b", "--auto")
	env.mustRun(t, "--layout", "home", "window", "register", "c", "--auto")

	assert.Equal(t, 1, env.snapshotLen(t, "work"))
	assert.Equal(t, 2, env.snapshotLen(t, "home"))

	err := env.run("--layout", "../x", "window", "list")
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidLayout), "got %v", err)
}

func TestWindowResize(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "window", "register", "a", "--cell", "7")

	out := env.mustRun(t, "window", "resize", "--width", "500", "--height", "400")
	assert.Contains(t, out, "Remapped 1 windows")

	out = env.mustRun(t, "window", "list")
	assert.Contains(t, out, "200,100")

	assert.Error(t, env.run("window", "resize", "--width", "0", "--height", "400"))
}

func TestRenderCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "window", "register", "editor", "--cell", "0")

	out := env.mustRun(t, "render")
	assert.True(t, strings.HasPrefix(out, "[editor  ]"), out)

	out = env.mustRun(t, "render", "--scores")
	assert.Contains(t, out, "*")

	path := filepath.Join(t.TempDir(), "grid.dot")
	env.mustRun(t, "render", "-f", "dot", "-o", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "graph G {")

	assert.Error(t, env.run("render", "-f", "bmp"))
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output, layout string
		format         string
		want           string
	}{
		{"x.svg", "default", "svg", "x.svg"},
		{"", "default", "text", ""},
		{"", "default", "dot", ""},
		{"", "default", "svg", "default.svg"},
		{"", "my layout", "png", "my_layout.png"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			f, err := render.ParseFormat(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, outputPath(tt.output, tt.layout, f))
		})
	}
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, env.configPath+"\n", env.mustRun(t, "config", "path"))

	out := env.mustRun(t, "config", "show")
	assert.Contains(t, out, "[grid]")
	assert.Contains(t, out, env.layoutDir)

	out = env.mustRun(t, "config", "init")
	assert.Contains(t, out, "already exists")

	fresh := filepath.Join(t.TempDir(), "sub", "config.toml")
	env.configPath = fresh
	env.mustRun(t, "config", "init")
	_, err := os.Stat(fresh)
	assert.NoError(t, err)
}

func TestStoreOverride(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "--store", "memory", "window", "register", "a", "--auto")
	assert.Equal(t, 0, env.snapshotLen(t, defaultLayout))

	err := env.run("--store", "etcd", "window", "list")
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidConfig), "got %v", err)
}
