package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/difficulty-export/internal/config"
	"github.com/SAP-F-2025/difficulty-export/internal/repositories"
	"github.com/SAP-F-2025/difficulty-export/internal/store"
	"github.com/SAP-F-2025/difficulty-export/internal/utils"
)

// useMemoryStore points the CLI at an in-process store for the test.
func useMemoryStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	chdir(t, t.TempDir())
	for _, key := range []string{"REDIS_URL", "EXPORT_DIR", "DATABASE_URL", "MERGE_POLICY_FILE", "ENVIRONMENT", "EVENTS_ENABLED", "KEY_NAMESPACE"} {
		t.Setenv(key, "")
	}

	mem := store.NewMemoryStore()
	original := openStore
	openStore = func(ctx context.Context, cfg *config.Config) (store.Store, func() error, error) {
		return mem, func() error { return nil }, nil
	}
	t.Cleanup(func() { openStore = original })
	return mem
}

func seed(t *testing.T, mem *store.MemoryStore, pid, dataset, uid, payload string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, "v1:"+pid+":"+dataset+":"+uid, []byte(payload)))
	require.NoError(t, mem.AddMembers(ctx, "v1:usernames", pid))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Export(t *testing.T) {
	mem := useMemoryStore(t)
	seed(t, mem, "p1", "ds", "q1", `{"difficulty": 8}`)
	seed(t, mem, "p2", "ds", "q1", `{"difficulty": 3}`)
	dir := filepath.Join(t.TempDir(), "exports")

	out, err := execute(t, "--export-dir", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Updated ds export at "+filepath.Join(dir, "ds.jsonl"))
	assert.Contains(t, out, "graded/updated: 1 dataset (2 records scanned, 0 skipped)")

	data, err := os.ReadFile(filepath.Join(dir, "ds.jsonl"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 2)
}

func TestRootCmd_ReadOnlyEmitStdout(t *testing.T) {
	mem := useMemoryStore(t)
	seed(t, mem, "p1", "ds", "q1", `{"difficulty": "00:20", "timestamp": 1600000000000}`)
	dir := filepath.Join(t.TempDir(), "exports")

	out, err := execute(t, "--export-dir", dir, "--read-only", "--emit-stdout")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"difficultyScale":"time"`)
	assert.Equal(t, "Difficulty scale switches: 0-10 → 0-5 switch not observed; 0-5 → time switch not observed", lines[1])
	assert.Contains(t, lines[2], "time at 2020-09-13T12:26:40Z")

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	useMemoryStore(t)

	_, err := execute(t, "--redis-url", "http://localhost:6379")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis_url")
}

func TestRootCmd_PolicyFile(t *testing.T) {
	mem := useMemoryStore(t)
	seed(t, mem, "p1", "ds", "q1", `{"difficulty": 8, "notes": "scraped"}`)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ds.jsonl"), []byte(`{"notes":"manual","prolificID":"p1","uid":"q1"}`+"\n"), 0o644))

	policy := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(policy, []byte("prefer_existing: [notes]\n"), 0o644))

	_, err := execute(t, "--export-dir", dir, "--policy", policy)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "ds.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"notes":"manual"`)
}

func TestRouter(t *testing.T) {
	mem := useMemoryStore(t)
	seed(t, mem, "p1", "ds", "q1", `{"difficulty": 4}`)
	gin.SetMode(gin.TestMode)

	cfg, err := loadConfig(&rootOptions{exportDir: t.TempDir()})
	require.NoError(t, err)
	a, err := newApp(context.Background(), cfg, utils.NewDiscardLogger())
	require.NoError(t, err)
	defer a.Close()

	router := newRouter(a)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scales", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ds":"0-5"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/exports", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "graded/updated: 1 dataset")
}

func TestNewApp_ClosesRunRepository(t *testing.T) {
	useMemoryStore(t)

	closed := 0
	original := openRuns
	openRuns = func(ctx context.Context, cfg *config.Config) (repositories.RunRepository, func() error, error) {
		return repositories.NopRunRepository{}, func() error { closed++; return nil }, nil
	}
	t.Cleanup(func() { openRuns = original })

	cfg, err := loadConfig(&rootOptions{exportDir: t.TempDir()})
	require.NoError(t, err)
	a, err := newApp(context.Background(), cfg, utils.NewDiscardLogger())
	require.NoError(t, err)

	require.NoError(t, a.Close())
	assert.Equal(t, 1, closed)
}
