package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glowcheck/internal/model"
	"glowcheck/internal/service"
)

func TestParseListenAddr(t *testing.T) {
	cases := []struct {
		in   string
		host string
		port int
	}{
		{in: "", host: "", port: 0},
		{in: ":9090", host: "", port: 9090},
		{in: "0.0.0.0:8081", host: "0.0.0.0", port: 8081},
		{in: "7000", host: "", port: 7000},
		{in: "localhost", host: "localhost", port: 0},
		{in: ":99999", host: "", port: 0},
	}
	for _, tc := range cases {
		host, port := parseListenAddr(tc.in)
		if host != tc.host || port != tc.port {
			t.Fatalf("parseListenAddr(%q) = (%q, %d), want (%q, %d)", tc.in, host, port, tc.host, tc.port)
		}
	}
}

func TestSafeKeyMetaHidesKey(t *testing.T) {
	if got := safeKeyMeta("  "); got != "empty=true" {
		t.Fatalf("unexpected meta for empty key: %q", got)
	}
	got := safeKeyMeta("Bearer secret-value")
	if strings.Contains(got, "secret") {
		t.Fatalf("meta leaks key: %q", got)
	}
	if !strings.Contains(got, "has_bearer_prefix=true") {
		t.Fatalf("expected bearer prefix flag, got %q", got)
	}
}

// setupEnv points the CLI at a temp JSON store and at a fake remote that
// always fails, so analyses fall back without leaving the machine.
func setupEnv(t *testing.T) string {
	t.Helper()
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(remote.Close)

	dir := t.TempDir()
	t.Setenv("GLOWCHECK_CONFIG", "")
	t.Setenv("GLOWCHECK_STORE", "json")
	t.Setenv("GLOWCHECK_DATA_FILE", filepath.Join(dir, "glow.json"))
	t.Setenv("GLOWCHECK_VISION_API_URL", remote.URL+"/v1/images:annotate")
	t.Setenv("GLOWCHECK_LLM_API_URL", remote.URL+"/text/llm/")
	t.Setenv("GLOWCHECK_LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("glowcheck %s error = %v", strings.Join(args, " "), err)
	}
	return out.Bytes()
}

func TestAnalyzeThenShowState(t *testing.T) {
	dir := setupEnv(t)
	imagePath := filepath.Join(dir, "outfit.png")
	if err := os.WriteFile(imagePath, []byte("\x89PNG\r\n\x1a\noutfit"), 0o644); err != nil {
		t.Fatalf("write image error = %v", err)
	}

	var resp service.OutfitResponse
	if err := json.Unmarshal(run(t, "analyze", "outfit", "--image", imagePath, "--event", "Wedding"), &resp); err != nil {
		t.Fatalf("decode analyze output error = %v", err)
	}
	if !resp.Fallback || resp.Analysis.Event != "Wedding" {
		t.Fatalf("unexpected analyze output: %+v", resp)
	}

	var snap model.AppState
	if err := json.Unmarshal(run(t, "state", "show"), &snap); err != nil {
		t.Fatalf("decode state output error = %v", err)
	}
	if len(snap.OutfitAnalyses) != 1 || snap.AnalysisCount != 1 || snap.Streak != 1 {
		t.Fatalf("analysis was not persisted: %+v", snap)
	}
}
