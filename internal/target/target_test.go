package target

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/studiowebux/loadcli/internal/types"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		raw       string
		wantName  string
		wantValue string
		wantOK    bool
	}{
		{"Content-Type: application/json", "Content-Type", "application/json", true},
		{"X-Token:abc", "X-Token", "abc", true},
		{"  Accept :  text/html  ", "Accept", "text/html", true},
		{"Authorization: Bearer a:b:c", "Authorization", "Bearer a:b:c", true},
		{"X-Empty:", "X-Empty", "", true},
		{"no-colon-here", "", "", false},
		{": value-without-name", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		name, value, ok := ParseHeader(tt.raw)
		if ok != tt.wantOK {
			t.Errorf("ParseHeader(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			continue
		}
		if name != tt.wantName || value != tt.wantValue {
			t.Errorf("ParseHeader(%q) = %q/%q, want %q/%q", tt.raw, name, value, tt.wantName, tt.wantValue)
		}
	}
}

func TestParseHeaders_SkipsMalformed(t *testing.T) {
	headers := ParseHeaders([]string{
		"Content-Type: application/json",
		"broken",
		"X-One: 1",
	})
	if len(headers) != 2 {
		t.Fatalf("Expected 2 headers, got: %d", len(headers))
	}
	if headers["Content-Type"] != "application/json" || headers["X-One"] != "1" {
		t.Errorf("Unexpected headers: %v", headers)
	}
}

func TestLoadURLsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := `# staging endpoints
https://example.com/a

https://example.com/b
   # indented comment
https://example.com/c
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write urls file: %v", err)
	}

	urls, err := LoadURLsFile(path)
	if err != nil {
		t.Fatalf("LoadURLsFile failed: %v", err)
	}
	want := []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}
	if len(urls) != len(want) {
		t.Fatalf("Expected %d urls, got: %d (%v)", len(want), len(urls), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestLoadURLsFile_Missing(t *testing.T) {
	if _, err := LoadURLsFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestNewList_Validation(t *testing.T) {
	if _, err := NewList(nil); err == nil {
		t.Error("Expected an error for an empty list")
	}
	if _, err := NewList([]types.Target{{URL: "not a url"}}); err == nil {
		t.Error("Expected an error for an unparseable URL")
	}

	list, err := NewList([]types.Target{{URL: "https://example.com"}})
	if err != nil {
		t.Fatalf("NewList failed: %v", err)
	}
	if got := list.Targets()[0].Method; got != types.DefaultMethod {
		t.Errorf("Expected default method %q, got: %q", types.DefaultMethod, got)
	}
}

func TestList_NextWrapsAround(t *testing.T) {
	list, err := NewList([]types.Target{
		{Method: "GET", URL: "https://example.com/a"},
		{Method: "GET", URL: "https://example.com/b"},
		{Method: "GET", URL: "https://example.com/c"},
	})
	if err != nil {
		t.Fatalf("NewList failed: %v", err)
	}

	want := []string{
		"https://example.com/a", "https://example.com/b", "https://example.com/c",
		"https://example.com/a", "https://example.com/b",
	}
	for i, w := range want {
		if got := list.Next().URL; got != w {
			t.Errorf("Next() #%d = %q, want %q", i, got, w)
		}
	}
}

func TestList_ConcurrentNextDistributesEvenly(t *testing.T) {
	list, err := NewList([]types.Target{
		{Method: "GET", URL: "https://example.com/a"},
		{Method: "GET", URL: "https://example.com/b"},
	})
	if err != nil {
		t.Fatalf("NewList failed: %v", err)
	}

	const total = 400
	counts := make(map[string]int)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u := list.Next().URL
			mu.Lock()
			counts[u]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	// The atomic cursor hands out each slot exactly once, so the split is
	// exact regardless of goroutine interleaving.
	if counts["https://example.com/a"] != total/2 || counts["https://example.com/b"] != total/2 {
		t.Errorf("Expected an exact 50/50 split, got: %v", counts)
	}
}

func TestLoadPlan(t *testing.T) {
	dir := t.TempDir()

	bodyPath := filepath.Join(dir, "payload.json")
	if err := os.WriteFile(bodyPath, []byte(`{"k":"v"}`), 0644); err != nil {
		t.Fatalf("Failed to write body file: %v", err)
	}

	planPath := filepath.Join(dir, "plan.yaml")
	plan := `targets:
  - url: https://example.com/read
  - method: post
    url: https://example.com/write
    headers:
      X-Plan: "yes"
    body_file: payload.json
`
	if err := os.WriteFile(planPath, []byte(plan), 0644); err != nil {
		t.Fatalf("Failed to write plan file: %v", err)
	}

	targets, err := LoadPlan(planPath, "GET", map[string]string{"X-Default": "1", "X-Plan": "no"})
	if err != nil {
		t.Fatalf("LoadPlan failed: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("Expected 2 targets, got: %d", len(targets))
	}

	first := targets[0]
	if first.Method != "GET" || first.URL != "https://example.com/read" {
		t.Errorf("First entry should inherit the default method: %+v", first)
	}
	if first.Headers["X-Default"] != "1" {
		t.Errorf("Expected default headers on plan entries, got: %v", first.Headers)
	}

	second := targets[1]
	if second.Method != "POST" {
		t.Errorf("Expected uppercased method POST, got: %q", second.Method)
	}
	if second.Headers["X-Plan"] != "yes" {
		t.Errorf("Entry headers should win over defaults, got: %v", second.Headers)
	}
	if second.Headers["X-Default"] != "1" {
		t.Errorf("Defaults not named by the entry should survive, got: %v", second.Headers)
	}
	if string(second.Body) != `{"k":"v"}` {
		t.Errorf("Expected body file relative to the plan dir, got: %q", string(second.Body))
	}
}

func TestLoadPlan_BadYAML(t *testing.T) {
	planPath := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(planPath, []byte("targets: [notamap"), 0644); err != nil {
		t.Fatalf("Failed to write plan file: %v", err)
	}
	if _, err := LoadPlan(planPath, "GET", nil); err == nil {
		t.Error("Expected a parse error for malformed YAML")
	}
}

func TestBuild_CombinesSources(t *testing.T) {
	dir := t.TempDir()

	urlsPath := filepath.Join(dir, "urls.txt")
	if err := os.WriteFile(urlsPath, []byte("https://example.com/from-file\n"), 0644); err != nil {
		t.Fatalf("Failed to write urls file: %v", err)
	}
	planPath := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(planPath, []byte("targets:\n  - url: https://example.com/from-plan\n"), 0644); err != nil {
		t.Fatalf("Failed to write plan file: %v", err)
	}

	list, err := Build(BuildOptions{
		URLs:     []string{"https://example.com/from-flag"},
		URLsFile: urlsPath,
		PlanFile: planPath,
		Method:   "head",
		Headers:  []string{"X-Build: ok"},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	targets := list.Targets()
	if len(targets) != 3 {
		t.Fatalf("Expected 3 targets, got: %d", len(targets))
	}
	// Order is plan, then --url flags, then the urls file.
	wantOrder := []string{
		"https://example.com/from-plan",
		"https://example.com/from-flag",
		"https://example.com/from-file",
	}
	for i, w := range wantOrder {
		if targets[i].URL != w {
			t.Errorf("targets[%d].URL = %q, want %q", i, targets[i].URL, w)
		}
	}
	for _, tt := range targets {
		if tt.Method != "HEAD" {
			t.Errorf("Expected uppercased HEAD everywhere, got: %q for %s", tt.Method, tt.URL)
		}
		if tt.Headers["X-Build"] != "ok" {
			t.Errorf("Expected flag headers on %s, got: %v", tt.URL, tt.Headers)
		}
	}
}

func TestBuild_NoSources(t *testing.T) {
	if _, err := Build(BuildOptions{}); err == nil {
		t.Error("Expected an error when no target source is given")
	}
}
