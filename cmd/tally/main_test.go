package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate runs the test from an empty directory and HOME so no .env is read.
func isolate(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() failed: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Chdir() failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("HOME", tmpDir)
	for _, key := range []string{"INPUT_PATH", "REPORTS_DIR", "HISTORY_DB_PATH", "LOG_LEVEL", "WATCH_DEBOUNCE"} {
		t.Setenv(key, "")
	}
	return tmpDir
}

func writeReport(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
}

func TestRun_Total(t *testing.T) {
	tmpDir := isolate(t)
	path := filepath.Join(tmpDir, "report.json")
	writeReport(t, path, `{"a": {"affiliate_net_commission": "12.50"}, "b": [{"affiliate_net_commission": 7}]}`)

	var stdout, stderr bytes.Buffer
	if err := run([]string{path}, &stdout, &stderr); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	if got := stdout.String(); got != "Total affiliate_net_commission: 19.5\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRun_TotalFormatting(t *testing.T) {
	tmpDir := isolate(t)

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"Whole", `{"affiliate_net_commission": 7}`, "7.0"},
		{"ZeroValue", `{"affiliate_net_commission": "0"}`, "0.0"},
		{"Large", `{"affiliate_net_commission": 1e16}`, "1e+16"},
		{"Small", `{"affiliate_net_commission": "0.00001"}`, "1e-05"},
		{"Overflow", `{"affiliate_net_commission": "1e400"}`, "inf"},
		{"NaN", `{"affiliate_net_commission": "nan"}`, "nan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+".json")
			writeReport(t, path, tt.doc)

			var stdout, stderr bytes.Buffer
			if err := run([]string{path}, &stdout, &stderr); err != nil {
				t.Fatalf("run() failed: %v", err)
			}
			if got, want := stdout.String(), "Total affiliate_net_commission: "+tt.want+"\n"; got != want {
				t.Errorf("stdout = %q, want %q", got, want)
			}
		})
	}
}

func TestRun_EmptyDocuments(t *testing.T) {
	tmpDir := isolate(t)

	for name, doc := range map[string]string{"object": `{}`, "sequence": `[]`} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tmpDir, name+".json")
			writeReport(t, path, doc)

			var stdout, stderr bytes.Buffer
			if err := run([]string{path}, &stdout, &stderr); err != nil {
				t.Fatalf("run() failed: %v", err)
			}
			if got := stdout.String(); got != "Total affiliate_net_commission: 0\n" {
				t.Errorf("stdout = %q", got)
			}
		})
	}
}

func TestRun_InputFromEnv(t *testing.T) {
	tmpDir := isolate(t)
	path := filepath.Join(tmpDir, "env.json")
	writeReport(t, path, `[{"affiliate_net_commission": "1.25"}]`)
	t.Setenv("INPUT_PATH", path)

	var stdout, stderr bytes.Buffer
	if err := run(nil, &stdout, &stderr); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	if got := stdout.String(); got != "Total affiliate_net_commission: 1.25\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRun_ReportCache(t *testing.T) {
	tmpDir := isolate(t)
	t.Setenv("REPORTS_DIR", filepath.Join(tmpDir, "reports"))
	path := filepath.Join(tmpDir, "reports", "1873018", "2025-04-14_2025-04-14.json")
	writeReport(t, path, `{"data": [{"affiliate_net_commission": 5000}]}`)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--user", "1873018", "--from", "2025-04-14"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	if got := stdout.String(); got != "Total affiliate_net_commission: 5000.0\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRun_NotFound(t *testing.T) {
	tmpDir := isolate(t)
	path := filepath.Join(tmpDir, "missing.json")

	var stdout, stderr bytes.Buffer
	err := run([]string{path}, &stdout, &stderr)

	if !errors.Is(err, errReported) {
		t.Fatalf("run() error = %v, want errReported", err)
	}
	if got := stdout.String(); got != "File not found: "+path+"\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRun_ParseError(t *testing.T) {
	tmpDir := isolate(t)
	path := filepath.Join(tmpDir, "broken.json")
	writeReport(t, path, `{"affiliate_net_commission": `)

	var stdout, stderr bytes.Buffer
	err := run([]string{path}, &stdout, &stderr)

	if !errors.Is(err, errReported) {
		t.Fatalf("run() error = %v, want errReported", err)
	}
	if got := stdout.String(); !strings.HasPrefix(got, "Error reading file: ") {
		t.Errorf("stdout = %q", got)
	}
	if strings.Contains(stdout.String(), "Total") {
		t.Error("no total should be printed after a parse error")
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"NoInput", nil},
		{"TooManyArgs", []string{"a.json", "b.json"}},
		{"FromWithoutUser", []string{"--from", "2025-04-14"}},
		{"UserWithoutFrom", []string{"--user", "42"}},
		{"UserAndPath", []string{"--user", "42", "--from", "2025-04-14", "a.json"}},
		{"UnknownFlag", []string{"--target", "x"}},
		{"HistoryDisabled", []string{"--history"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			var stdout, stderr bytes.Buffer
			err := run(tt.args, &stdout, &stderr)
			if err == nil {
				t.Fatal("run() should fail")
			}
			if errors.Is(err, errReported) {
				t.Errorf("usage error %v should not be marked as reported", err)
			}
		})
	}
}

func TestRun_History(t *testing.T) {
	tmpDir := isolate(t)
	t.Setenv("HISTORY_DB_PATH", filepath.Join(tmpDir, "state", "history.db"))
	path := filepath.Join(tmpDir, "report.json")

	for _, doc := range []string{`[{"affiliate_net_commission": 1}]`, `[{"affiliate_net_commission": 4}]`} {
		writeReport(t, path, doc)
		var stdout, stderr bytes.Buffer
		if err := run([]string{path}, &stdout, &stderr); err != nil {
			t.Fatalf("run() failed: %v", err)
		}
	}

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--history", "--limit", "5"}, &stdout, &stderr); err != nil {
		t.Fatalf("run(--history) failed: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "RECORDED") || !strings.Contains(out, "report.json") {
		t.Errorf("history output missing rows:\n%s", out)
	}
}

func TestRun_HistoryNonFiniteTotals(t *testing.T) {
	tmpDir := isolate(t)
	t.Setenv("HISTORY_DB_PATH", filepath.Join(tmpDir, "history.db"))
	path := filepath.Join(tmpDir, "report.json")

	docs := []string{
		`{"affiliate_net_commission": "1e400"}`,
		`{"affiliate_net_commission": "nan"}`,
		`{"affiliate_net_commission": 4}`,
		`{"affiliate_net_commission": 7}`,
	}
	for _, doc := range docs {
		writeReport(t, path, doc)
		var stdout, stderr bytes.Buffer
		if err := run([]string{path}, &stdout, &stderr); err != nil {
			t.Fatalf("run() failed: %v", err)
		}
	}

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--history"}, &stdout, &stderr); err != nil {
		t.Fatalf("run(--history) failed: %v", err)
	}

	out := stdout.String()
	if got := strings.Count(out, "report.json"); got != len(docs) {
		t.Errorf("history rows = %d, want %d:\n%s", got, len(docs), out)
	}
	for _, want := range []string{"inf", "nan", "7.0", "over the last 2 runs"} {
		if !strings.Contains(out, want) {
			t.Errorf("history output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"--version"}, &stdout, &stderr); err != nil {
		t.Fatalf("run(--version) failed: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "commission-tally ") {
		t.Errorf("stdout = %q", stdout.String())
	}
}
