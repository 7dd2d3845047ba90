package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		width   int
		want    string
	}{
		{
			name:    "clamps below zero",
			percent: -10,
			width:   4,
			want:    colorRed + "░░░░" + colorReset + "   0%",
		},
		{
			name:    "mid range uses yellow",
			percent: 50,
			width:   4,
			want:    colorYellow + "██░░" + colorReset + "  50%",
		},
		{
			name:    "clamps above hundred",
			percent: 120,
			width:   4,
			want:    colorGreen + "████" + colorReset + " 100%",
		},
	}

	for _, tc := range tests {
		if got := progressBar(tc.percent, tc.width); got != tc.want {
			t.Fatalf("%s: progressBar() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(filePath, []byte("ok"), 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}

	if !fileExists(filePath) {
		t.Fatalf("fileExists(file) = false, want true")
	}
	if fileExists(dir) {
		t.Fatalf("fileExists(directory) = true, want false")
	}
	if fileExists(filepath.Join(dir, "missing.txt")) {
		t.Fatalf("fileExists(missing) = true, want false")
	}
}

func TestRunImportMissingWorkbook(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	conf := `llm_settings:
  api_url: http://localhost:1234/v1
  model: test-model
translation_settings:
  input_folder: ` + filepath.Join(dir, "in") + `
  output_folder: ` + filepath.Join(dir, "out") + `
excel_export:
  output_file: ` + filepath.Join(dir, "qc.xlsx") + `
`
	if err := os.WriteFile(cfgFile, []byte(conf), 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}

	prev := cfgPath
	cfgPath = cfgFile
	defer func() { cfgPath = prev }()

	err := runImport()
	if err == nil {
		t.Fatal("runImport() succeeded without a workbook")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("runImport() error = %v, want workbook-not-found", err)
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"translate", "export", "import", "workflow", "merge", "check", "version"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not wired: %v", name, err)
		}
	}

	for _, flag := range []string{"config", "api-key", "verbose"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag %q missing", flag)
		}
	}
}
