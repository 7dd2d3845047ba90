// Package script contains tests for script file parsing and helpers.
package script

import (
	"os"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// Load / Save round trip
// ---------------------------------------------------------------------------

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene001.json")

	raw := `{
    "text": [
        {
            "blockIdx": 0,
            "jpName": "主人公",
            "enName": "",
            "jpText": "こんにちは",
            "enText": "",
            "choices": [
                {"jpText": "はい", "enText": ""},
                {"jpText": "いいえ", "enText": ""}
            ]
        },
        {
            "blockIdx": 1,
            "jpName": "",
            "enName": "",
            "jpText": "……",
            "enText": ""
        }
    ]
}`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(f.Blocks))
	}
	if f.Blocks[0].JPName != "主人公" {
		t.Errorf("jpName = %q", f.Blocks[0].JPName)
	}
	if len(f.Blocks[0].Choices) != 2 {
		t.Fatalf("got %d choices, want 2", len(f.Blocks[0].Choices))
	}
	if f.Blocks[1].Choices != nil {
		t.Errorf("block 1 should have no choices")
	}

	f.Blocks[0].ENText = "Hello"
	out := filepath.Join(dir, "out", "scene001.json")
	if err := f.Save(out); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f2, err := Load(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if f2.Blocks[0].ENText != "Hello" {
		t.Errorf("enText = %q after round trip", f2.Blocks[0].ENText)
	}
	if f2.Blocks[0].BlockIdx != 0 || f2.Blocks[1].BlockIdx != 1 {
		t.Errorf("blockIdx values changed after round trip")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

// ---------------------------------------------------------------------------
// File enumeration
// ---------------------------------------------------------------------------

func TestFindFiles_RecursiveSorted(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"b.json", "a.json", "sub/c.json", "sub/skip.txt"} {
		full := filepath.Join(dir, p)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(`{"text":[]}`), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := FindFiles(dir)
	if err != nil {
		t.Fatalf("FindFiles: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "a.json" || filepath.Base(files[1]) != "b.json" {
		t.Errorf("files not sorted: %v", files)
	}
}

func TestFindFiles_MissingRoot(t *testing.T) {
	if _, err := FindFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing root")
	}
}

// ---------------------------------------------------------------------------
// Naming helpers
// ---------------------------------------------------------------------------

func TestChoiceKey(t *testing.T) {
	if got := ChoiceKey(7, 0); got != "7-C1" {
		t.Errorf("ChoiceKey(7,0) = %q, want 7-C1", got)
	}
	if got := ChoiceKey(12, 2); got != "12-C3" {
		t.Errorf("ChoiceKey(12,2) = %q, want 12-C3", got)
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"scene001.json", "scene001"},
		{filepath.Join("chapter1", "scene001.json"), "chapter1_scene001"},
		{"a_very_long_directory_name/with_a_long_file.json", "a_very_long_directory_name_with"},
	}
	for _, tc := range tests {
		if got := SheetName(tc.rel); got != tc.want {
			t.Errorf("SheetName(%q) = %q, want %q", tc.rel, got, tc.want)
		}
	}
	if n := len(SheetName("a_very_long_directory_name/with_a_long_file.json")); n > 31 {
		t.Errorf("sheet name exceeds 31 chars: %d", n)
	}
}
