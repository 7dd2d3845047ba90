package merge

import (
	"path/filepath"
	"testing"

	"github.com/mtl-tools/mtlkit/config"
	"github.com/mtl-tools/mtlkit/script"
)

func TestFilesCarriesMatchingTranslations(t *testing.T) {
	translated := &script.File{Blocks: []*script.Block{
		{BlockIdx: 0, JPName: "勇者", ENName: "Hero", JPText: "こんにちは", ENText: "Hello"},
		{BlockIdx: 1, JPText: "さらばだ", ENText: "Farewell", Choices: []*script.Choice{
			{JPText: "はい", ENText: "Yes"},
		}},
	}}

	// The update inserts a block, shifting indexes, and rewrites one line.
	updated := &script.File{Blocks: []*script.Block{
		{BlockIdx: 0, JPName: "勇者", JPText: "こんにちは"},
		{BlockIdx: 1, JPName: "勇者", JPText: "新しいセリフ"},
		{BlockIdx: 2, JPText: "さらばだ", Choices: []*script.Choice{
			{JPText: "はい"},
			{JPText: "いいえ"},
		}},
	}}

	carried := Files(updated, translated)

	if updated.Blocks[0].ENText != "Hello" || updated.Blocks[0].ENName != "Hero" {
		t.Errorf("block 0 = %q/%q, want Hero/Hello", updated.Blocks[0].ENName, updated.Blocks[0].ENText)
	}
	// Repeated speaker name carries even on a new line.
	if updated.Blocks[1].ENName != "Hero" {
		t.Errorf("block 1 enName = %q, want Hero", updated.Blocks[1].ENName)
	}
	if updated.Blocks[1].ENText != "" {
		t.Errorf("new line got a stale translation: %q", updated.Blocks[1].ENText)
	}
	// Shifted block matches by text.
	if updated.Blocks[2].ENText != "Farewell" {
		t.Errorf("block 2 enText = %q, want Farewell", updated.Blocks[2].ENText)
	}
	if updated.Blocks[2].Choices[0].ENText != "Yes" {
		t.Errorf("choice = %q, want Yes", updated.Blocks[2].Choices[0].ENText)
	}
	if updated.Blocks[2].Choices[1].ENText != "" {
		t.Errorf("new choice got a stale translation: %q", updated.Blocks[2].Choices[1].ENText)
	}

	// Hello, Hero (x2), Farewell, Yes.
	if carried != 5 {
		t.Errorf("carried = %d, want 5", carried)
	}
}

func TestFilesNeverOverwrites(t *testing.T) {
	translated := &script.File{Blocks: []*script.Block{
		{BlockIdx: 0, JPText: "こんにちは", ENText: "Hello"},
	}}
	updated := &script.File{Blocks: []*script.Block{
		{BlockIdx: 0, JPText: "こんにちは", ENText: "Hi there"},
	}}

	if carried := Files(updated, translated); carried != 0 {
		t.Errorf("carried = %d, want 0", carried)
	}
	if updated.Blocks[0].ENText != "Hi there" {
		t.Errorf("existing translation overwritten: %q", updated.Blocks[0].ENText)
	}
}

func TestFolders(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Translation: config.TranslationSettings{
		InputFolder:  filepath.Join(dir, "in"),
		OutputFolder: filepath.Join(dir, "out"),
	}}

	in := &script.File{Blocks: []*script.Block{
		{BlockIdx: 0, JPText: "こんにちは"},
	}}
	if err := in.Save(filepath.Join(cfg.Translation.InputFolder, "scene.json")); err != nil {
		t.Fatal(err)
	}
	// A file with no translated counterpart is skipped.
	if err := in.Save(filepath.Join(cfg.Translation.InputFolder, "fresh.json")); err != nil {
		t.Fatal(err)
	}

	out := &script.File{Blocks: []*script.Block{
		{BlockIdx: 0, JPText: "こんにちは", ENText: "Hello"},
	}}
	if err := out.Save(filepath.Join(cfg.Translation.OutputFolder, "scene.json")); err != nil {
		t.Fatal(err)
	}

	total, err := Folders(cfg, nil)
	if err != nil {
		t.Fatalf("Folders: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}

	got, err := script.Load(filepath.Join(cfg.Translation.InputFolder, "scene.json"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Blocks[0].ENText != "Hello" {
		t.Errorf("merged input enText = %q, want Hello", got.Blocks[0].ENText)
	}

	fresh, err := script.Load(filepath.Join(cfg.Translation.InputFolder, "fresh.json"))
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Blocks[0].ENText != "" {
		t.Errorf("fresh file modified: %q", fresh.Blocks[0].ENText)
	}
}
