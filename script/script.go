// Package script implements reading and writing of game-script JSON files:
// one file per scene, holding an ordered list of dialogue blocks with
// Japanese source fields and English target fields.
package script

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Choice is a selectable dialogue option attached to a Block.
type Choice struct {
	// JPText is the Japanese source text.
	JPText string `json:"jpText"`
	// ENText is the English translation ("" = not yet translated).
	ENText string `json:"enText"`
}

// Block is one line of dialogue: a speaker name pair, a text pair, and
// optional choices. BlockIdx is unique within a file and its order is
// meaningful.
type Block struct {
	BlockIdx int    `json:"blockIdx"`
	JPName   string `json:"jpName"`
	ENName   string `json:"enName"`
	JPText   string `json:"jpText"`
	ENText   string `json:"enText"`
	// Choices are dialogue options, if any.
	Choices []*Choice `json:"choices,omitempty"`
}

// File represents a parsed script file.
type File struct {
	// Blocks are the dialogue blocks in document order.
	Blocks []*Block `json:"text"`
}

// NewFile creates a new empty script file.
func NewFile() *File {
	return &File{Blocks: make([]*Block, 0)}
}

// Load reads and parses a script JSON file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if f.Blocks == nil {
		f.Blocks = make([]*Block, 0)
	}

	return &f, nil
}

// Save writes the script file as indented JSON, creating parent
// directories as needed.
func (f *File) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling script: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ChoiceKey renders the external identifier of a choice row:
// "{blockIdx}-C{choiceIndex+1}".
func ChoiceKey(blockIdx, choiceIdx int) string {
	return fmt.Sprintf("%d-C%d", blockIdx, choiceIdx+1)
}

// FindFiles enumerates *.json files under root recursively, in sorted
// order so runs are reproducible.
func FindFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input folder %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input folder %s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// SheetName converts a file path relative to a base folder into an Excel
// sheet name: extension stripped, path separators replaced with "_", and
// truncated to Excel's 31-character sheet name limit.
func SheetName(relPath string) string {
	name := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	name = strings.ReplaceAll(filepath.ToSlash(name), "/", "_")
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

// RelKey returns the relative path of a file with its extension stripped,
// using forward slashes. This is the value written to the FilePath column
// of exported sheets and used to recover the file on import.
func RelKey(base, path string) (string, error) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel))), nil
}
