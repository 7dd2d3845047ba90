// Package merge carries existing translations forward into updated script
// files, so a game update only costs LLM calls for the lines it changed.
package merge

import (
	"fmt"
	"path/filepath"

	"github.com/mtl-tools/mtlkit/config"
	"github.com/mtl-tools/mtlkit/script"
)

// Files copies translations from a previously translated file into an
// updated script where the Japanese source still matches.
// - A block with the same blockIdx and unchanged jpText keeps its enText.
// - Otherwise blocks are matched by exact jpText (first occurrence wins).
// - Names and choices are matched by their Japanese text alone, since
//   both repeat heavily across a script.
// Filled-in targets in the updated file are never overwritten.
// Returns the number of values carried over.
func Files(updated, translated *script.File) int {
	byIdx := make(map[int]*script.Block, len(translated.Blocks))
	textByJP := make(map[string]string)
	nameByJP := make(map[string]string)
	choiceByJP := make(map[string]string)

	for _, b := range translated.Blocks {
		byIdx[b.BlockIdx] = b
		if b.ENText != "" {
			if _, ok := textByJP[b.JPText]; !ok && b.JPText != "" {
				textByJP[b.JPText] = b.ENText
			}
		}
		if b.ENName != "" && b.JPName != "" {
			if _, ok := nameByJP[b.JPName]; !ok {
				nameByJP[b.JPName] = b.ENName
			}
		}
		for _, c := range b.Choices {
			if c.ENText != "" && c.JPText != "" {
				if _, ok := choiceByJP[c.JPText]; !ok {
					choiceByJP[c.JPText] = c.ENText
				}
			}
		}
	}

	carried := 0
	for _, b := range updated.Blocks {
		if b.ENText == "" && b.JPText != "" {
			if old, ok := byIdx[b.BlockIdx]; ok && old.JPText == b.JPText && old.ENText != "" {
				b.ENText = old.ENText
				carried++
			} else if en, ok := textByJP[b.JPText]; ok {
				b.ENText = en
				carried++
			}
		}
		if b.ENName == "" && b.JPName != "" {
			if en, ok := nameByJP[b.JPName]; ok {
				b.ENName = en
				carried++
			}
		}
		for _, c := range b.Choices {
			if c.ENText == "" && c.JPText != "" {
				if en, ok := choiceByJP[c.JPText]; ok {
					c.ENText = en
					carried++
				}
			}
		}
	}

	return carried
}

// Folders merges the output folder's translations into the input folder's
// scripts in place. Input files without a translated counterpart are left
// alone. Returns the total number of carried values.
func Folders(cfg *config.Config, onLog func(format string, args ...any)) (int, error) {
	files, err := script.FindFiles(cfg.Translation.InputFolder)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no JSON files found in %s", cfg.Translation.InputFolder)
	}

	total := 0
	for _, path := range files {
		rel, err := filepath.Rel(cfg.Translation.InputFolder, path)
		if err != nil {
			return total, err
		}

		translated, err := script.Load(filepath.Join(cfg.Translation.OutputFolder, rel))
		if err != nil {
			// No previous translation for this file.
			continue
		}

		updated, err := script.Load(path)
		if err != nil {
			return total, err
		}

		carried := Files(updated, translated)
		if carried > 0 {
			if err := updated.Save(path); err != nil {
				return total, err
			}
		}
		total += carried

		if onLog != nil {
			onLog("  %s: carried %d translations", rel, carried)
		}
	}

	return total, nil
}
