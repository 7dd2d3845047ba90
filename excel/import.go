package excel

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mtl-tools/mtlkit/config"
	"github.com/mtl-tools/mtlkit/script"
)

// Import reads reviewer edits from the QC workbook back into the
// translated files. For every row the QC cell wins over the enText cell
// when non-empty; blank cells leave the file untouched. Returns the
// number of changed values.
func Import(cfg *config.Config, onLog func(format string, args ...any)) (int, error) {
	wb, err := excelize.OpenFile(cfg.Excel.OutputFile)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", cfg.Excel.OutputFile, err)
	}
	defer wb.Close()

	changed := 0
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return changed, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}

		cols := headerIndex(rows[0])
		if _, ok := cols["blockIdx"]; !ok {
			continue
		}

		path, err := resolvePath(cfg.Translation.OutputFolder, sheet, rows)
		if err != nil {
			if onLog != nil {
				onLog("  skipping sheet %s: %v", sheet, err)
			}
			continue
		}

		// A sheet whose file vanished or went unreadable is skipped so
		// the remaining sheets still import.
		f, err := script.Load(path)
		if err != nil {
			if onLog != nil {
				onLog("  skipping sheet %s: %v", sheet, err)
			}
			continue
		}

		n := applyRows(f, rows[1:], cols)
		if n > 0 {
			if err := f.Save(path); err != nil {
				return changed, err
			}
		}
		changed += n

		if onLog != nil {
			onLog("  %s: applied %d edits", sheet, n)
		}
	}

	return changed, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// resolvePath locates the script file a sheet belongs to. The FilePath
// column of the first data row is authoritative; when it is absent (hand
// edited workbooks) the sheet name is matched against the output folder's
// files, honoring the 31-character sheet name truncation.
func resolvePath(outputFolder, sheet string, rows [][]string) (string, error) {
	cols := headerIndex(rows[0])
	if idx, ok := cols["FilePath"]; ok {
		if key := strings.TrimSpace(cell(rows[1], idx)); key != "" {
			return filepath.Join(outputFolder, filepath.FromSlash(key)+".json"), nil
		}
	}

	files, err := script.FindFiles(outputFolder)
	if err != nil {
		return "", err
	}
	for _, path := range files {
		rel, err := filepath.Rel(outputFolder, path)
		if err != nil {
			continue
		}
		if script.SheetName(rel) == sheet {
			return path, nil
		}
	}
	return "", fmt.Errorf("no file matches sheet name %q", sheet)
}

// applyRows writes reviewed values into the script file and reports how
// many differed from what was there.
func applyRows(f *script.File, rows [][]string, cols map[string]int) int {
	blocks := make(map[int]*script.Block, len(f.Blocks))
	choices := make(map[string]*script.Choice)
	for _, b := range f.Blocks {
		blocks[b.BlockIdx] = b
		for i, c := range b.Choices {
			choices[script.ChoiceKey(b.BlockIdx, i)] = c
		}
	}

	col := func(name string) int {
		if i, ok := cols[name]; ok {
			return i
		}
		return -1
	}

	changed := 0
	for _, row := range rows {
		key := strings.TrimSpace(cell(row, col("blockIdx")))
		if key == "" {
			continue
		}

		// Reviewed translation: the QC column wins when filled in.
		value := strings.TrimSpace(cell(row, col("QC")))
		if value == "" {
			value = strings.TrimSpace(cell(row, col("enText")))
		}

		if strings.Contains(key, "-C") {
			if c, ok := choices[key]; ok && value != "" && c.ENText != value {
				c.ENText = value
				changed++
			}
			continue
		}

		idx, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		b, ok := blocks[idx]
		if !ok {
			continue
		}

		if value != "" && b.ENText != value {
			b.ENText = value
			changed++
		}
		if name := strings.TrimSpace(cell(row, col("enName"))); name != "" && b.ENName != name {
			b.ENName = name
			changed++
		}
	}

	return changed
}
