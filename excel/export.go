// Package excel exports translated script files into a QC spreadsheet and
// imports reviewer edits back. One worksheet per script file; the QC
// column wins over the translation on import.
package excel

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/mtl-tools/mtlkit/config"
	"github.com/mtl-tools/mtlkit/script"
)

// choiceName labels choice rows in the name column.
const choiceName = "[Choice]"

// columnWidths by header name; unknown headers get the default.
var columnWidths = map[string]float64{
	"FilePath": 40,
	"blockIdx": 12,
	"jpName":   25,
	"enName":   25,
	"jpText":   50,
	"enText":   50,
	"QC":       50,
}

const defaultColumnWidth = 20

// Export writes every translated file under the output folder into one
// workbook, a worksheet per file. Returns the number of sheets written.
func Export(cfg *config.Config, onLog func(format string, args ...any)) (int, error) {
	files, err := script.FindFiles(cfg.Translation.OutputFolder)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no JSON files found in %s", cfg.Translation.OutputFolder)
	}

	wb := excelize.NewFile()
	defer wb.Close()

	headerStyle, wrapStyle, err := buildStyles(wb)
	if err != nil {
		return 0, err
	}

	sheets := 0
	for _, path := range files {
		rel, err := filepath.Rel(cfg.Translation.OutputFolder, path)
		if err != nil {
			return sheets, err
		}
		key, err := script.RelKey(cfg.Translation.OutputFolder, path)
		if err != nil {
			return sheets, err
		}

		f, err := script.Load(path)
		if err != nil {
			return sheets, fmt.Errorf("loading %s: %w", path, err)
		}

		sheet := script.SheetName(rel)
		if _, err := wb.NewSheet(sheet); err != nil {
			return sheets, fmt.Errorf("creating sheet %s: %w", sheet, err)
		}
		if err := writeSheet(wb, sheet, key, f, cfg.Excel.Columns, headerStyle, wrapStyle); err != nil {
			return sheets, fmt.Errorf("writing sheet %s: %w", sheet, err)
		}
		sheets++

		if onLog != nil {
			onLog("  Exported %s (%d blocks)", rel, len(f.Blocks))
		}
	}

	// Drop the default sheet excelize creates with the workbook.
	wb.DeleteSheet("Sheet1")

	if err := wb.SaveAs(cfg.Excel.OutputFile); err != nil {
		return sheets, fmt.Errorf("saving workbook: %w", err)
	}
	return sheets, nil
}

func buildStyles(wb *excelize.File) (header, wrap int, err error) {
	header, err = wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return 0, 0, err
	}

	wrap, err = wb.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Vertical: "top",
			WrapText: true,
		},
	})
	if err != nil {
		return 0, 0, err
	}
	return header, wrap, nil
}

// cellValue maps a header name to the value for one block row.
func cellValue(column string, b *script.Block) any {
	switch column {
	case "blockIdx":
		return b.BlockIdx
	case "jpName":
		return b.JPName
	case "enName":
		return b.ENName
	case "jpText":
		return b.JPText
	case "enText":
		return b.ENText
	default:
		return ""
	}
}

// choiceCellValue maps a header name to the value for one choice row.
func choiceCellValue(column string, blockIdx, choiceIdx int, c *script.Choice) any {
	switch column {
	case "blockIdx":
		return script.ChoiceKey(blockIdx, choiceIdx)
	case "jpName", "enName":
		return choiceName
	case "jpText":
		return c.JPText
	case "enText":
		return c.ENText
	default:
		return ""
	}
}

func writeSheet(wb *excelize.File, sheet, key string, f *script.File, columns []string, headerStyle, wrapStyle int) error {
	headers := append([]string{"FilePath"}, columns...)

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := wb.SetCellValue(sheet, cell, h); err != nil {
			return err
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width, ok := columnWidths[h]
		if !ok {
			width = defaultColumnWidth
		}
		if err := wb.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}

	row := 2
	writeRow := func(values []any) error {
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := wb.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		row++
		return nil
	}

	for _, b := range f.Blocks {
		values := make([]any, 0, len(headers))
		values = append(values, key)
		for _, c := range columns {
			values = append(values, cellValue(c, b))
		}
		if err := writeRow(values); err != nil {
			return err
		}

		for i, choice := range b.Choices {
			values = values[:0]
			values = append(values, key)
			for _, c := range columns {
				values = append(values, choiceCellValue(c, b.BlockIdx, i, choice))
			}
			if err := writeRow(values); err != nil {
				return err
			}
		}
	}

	if row > 2 {
		last, err := excelize.CoordinatesToCellName(len(headers), row-1)
		if err != nil {
			return err
		}
		if err := wb.SetCellStyle(sheet, "A2", last, wrapStyle); err != nil {
			return err
		}
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := wb.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	return wb.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
