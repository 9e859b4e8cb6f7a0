package syllabus

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// loadXLSXElements reads a workbook sheet by sheet into the flat element
// stream. A row with a single non-empty cell becomes a paragraph; runs of
// multi-cell rows accumulate into one table. Blank rows end the current
// table.
func loadXLSXElements(path string) ([]Element, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var elements []Element
	var table [][]string

	flush := func() {
		if len(table) > 0 {
			elements = append(elements, Element{Type: ElementTable, Rows: table})
			table = nil
		}
	}

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		for _, row := range rows {
			cells := trimRow(row)
			switch countNonEmpty(cells) {
			case 0:
				flush()
			case 1:
				flush()
				elements = append(elements, Element{Type: ElementParagraph, Text: firstNonEmpty(cells)})
			default:
				table = append(table, cells)
			}
		}
		flush()
	}

	return elements, nil
}

func trimRow(row []string) []string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func countNonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if c != "" {
			n++
		}
	}
	return n
}

func firstNonEmpty(cells []string) string {
	for _, c := range cells {
		if c != "" {
			return c
		}
	}
	return ""
}
