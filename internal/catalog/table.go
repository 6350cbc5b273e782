// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pdiddy/papertex/pkg/types"
)

// TitleWidth is the display width titles are truncated to in WriteTable.
const TitleWidth = 40

var tableHeader = []string{"PAPER", "DOCUMENT", "STATUS", "TITLE"}

// WriteTable prints records as aligned columns. Widths are measured in
// terminal cells so titles with CJK or other wide runes line up.
func WriteTable(w io.Writer, records []types.ConversionRecord) error {
	rows := [][]string{tableHeader}
	for _, r := range records {
		status := string(r.Status)
		if r.Cleaned {
			status += "+cleaned"
		}
		rows = append(rows, []string{
			r.PaperID,
			filepath.Base(r.Source),
			status,
			runewidth.Truncate(r.Title, TitleWidth, "..."),
		})
	}

	widths := make([]int, len(tableHeader))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "  ")); err != nil {
			return err
		}
	}
	return nil
}
