// Package exportsvc writes parsed tables as spreadsheets.
package exportsvc

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/intelliscript/intelliscript/core/chat"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultSheet    = "Sheet1"
	maxSheetName    = 31
)

// WriteXLSX writes tbl to w as a single-sheet workbook: a bold, frozen header row then
// one row per table row.
func WriteXLSX(w io.Writer, sheet string, tbl chat.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := sheetName(sheet)
	if name != defaultSheet {
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return errors.Wrap(err, "naming sheet")
		}
	}

	if err := f.SetSheetRow(name, "A1", toRow(tbl.Headers)); err != nil {
		return errors.Wrap(err, "writing headers")
	}
	for i, row := range tbl.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		if err = f.SetSheetRow(name, cell, toRow(row)); err != nil {
			return errors.Wrapf(err, "writing row %d", i+1)
		}
	}

	if len(tbl.Headers) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return errors.Wrap(err, "creating header style")
		}
		last, _ := excelize.CoordinatesToCellName(len(tbl.Headers), 1)
		if err = f.SetCellStyle(name, "A1", last, style); err != nil {
			return errors.Wrap(err, "styling headers")
		}
		if err = f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return errors.Wrap(err, "freezing header row")
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func toRow(cells []string) *[]interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return &row
}

// sheetName makes s a valid sheet name (no []:*?/\ and at most 31 characters).
func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if r := []rune(s); len(r) > maxSheetName {
		s = string(r[:maxSheetName])
	}
	if s == "" {
		return defaultSheet
	}
	return s
}
