package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// xlsxWriter writes one <job>.xlsx workbook with a sheet per table.
type xlsxWriter struct{}

func (xlsxWriter) Format() string { return FormatXLSX }

func (xlsxWriter) Write(dir string, rep *Report) ([]string, error) {
	if len(rep.Tables) == 0 {
		return nil, fmt.Errorf("report %s has no tables", rep.Job)
	}
	f := excelize.NewFile()
	defer f.Close()

	dateFmt := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	first := f.GetSheetName(0)
	for i, t := range rep.Tables {
		if err := checkTable(t); err != nil {
			return nil, err
		}
		sheet := sheetName(t.Name)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeSheet(f, sheet, t, headerStyle, dateStyle); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)

	var s staging
	err = writeStaged(&s, filepath.Join(dir, rep.Job+".xlsx"), func(out *os.File) error {
		_, err := f.WriteTo(out)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.commit()
}

func writeSheet(f *excelize.File, sheet string, t Table, headerStyle, dateStyle int) error {
	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Header()
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		copy(values, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if len(t.Rows) > 0 {
		for c, col := range t.Columns {
			if col.Kind != KindDate {
				continue
			}
			top, _ := excelize.CoordinatesToCellName(c+1, 2)
			bottom, _ := excelize.CoordinatesToCellName(c+1, len(t.Rows)+1)
			if err := f.SetCellStyle(sheet, top, bottom, dateStyle); err != nil {
				return err
			}
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// sheetName fits a table name into the 31 character sheet name limit.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
