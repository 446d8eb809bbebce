package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"c2w-go-api/internal/models"
)

// SheetName is the worksheet the leaderboard is written to
const SheetName = "Leaderboard"

const (
	minForecastColumns = 5
	fixedTwoDecimals   = 2 // built-in excelize number format "0.00"
)

// WriteLeaderboard writes the ranked forecasts as an .xlsx workbook
func WriteLeaderboard(w io.Writer, productName string, ranked []models.RankedForecast) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	columns := minForecastColumns
	for _, r := range ranked {
		if len(r.ForecastValues) > columns {
			columns = len(r.ForecastValues)
		}
	}

	header := []interface{}{"Rank", "Country"}
	for i := 1; i <= columns; i++ {
		header = append(header, fmt.Sprintf("Month %d", i))
	}
	header = append(header, "Growth rate index")

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return err
	}

	number, err := f.NewStyle(&excelize.Style{NumFmt: fixedTwoDecimals})
	if err != nil {
		return err
	}

	for i, r := range ranked {
		rowNum := i + 2
		row := []interface{}{r.Rank, r.Country}
		for c := 0; c < columns; c++ {
			if c < len(r.ForecastValues) {
				row = append(row, r.ForecastValues[c])
			} else {
				row = append(row, nil)
			}
		}
		row = append(row, r.Display.GrowthRate)

		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", rowNum, err)
		}

		first, _ := excelize.CoordinatesToCellName(3, rowNum)
		last, _ := excelize.CoordinatesToCellName(2+columns, rowNum)
		if err := f.SetCellStyle(SheetName, first, last, number); err != nil {
			return err
		}
	}

	if productName != "" {
		if err := f.SetDocProps(&excelize.DocProperties{
			Title:   "Forecast leaderboard",
			Subject: productName,
		}); err != nil {
			return err
		}
	}

	return f.Write(w)
}
