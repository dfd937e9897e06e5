// Package export renders meal plans as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"babyplate/internal/domain"
)

const (
	planSheet    = "Meal Plan"
	summarySheet = "Summary"
)

var planHeader = []string{"Date", "Weekday", "Meal", "Recipe", "Cooking", "Calories (kcal)", "Protein (g)", "Calcium (mg)", "Iron (mg)", "Notes"}

var planWidths = []float64{12, 11, 11, 28, 18, 14, 12, 13, 10, 40}

// WeeklyPlan writes plan as an .xlsx workbook with a meal sheet and a
// nutrition summary sheet.
func WeeklyPlan(w io.Writer, baby domain.Baby, plan domain.WeeklyMealPlan) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	index, err := f.NewSheet(planSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	unfilled, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true, Color: "#9C0006"}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeRow(f, planSheet, 1, toAny(planHeader)...); err != nil {
		return err
	}
	if err := f.SetCellStyle(planSheet, "A1", cellName(len(planHeader), 1), header); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	for i, width := range planWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(planSheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	row := 2
	for _, m := range plan.Meals() {
		day, _ := domain.ParseDay(m.Date)
		values := []any{m.Date, day.Weekday().String(), m.MealPeriod.String()}
		if m.Recipe == nil {
			values = append(values, "no eligible recipe")
			if err := writeRow(f, planSheet, row, values...); err != nil {
				return err
			}
			if err := f.SetCellStyle(planSheet, cellName(4, row), cellName(4, row), unfilled); err != nil {
				return fmt.Errorf("failed to set style: %w", err)
			}
		} else {
			n := m.Recipe.Nutrition
			values = append(values, m.Recipe.Name, string(m.Recipe.CookingMethod), n.Calories, n.Protein, n.Calcium, n.Iron, m.Notes)
			if err := writeRow(f, planSheet, row, values...); err != nil {
				return err
			}
		}
		row++
	}

	if err := f.SetPanes(planSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}

	if err := writeSummary(f, baby, plan, header); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, baby domain.Baby, plan domain.WeeklyMealPlan, header int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	s := plan.Summary
	rows := [][]any{
		{"Baby", baby.Name},
		{"Period", plan.StartDate + " to " + plan.EndDate},
		{},
		{"Nutrient", "Daily goal", "Daily average", "Weekly total"},
		{"Calories (kcal)", s.Goal.Calories, s.DailyAverage.Calories, s.Total.Calories},
		{"Protein (g)", s.Goal.Protein, s.DailyAverage.Protein, s.Total.Protein},
		{"Calcium (mg)", s.Goal.Calcium, s.DailyAverage.Calcium, s.Total.Calcium},
		{"Iron (mg)", s.Goal.Iron, s.DailyAverage.Iron, s.Total.Iron},
	}
	for i, values := range rows {
		if err := writeRow(f, summarySheet, i+1, values...); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A4", "D4", header); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "D", 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	row := len(rows) + 2
	if len(s.Deficiencies) > 0 {
		if err := writeRow(f, summarySheet, row, "Unfilled slots"); err != nil {
			return err
		}
		row++
		for _, d := range s.Deficiencies {
			if err := writeRow(f, summarySheet, row, d.Date, d.MealPeriod.String(), d.Reason); err != nil {
				return err
			}
			row++
		}
		row++
	}
	for _, h := range s.Highlights {
		if err := writeRow(f, summarySheet, row, h); err != nil {
			return err
		}
		row++
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	if len(values) == 0 {
		return nil
	}
	if err := f.SetSheetRow(sheet, cellName(1, row), &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
