package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"babyplate/internal/app"
	"babyplate/internal/domain"
	"babyplate/internal/replica"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// printPlan renders a generated plan day by day.
func printPlan(w io.Writer, plan *domain.WeeklyMealPlan) {
	for _, day := range plan.Days {
		t, _ := domain.ParseDay(day.Date)
		headerColor.Fprintf(w, "%s %s\n", t.Weekday(), day.Date)
		for _, m := range day.Meals {
			label := labelColor.Sprintf("%-10s", m.MealPeriod)
			if m.Recipe == nil {
				fmt.Fprintf(w, "  %s %s\n", label, errorColor.Sprint("no eligible recipe"))
				continue
			}
			fmt.Fprintf(w, "  %s %s %s\n", label, m.Recipe.Name,
				dimColor.Sprintf("(%s, %.0f kcal)", m.Recipe.CookingMethod, m.Recipe.Nutrition.Calories))
		}
		fmt.Fprintf(w, "  %s\n\n", dimColor.Sprintf("%.0f kcal, %.1f g protein, %.0f mg calcium, %.1f mg iron",
			day.Nutrition.Calories, day.Nutrition.Protein, day.Nutrition.Calcium, day.Nutrition.Iron))
	}

	s := plan.Summary
	headerColor.Fprintln(w, "Summary")
	fmt.Fprintf(w, "  daily average %.0f of %.0f kcal, %.1f of %.1f g protein, %.0f of %.0f mg calcium, %.1f of %.1f mg iron\n",
		s.DailyAverage.Calories, s.Goal.Calories, s.DailyAverage.Protein, s.Goal.Protein,
		s.DailyAverage.Calcium, s.Goal.Calcium, s.DailyAverage.Iron, s.Goal.Iron)
	if n := len(s.Deficiencies); n > 0 {
		warningColor.Fprintf(w, "  %d slot(s) without an eligible recipe\n", n)
	}
	for _, h := range s.Highlights {
		warningColor.Fprintf(w, "  %s\n", h)
	}
}

func printSaveResult(w io.Writer, res app.SaveResult) {
	if res.Success {
		successColor.Fprintln(w, res.Message)
		return
	}
	errorColor.Fprintln(w, res.Message)
}

func printReport(w io.Writer, r replica.Report) {
	successColor.Fprintf(w, "pulled %d (merged %d), pushed %d, purged %d, skipped %d\n",
		r.Pulled, r.Merged, r.Pushed, r.Purged, r.Skipped)
	for _, f := range r.Failures {
		id := f.CloudID
		if f.PlanID != 0 {
			id = fmt.Sprintf("plan %d", f.PlanID)
		}
		errorColor.Fprintf(w, "  %s: %s\n", id, f.Error)
	}
}

func printAudit(w io.Writer, entries []domain.MergeAudit) {
	if len(entries) == 0 {
		dimColor.Fprintln(w, "no merge decisions recorded")
		return
	}
	for _, a := range entries {
		fmt.Fprintf(w, "%s  plan %d  %s  %s wins (%s)  local v%d, remote v%d\n",
			a.DetectedAt.Format("2006-01-02 15:04:05"), a.PlanID, a.CloudID,
			strings.ToLower(string(a.Winner)), a.Resolution, a.LocalVersion, a.RemoteVersion)
	}
}
