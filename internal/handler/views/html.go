// Package views renders the HTML pages of the quiz web UI.
package views

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/pdfquiz/internal/i18n"
	"github.com/pavelanni/pdfquiz/internal/model"
)

// href prefixes an application path with the deployment base path.
func href(ctx context.Context, path string) templ.SafeURL {
	return templ.SafeURL(model.BasePathFromContext(ctx) + path)
}

var categoryMessages = map[model.Category]string{
	model.CategoryDefinition:  "CatDefinition",
	model.CategoryDatedFact:   "CatHistoricalFact",
	model.CategoryComposition: "CatComposition",
	model.CategoryFunction:    "CatFunction",
	model.CategoryGeneralFact: "CatGeneralFact",
}

func categoryLabel(ctx context.Context, c model.Category) string {
	if id, ok := categoryMessages[c]; ok {
		return appI18n.T(ctx, id)
	}
	return string(c)
}

func categoryClass(c model.Category) string {
	switch c {
	case model.CategoryDefinition:
		return "badge-definition"
	case model.CategoryDatedFact:
		return "badge-dated"
	case model.CategoryComposition:
		return "badge-composition"
	case model.CategoryFunction:
		return "badge-function"
	default:
		return "badge-general"
	}
}

// questionField is the form field a question's answer is posted as.
func questionField(id int) string {
	return fmt.Sprintf("q_%d", id)
}

func optionID(questionID, option int) string {
	return fmt.Sprintf("q_%d_%d", questionID, option)
}

func resultClass(correct bool) string {
	if correct {
		return "result-correct"
	}
	return "result-incorrect"
}

func verdictKey(correct bool) string {
	if correct {
		return "Correct"
	}
	return "Incorrect"
}

func tooLargeMessage(ctx context.Context, maxBytes int64) string {
	return appI18n.Td(ctx, "ErrFileTooLarge", map[string]any{"MB": maxBytes >> 20})
}

func scoreSummary(ctx context.Context, r model.GradeResult) string {
	return appI18n.Td(ctx, "ScoreSummary", map[string]any{
		"Score":      r.Score,
		"Total":      r.Total,
		"Percentage": formatPercent(r.Percentage),
	})
}

var baseChoices = []int{3, 5, 10, 15, 20}

// questionChoices lists the selectable question counts: the usual choices up
// to limit, plus the default.
func questionChoices(def, limit int) []int {
	var out []int
	for _, n := range baseChoices {
		if n <= limit {
			out = append(out, n)
		}
	}
	if def > 0 && !slices.Contains(out, def) {
		out = append(out, def)
		slices.Sort(out)
	}
	return out
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
