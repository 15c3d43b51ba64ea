package normalize

import (
	"strings"

	"njforeclose/models"
)

// stagePriority lists (stage, keywords) pairs in match priority order.
// REO is checked before SHERIFF_SALE so "Scheduled for REO resale" is not
// misclassified as a scheduled sheriff sale.
var stagePriority = []struct {
	stage    models.Stage
	keywords []string
}{
	{models.StageREO, []string{"reo", "bank owned", "resale"}},
	{models.StageAuction, []string{"auction", "trustee", "bid4assets", "xome"}},
	{models.StageSheriffSale, []string{"sheriff", "scheduled", "set for sale", "adjourned"}},
	{models.StagePreForeclosure, []string{"lis pendens", "nod", "pre-foreclosure"}},
}

// InferStage concatenates the stage hint and status text, lowercases, and
// returns the first-priority-match stage, or StageUnknown.
func InferStage(stageHint, statusText string) models.Stage {
	combined := strings.ToLower(stageHint + " " + statusText)
	for _, entry := range stagePriority {
		for _, kw := range entry.keywords {
			if strings.Contains(combined, kw) {
				return entry.stage
			}
		}
	}
	return models.StageUnknown
}
