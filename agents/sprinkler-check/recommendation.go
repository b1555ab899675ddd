package sprinklercheck

import "sprinkler-agent/internal/models"

// Recommend decides whether to water: the sprinkler runs only when the
// recent rainfall is strictly below the threshold.
func Recommend(totalInches, threshold float64) models.Recommendation {
	if totalInches < threshold {
		return models.Recommendation{
			Run:    true,
			Label:  "YES - Run sprinkler",
			Marker: "✗",
		}
	}
	return models.Recommendation{
		Run:    false,
		Label:  "NO - Sufficient rainfall",
		Marker: "✓",
	}
}
