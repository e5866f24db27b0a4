package healthcheck

import "github.com/MrSnakeDoc/bookaimark/internal/domain"

// Summary counts results by tier. NotFound is a subset of Broken.
type Summary struct {
	Total     int `json:"total"`
	Excellent int `json:"excellent"`
	Working   int `json:"working"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
	Broken    int `json:"broken"`
	NotFound  int `json:"notFound"`
}

func Summarize(results []domain.HealthCheckResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case domain.TierExcellent:
			s.Excellent++
		case domain.TierWorking:
			s.Working++
		case domain.TierFair:
			s.Fair++
		case domain.TierPoor:
			s.Poor++
		case domain.TierBroken:
			s.Broken++
		}
		if r.Error == domain.NotFoundError {
			s.NotFound++
		}
	}
	return s
}
