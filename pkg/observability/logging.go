package observability

import (
	"log/slog"

	"github.com/aretw0/facet/pkg/domain"
)

// LoggingHooks logs changes and commits at debug level and recalculations at
// info level, or error level when a pass failed.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnChange: func(e *domain.ChangeEvent) {
			logger.Debug("attribute_change",
				"model", e.Model,
				"attribute", e.Attribute,
				"from_nested", e.FromNested,
			)
		},
		OnCommit: func(e *domain.CommitEvent) {
			logger.Debug("attribute_commit",
				"model", e.Model,
				"attribute", e.Attribute,
				"branch", e.Branch,
			)
		},
		OnCalculate: func(e *domain.CalculateEvent) {
			if e.Err != nil {
				logger.Error("calculate",
					"model", e.Model,
					"iterations", e.Iterations,
					"err", e.Err,
				)
				return
			}
			logger.Info("calculate",
				"model", e.Model,
				"iterations", e.Iterations,
				"duration", e.Duration,
			)
		},
	}
}
