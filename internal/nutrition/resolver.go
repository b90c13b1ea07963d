package nutrition

import (
	"context"
	"errors"

	"github.com/user/mealcal/internal/logging"
)

// fallbackAdvice is returned when every provider comes up empty. The model
// still has to answer, so the text steers it toward its own knowledge.
const fallbackAdvice = "No nutrition data was found for this query. " +
	"Estimate the calories and macronutrients from typical values for similar foods, " +
	"and state clearly in your answer that the figures are estimates."

// Resolver tries each provider in order and always produces usable text.
// It never returns an error and never returns an empty string.
type Resolver struct {
	providers []Provider
	logger    *logging.Logger
}

// NewResolver creates a resolver over the given providers, in priority order
func NewResolver(logger *logging.Logger, providers ...Provider) *Resolver {
	return &Resolver{
		providers: providers,
		logger:    logger.Named("nutrition"),
	}
}

// Resolve returns the first provider result, or instructive fallback text
// when all providers fail or report no data.
func (r *Resolver) Resolve(ctx context.Context, query string) string {
	for _, provider := range r.providers {
		result, err := provider.Lookup(ctx, query)
		if err == nil && result != "" {
			r.logger.Debug("nutrition lookup succeeded",
				logging.String("provider", provider.Name()))
			return result
		}
		if err != nil && !errors.Is(err, ErrNoData) {
			r.logger.Warn("nutrition provider failed",
				logging.String("provider", provider.Name()),
				logging.Error(err))
		}
	}
	return fallbackAdvice
}
