// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/idea-engine/pkg/types"
)

// Runner is anything that can produce one domain result.
type Runner interface {
	Run(ctx context.Context, document string) (types.AgentResult, error)
}

// Coordinator runs the market, product, and business agents concurrently.
type Coordinator struct {
	market   Runner
	product  Runner
	business Runner
	logger   *slog.Logger
}

// NewCoordinator returns a coordinator over the three domain runners.
func NewCoordinator(market, product, business Runner, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{market: market, product: product, business: business, logger: logger}
}

// RunAll starts all three agents and waits for every one of them to finish.
// Agents are not cancelled when a sibling fails. If any agent fails the
// first error is returned and no partial result is produced. TotalDuration
// is the wall-clock time of the whole fan-out.
func (c *Coordinator) RunAll(ctx context.Context, document string) (types.FanOutResult, error) {
	start := time.Now()

	var (
		g                         errgroup.Group
		market, product, business types.AgentResult
	)
	launch := func(r Runner, out *types.AgentResult) {
		g.Go(func() error {
			res, err := r.Run(ctx, document)
			if err != nil {
				return err
			}
			*out = res
			return nil
		})
	}
	launch(c.market, &market)
	launch(c.product, &product)
	launch(c.business, &business)

	if err := g.Wait(); err != nil {
		return types.FanOutResult{}, err
	}

	result := types.FanOutResult{
		Market:        market,
		Product:       product,
		Business:      business,
		TotalDuration: time.Since(start),
		TotalCost:     market.TotalCost + product.TotalCost + business.TotalCost,
	}
	c.logger.Info("all agents completed",
		"duration", result.TotalDuration.Round(time.Millisecond),
		"cost", result.TotalCost)
	return result, nil
}
