package di

import (
	"context"
	"math"
	"testing"

	"gopkg.in/yaml.v3"

	"SlipScope/internal/domain/models"
	"SlipScope/pkg/cache"
	"SlipScope/pkg/config"
	applogger "SlipScope/pkg/logger"
)

func TestProvideRebalanceServiceAppliesConfiguredCosts(t *testing.T) {
	var cfg config.Config
	raw := `
rebalance:
  tolerance: 1e-9
  costs:
    - alpha: 1.0
      beta: 2.0
    - alpha: 1.0
      beta: 2.0
`
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("config: %v", err)
	}

	lgr, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	mc := cache.NewMemoryCache()
	defer mc.Close()

	svc := ProvideRebalanceService(ProvideSolver(&cfg), nil, mc, nil, lgr, &cfg)

	sol, err := svc.Solve(context.Background(), &models.RebalanceRequest{
		Holdings:        []float64{50, 50},
		ExpectedReturns: []float64{2.0, 1.0},
		MinReturn:       1.8,
	})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	// optimal trade is [30, -30]; each unit weighted by 1+alpha = 2
	if math.Abs(sol.Objective-120) > 1e-6 {
		t.Fatalf("objective = %v, want 120", sol.Objective)
	}
	if math.Abs(sol.FixedCost-4) > 1e-12 {
		t.Fatalf("fixed cost = %v, want 4", sol.FixedCost)
	}
}
