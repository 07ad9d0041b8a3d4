package models

// Requests for cost analytics HTTP endpoints. Defined in domain for consistency and reuse.

type FeaturesRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	N        int    `query:"n" json:"n" default:"600" validate:"gte=1,lte=10000"`
	Window   string `query:"window" json:"window"`
	Lookback int    `query:"lookback" json:"lookback" validate:"gte=0,lte=1000"`
	// optional order context for the arrival cost feature
	PlacementPrice float64 `query:"placement_price" json:"placement_price" validate:"gte=0"`
	FillPrice      float64 `query:"fill_price" json:"fill_price" validate:"gte=0"`
}

// Order returns the order-fill context, or nil when absent.
func (r *FeaturesRequest) Order() *OrderFill {
	if r.PlacementPrice <= 0 || r.FillPrice <= 0 {
		return nil
	}
	return &OrderFill{PlacementPrice: r.PlacementPrice, FillPrice: r.FillPrice}
}

type ObservationsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type RebalanceRequest struct {
	Holdings        []float64   `json:"holdings" validate:"required,min=1"`
	ExpectedReturns []float64   `json:"expected_returns" validate:"required,min=1"`
	MinReturn       float64     `json:"min_return" validate:"required"`
	Costs           []AssetCost `json:"costs,omitempty"`
}

// PortfolioState converts the request into domain input.
func (r *RebalanceRequest) PortfolioState() PortfolioState {
	return PortfolioState{
		Holdings:        r.Holdings,
		ExpectedReturns: r.ExpectedReturns,
		MinReturn:       r.MinReturn,
	}
}
