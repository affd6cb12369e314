package venue

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/do/v2"
)

// SimulatedVenue stands in for the on-chain venue. It hands out opaque ids
// and proofs without touching a chain, which is all the lifecycle engine
// needs outside production.
type SimulatedVenue struct {
	Logger *slog.Logger
}

func NewVenueService(i do.Injector) (*SimulatedVenue, error) {
	logger := do.MustInvokeNamed[*slog.Logger](i, "logger")

	return &SimulatedVenue{
		Logger: logger.With("component", "venue"),
	}, nil
}

func (v *SimulatedVenue) CreateMarket(_ context.Context, cfg TokenConfig) (Market, error) {
	market := Market{
		TokenID:       "TOKEN-" + uuid.NewString(),
		CreationProof: "sim-" + uuid.NewString(),
	}

	v.Logger.Info("created market",
		"symbol", cfg.Symbol,
		"token_id", market.TokenID,
	)

	return market, nil
}

func (v *SimulatedVenue) CreatePool(_ context.Context, tokenID string, baseAmount, quoteAmount float64) (Pool, error) {
	pool := Pool{
		PoolID:     "POOL-" + uuid.NewString(),
		PositionID: "POS-" + uuid.NewString(),
		Proof:      "sim-" + uuid.NewString(),
	}

	v.Logger.Info("created pool",
		"token_id", tokenID,
		"pool_id", pool.PoolID,
		"base_amount", baseAmount,
		"quote_amount", quoteAmount,
	)

	return pool, nil
}

func (v *SimulatedVenue) WithdrawAllLiquidity(_ context.Context, poolID, positionID string) (string, error) {
	proof := "sim-" + uuid.NewString()

	v.Logger.Info("withdrew liquidity",
		"pool_id", poolID,
		"position_id", positionID,
	)

	return proof, nil
}
