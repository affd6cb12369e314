package venue

// TokenConfig describes the token minted for a single round.
type TokenConfig struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	URI      string `json:"uri"`
	Decimals int    `json:"decimals"`
	Supply   int64  `json:"supply"`
}

// Market is the result of creating a round token on the venue.
type Market struct {
	TokenID       string `json:"token_id"`
	CreationProof string `json:"creation_proof"`
}

// Pool is the result of seeding a liquidity pool for a round token.
type Pool struct {
	PoolID     string `json:"pool_id"`
	PositionID string `json:"position_id"`
	Proof      string `json:"proof"`
}
