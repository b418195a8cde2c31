package domain

import "context"

type CreateTierRequest struct {
	PeriodDurationSeconds int64          `json:"period_duration_seconds"`
	MaxSupply             uint32         `json:"max_supply"`
	MaxCommitmentSeconds  int64          `json:"max_commitment_seconds"`
	StartTime             int64          `json:"start_time"`
	EndTime               int64          `json:"end_time"`
	CurveID               uint8          `json:"curve_id"`
	RewardBasisPoints     uint16         `json:"reward_basis_points"`
	Paused                bool           `json:"paused"`
	Transferable          bool           `json:"transferable"`
	InitialMintPrice      int64          `json:"initial_mint_price"`
	PricePerPeriod        int64          `json:"price_per_period"`
	GateRef               string         `json:"gate_ref"`
	Metadata              map[string]any `json:"metadata,omitempty"`
}

type UpdateTierRequest struct {
	ID uint16 `json:"-"`
	CreateTierRequest
}

type Service interface {
	Create(ctx context.Context, req CreateTierRequest) (Tier, error)
	// Update replaces a tier's configuration. The live subscriber count is
	// preserved and the new supply cap may not undercut it.
	Update(ctx context.Context, req UpdateTierRequest) (Tier, error)
	Get(ctx context.Context, id uint16) (Tier, error)
	List(ctx context.Context) ([]Tier, error)
}
