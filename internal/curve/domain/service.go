package domain

import (
	"context"

	"gorm.io/gorm"
)

type CreateCurveRequest struct {
	NumPeriods    uint16 `json:"num_periods"`
	FormulaBase   uint8  `json:"formula_base"`
	PeriodSeconds uint32 `json:"period_seconds"`
	// StartTime is unix seconds; 0 anchors the curve at creation time.
	StartTime     int64 `json:"start_time,omitempty"`
	MinMultiplier uint8 `json:"min_multiplier"`
}

type Service interface {
	// WithTx returns a view of the service that reads through tx, so curve
	// lookups inside a caller's transaction see its snapshot and connection.
	WithTx(tx *gorm.DB) Service
	// Create registers an immutable curve and returns it with its assigned id.
	Create(ctx context.Context, req CreateCurveRequest) (Curve, error)
	Get(ctx context.Context, id uint8) (Curve, error)
	// CurrentMultiplier samples curve id at the ledger clock's now.
	CurrentMultiplier(ctx context.Context, id uint8) (uint64, error)
}
