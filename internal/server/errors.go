package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tenura/internal/currency"
	curvedomain "github.com/smallbiznis/tenura/internal/curve/domain"
	"github.com/smallbiznis/tenura/internal/gate"
	rewarddomain "github.com/smallbiznis/tenura/internal/reward/domain"
	subscriptiondomain "github.com/smallbiznis/tenura/internal/subscription/domain"
	tierdomain "github.com/smallbiznis/tenura/internal/tier/domain"
	pkgdb "github.com/smallbiznis/tenura/pkg/db"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware renders the last collected error once the handler
// chain finishes, unless a response was already written.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// preconditionErrors are domain rejections surfaced verbatim to the caller:
// the operation committed nothing and may be retried with different input.
var preconditionErrors = []error{
	tierdomain.ErrTierNotStarted,
	tierdomain.ErrTierHasNoSupply,
	tierdomain.ErrTierInvalidMintPrice,
	tierdomain.ErrTierRenewalsPaused,
	tierdomain.ErrTierInvalidRenewalPrice,
	tierdomain.ErrMaxCommitmentExceeded,
	tierdomain.ErrTierEndExceeded,
	tierdomain.ErrTierInvalidSupplyCap,
	tierdomain.ErrTierInvalidDuration,
	tierdomain.ErrTierInvalidTiming,
	tierdomain.ErrTierInvalidRewardBps,
	tierdomain.ErrTierIDsExhausted,
	subscriptiondomain.ErrGrantInvalidTime,
	subscriptiondomain.ErrDeactivationFailure,
	subscriptiondomain.ErrNothingToRefund,
	subscriptiondomain.ErrInvalidAccount,
	curvedomain.ErrCurveInvalid,
	rewarddomain.ErrInvalidHolder,
	rewarddomain.ErrInvalidShares,
	rewarddomain.ErrInvalidAmount,
	rewarddomain.ErrAllocationWithoutShares,
	rewarddomain.ErrNothingToClaim,
	rewarddomain.ErrNoSharesToBurn,
	currency.ErrInvalidAmount,
	gate.ErrAccountIneligible,
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}
	case errors.Is(err, tierdomain.ErrTierNotFound),
		errors.Is(err, curvedomain.ErrCurveNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    err.Error(),
			Message: "resource not found",
		}
	case errors.Is(err, currency.ErrInsufficientFunds):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "payment_failed",
			Code:    err.Error(),
			Message: "insufficient funds",
		}
	case pkgdb.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "resource already exists",
		}
	}

	for _, sentinel := range preconditionErrors {
		if errors.Is(err, sentinel) {
			return http.StatusUnprocessableEntity, errorPayload{
				Type:    "precondition_failed",
				Code:    sentinel.Error(),
				Message: "operation rejected",
			}
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}
