package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/smallbiznis/tenura/internal/subscription/domain"
)

func (s *Server) Purchase(c *gin.Context) {
	var req subscriptiondomain.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.subscriptionSvc.Purchase(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) Grant(c *gin.Context) {
	var req subscriptiondomain.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.subscriptionSvc.Grant(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RevokeTime(c *gin.Context) {
	account, err := parseAccountID(c.Param("account"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	revoked, err := s.subscriptionSvc.RevokeTime(c.Request.Context(), account)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"seconds_revoked": revoked}})
}

type refundRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) Refund(c *gin.Context) {
	account, err := parseAccountID(c.Param("account"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.subscriptionSvc.Refund(c.Request.Context(), account, req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type switchTierRequest struct {
	TierID uint16 `json:"tier_id"`
}

func (s *Server) SwitchTier(c *gin.Context) {
	account, err := parseAccountID(c.Param("account"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req switchTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.subscriptionSvc.SwitchTier(c.Request.Context(), account, req.TierID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) Deactivate(c *gin.Context) {
	account, err := parseAccountID(c.Param("account"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.subscriptionSvc.Deactivate(c.Request.Context(), account); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deactivated": true}})
}

func (s *Server) GetSubscription(c *gin.Context) {
	account, err := parseAccountID(c.Param("account"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.subscriptionSvc.Detail(c.Request.Context(), account)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRemainingSeconds(c *gin.Context) {
	account, err := parseAccountID(c.Param("account"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	remaining, err := s.subscriptionSvc.RemainingSeconds(c.Request.Context(), account)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"remaining_seconds": remaining}})
}

func parseAccountID(raw string) (snowflake.ID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidRequest
	}
	return snowflake.ID(id), nil
}
