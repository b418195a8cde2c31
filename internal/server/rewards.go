package server

import (
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
	rewarddomain "github.com/smallbiznis/tenura/internal/reward/domain"
)

func (s *Server) GetRewardPool(c *gin.Context) {
	pool, err := s.rewardSvc.PoolDetail(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pool})
}

type allocateRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) AllocateRewards(c *gin.Context) {
	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.rewardSvc.Allocate(c.Request.Context(), amount); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"allocated": req.Amount}})
}

func (s *Server) GetRewardBalance(c *gin.Context) {
	account, err := parseAccountID(c.Param("account"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	balance, err := s.rewardSvc.BalanceOf(c.Request.Context(), account)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	holder, err := s.rewardSvc.HolderDetail(c.Request.Context(), account)
	if err != nil && err != rewarddomain.ErrNoSharesToBurn {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"account_id": account.String(),
		"balance":    balance.String(),
		"num_shares": holder.NumShares.String(),
	}})
}

func (s *Server) ClaimRewards(c *gin.Context) {
	account, err := parseAccountID(c.Param("account"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	claimed, err := s.rewardSvc.Claim(c.Request.Context(), account)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"claimed": claimed.String()}})
}

func (s *Server) BurnShares(c *gin.Context) {
	account, err := parseAccountID(c.Param("account"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	autoClaimed, err := s.rewardSvc.Burn(c.Request.Context(), account)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"auto_claimed": autoClaimed.String()}})
}
