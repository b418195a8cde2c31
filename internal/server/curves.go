package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	curvedomain "github.com/smallbiznis/tenura/internal/curve/domain"
)

func (s *Server) CreateCurve(c *gin.Context) {
	var req curvedomain.CreateCurveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.curveSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetCurve(c *gin.Context) {
	id, err := parseCurveID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.curveSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCurveMultiplier(c *gin.Context) {
	id, err := parseCurveID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	multiplier, err := s.curveSvc.CurrentMultiplier(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"curve_id": id, "multiplier": multiplier}})
}

func parseCurveID(raw string) (uint8, error) {
	id, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, ErrInvalidRequest
	}
	return uint8(id), nil
}
