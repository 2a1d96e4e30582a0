package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicer/internal/pricing"
)

type pricingView struct {
	ProtocolTiers      []pricing.PriceTier    `json:"protocol_tiers"`
	VisitDiscountTiers []pricing.DiscountTier `json:"visit_discount_tiers"`
	pricing.Rates
}

func (s *Server) GetPricing(c *gin.Context) {
	schedule := s.pricing.Schedule()
	c.JSON(http.StatusOK, gin.H{"data": pricingView{
		ProtocolTiers:      schedule.ProtocolTiers(),
		VisitDiscountTiers: schedule.DiscountTiers(),
		Rates:              schedule.Rates(),
	}})
}

func (s *Server) Quote(c *gin.Context) {
	var req pricing.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.invoiceSvc.Quote(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) GetDashboard(c *gin.Context) {
	stats, err := s.invoiceSvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}
