package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/venturebridge/venturebridge/internal/tier"
)

// tierPayload is the wire form of a tier definition. Quotas serialize as
// integers with -1 meaning unbounded, matching the catalog file format.
type tierPayload struct {
	ID           string   `json:"id"`
	Role         string   `json:"role"`
	Name         string   `json:"name"`
	ProfileViews int64    `json:"profile_views"`
	Contacts     int64    `json:"contacts"`
	Features     []string `json:"features"`
	BasePrice    int64    `json:"base_price"`
	Popular      bool     `json:"popular"`
}

func (s *Server) ListTiers(c *gin.Context) {
	role := tier.Role(strings.TrimSpace(c.Query("role")))
	switch role {
	case tier.RoleProvider, tier.RoleSeeker, tier.RoleOperator:
	default:
		AbortWithError(c, newValidationError("role", "invalid_role", "unknown role"))
		return
	}

	defs := s.registry.List(role)
	payload := make([]tierPayload, 0, len(defs))
	for _, def := range defs {
		payload = append(payload, encodeTier(def))
	}

	c.JSON(http.StatusOK, gin.H{"data": payload})
}

func (s *Server) GetTierPrice(c *gin.Context) {
	id := tier.ID(strings.TrimSpace(c.Param("id")))
	role := tier.Role(strings.TrimSpace(c.Query("role")))
	region := strings.TrimSpace(c.Query("region"))

	def := s.registry.Get(id, role)
	price := s.localizer.FormatPrice(def.BasePrice, region)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"tier_id": string(def.ID),
		"region":  region,
		"symbol":  price.Symbol,
		"value":   price.Value,
	}})
}

func encodeTier(def tier.Definition) tierPayload {
	return tierPayload{
		ID:           string(def.ID),
		Role:         string(def.Role),
		Name:         def.Name,
		ProfileViews: encodeCount(def.Quotas.ProfileViews),
		Contacts:     encodeCount(def.Quotas.Contacts),
		Features:     def.Features,
		BasePrice:    def.BasePrice,
		Popular:      def.Popular,
	}
}

func encodeCount(count tier.Count) int64 {
	if count.IsUnbounded() {
		return -1
	}
	return count.Limit()
}
