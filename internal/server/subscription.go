package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/venturebridge/venturebridge/internal/accountctx"
	subscriptiondomain "github.com/venturebridge/venturebridge/internal/subscription/domain"
	"github.com/venturebridge/venturebridge/internal/tier"
)

type putSubscriptionRequest struct {
	Role     string         `json:"role,omitempty"`
	TierID   string         `json:"tier_id,omitempty"`
	Region   string         `json:"region,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (s *Server) GetSubscription(c *gin.Context) {
	ctx, ok := s.accountScope(c)
	if !ok {
		return
	}

	snapshot, err := s.subscriptionSvc.Get(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}

// PutSubscription registers or mutates the account's subscription record.
// Role registers a fresh record, tier and region update an existing one;
// the fields compose in that order within a single request.
func (s *Server) PutSubscription(c *gin.Context) {
	ctx, ok := s.accountScope(c)
	if !ok {
		return
	}

	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Role == "" && req.TierID == "" && req.Region == "" && req.Metadata == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var snapshot subscriptiondomain.Snapshot
	var err error

	if role := strings.TrimSpace(req.Role); role != "" {
		snapshot, err = s.subscriptionSvc.Register(ctx, tier.Role(role))
		if err != nil {
			AbortWithError(c, err)
			return
		}
	}
	if tierID := strings.TrimSpace(req.TierID); tierID != "" {
		snapshot, err = s.subscriptionSvc.SetTier(ctx, subscriptiondomain.SetTierRequest{TierID: tier.ID(tierID)})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		// Tier changes start a fresh entitlement period.
		if err := s.usageSvc.Reset(ctx); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	if region := strings.TrimSpace(req.Region); region != "" {
		snapshot, err = s.subscriptionSvc.SetRegion(ctx, subscriptiondomain.SetRegionRequest{Region: region})
		if err != nil {
			AbortWithError(c, err)
			return
		}
	}
	if req.Metadata != nil {
		snapshot, err = s.subscriptionSvc.SetMetadata(ctx, req.Metadata)
		if err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}

// accountScope binds the path account into the request context. A caller
// acting under an account header may only address its own account.
func (s *Server) accountScope(c *gin.Context) (context.Context, bool) {
	accountID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_account", "malformed account id"))
		return nil, false
	}

	if actor, hasActor := actingAccount(c); hasActor && actor != accountID {
		AbortWithError(c, ErrForbidden)
		return nil, false
	}

	return accountctx.WithAccountID(c.Request.Context(), accountID), true
}
