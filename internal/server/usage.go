package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetUsage(c *gin.Context) {
	ctx, ok := s.accountScope(c)
	if !ok {
		return
	}

	summary, err := s.usageSvc.Get(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
