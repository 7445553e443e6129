package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	connectiondomain "github.com/venturebridge/venturebridge/internal/connection/domain"
)

type createConnectionRequest struct {
	InitiatorID string `json:"initiator_id"`
	RecipientID string `json:"recipient_id"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) CreateConnection(c *gin.Context) {
	var req createConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	initiatorID, err := snowflake.ParseString(strings.TrimSpace(req.InitiatorID))
	if err != nil {
		AbortWithError(c, newValidationError("initiator_id", "invalid_account", "malformed account id"))
		return
	}
	recipientID, err := snowflake.ParseString(strings.TrimSpace(req.RecipientID))
	if err != nil {
		AbortWithError(c, newValidationError("recipient_id", "invalid_account", "malformed account id"))
		return
	}

	// A caller acting under an account header may only initiate as itself.
	if actor, ok := actingAccount(c); ok && actor != initiatorID {
		AbortWithError(c, connectiondomain.ErrNotAuthorized)
		return
	}

	connectionID, err := s.store.CreateConnection(c.Request.Context(), initiatorID, recipientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": connectionID.String()}})
}

func (s *Server) GetConnectionStatus(c *gin.Context) {
	a, err := snowflake.ParseString(strings.TrimSpace(c.Query("a")))
	if err != nil {
		AbortWithError(c, newValidationError("a", "invalid_account", "malformed account id"))
		return
	}
	b, err := snowflake.ParseString(strings.TrimSpace(c.Query("b")))
	if err != nil {
		AbortWithError(c, newValidationError("b", "invalid_account", "malformed account id"))
		return
	}

	relationship, err := s.store.GetConnection(c.Request.Context(), a, b)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if relationship == nil {
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": encodeRelationship(relationship)})
}

func (s *Server) UpdateConnectionStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status := connectiondomain.Status(strings.TrimSpace(req.Status))
	switch status {
	case connectiondomain.StatusAccepted, connectiondomain.StatusDeclined,
		connectiondomain.StatusDisconnected, connectiondomain.StatusNone:
	default:
		AbortWithError(c, newValidationError("status", "invalid_status", "unknown status"))
		return
	}

	s.applyTransition(c, status)
}

func (s *Server) transition(status connectiondomain.Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.applyTransition(c, status)
	}
}

func (s *Server) applyTransition(c *gin.Context, status connectiondomain.Status) {
	id, conn, ok := s.loadConnection(c)
	if !ok {
		return
	}

	if actor, hasActor := actingAccount(c); hasActor {
		if err := authorizeTransition(conn, actor, status); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	if err := s.store.UpdateStatus(c.Request.Context(), id, status); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "status": string(status)}})
}

func (s *Server) CloseConnectionDeal(c *gin.Context) {
	id, conn, ok := s.loadConnection(c)
	if !ok {
		return
	}

	if actor, hasActor := actingAccount(c); hasActor && !isParticipant(conn, actor) {
		AbortWithError(c, connectiondomain.ErrNotAuthorized)
		return
	}

	if err := s.store.MarkDealClosed(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "deal_closed": true}})
}

func (s *Server) DeleteConnection(c *gin.Context) {
	id, conn, ok := s.loadConnection(c)
	if !ok {
		return
	}

	if actor, hasActor := actingAccount(c); hasActor && !isParticipant(conn, actor) {
		AbortWithError(c, connectiondomain.ErrNotAuthorized)
		return
	}

	if err := s.store.DeleteConnection(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": id.String(), "status": string(connectiondomain.StatusNone)}})
}

func (s *Server) loadConnection(c *gin.Context) (snowflake.ID, *connectiondomain.Connection, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_connection", "malformed connection id"))
		return 0, nil, false
	}

	conn, err := s.store.FindByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return 0, nil, false
	}
	return id, conn, true
}

// authorizeTransition enforces who may drive which transition: only the
// recipient accepts, either party declines a pending request, either party
// disconnects an accepted connection.
func authorizeTransition(conn *connectiondomain.Connection, actor snowflake.ID, status connectiondomain.Status) error {
	if !isParticipant(conn, actor) {
		return connectiondomain.ErrNotAuthorized
	}

	switch status {
	case connectiondomain.StatusAccepted:
		if conn.Status != connectiondomain.StatusPending {
			return connectiondomain.ErrNotFound
		}
		if actor == conn.InitiatorID {
			return connectiondomain.ErrNotAuthorized
		}
	case connectiondomain.StatusDeclined:
		if conn.Status != connectiondomain.StatusPending {
			return connectiondomain.ErrNotFound
		}
	case connectiondomain.StatusDisconnected, connectiondomain.StatusNone:
		if conn.Status != connectiondomain.StatusAccepted {
			return connectiondomain.ErrNotFound
		}
	}
	return nil
}

func isParticipant(conn *connectiondomain.Connection, actor snowflake.ID) bool {
	return actor == conn.InitiatorID || actor == conn.RecipientID
}

func encodeRelationship(r *connectiondomain.Relationship) gin.H {
	return gin.H{
		"connection_id": r.ConnectionID.String(),
		"initiator_id":  r.InitiatorID.String(),
		"recipient_id":  r.RecipientID.String(),
		"status":        string(r.Status),
		"deal_closed":   r.DealClosed,
	}
}
