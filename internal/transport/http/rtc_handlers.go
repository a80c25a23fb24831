package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/telecare/session-server/internal/gate"
	"github.com/telecare/session-server/internal/session"
)

// RTCHandlers provides HTTP handlers for the admission endpoints.
type RTCHandlers struct {
	gate *gate.Gate
	reg  *session.Registry
	log  *zerolog.Logger
}

// NewRTCHandlers creates a new RTC handlers instance.
func NewRTCHandlers(g *gate.Gate, reg *session.Registry, logger *zerolog.Logger) *RTCHandlers {
	return &RTCHandlers{
		gate: g,
		reg:  reg,
		log:  logger,
	}
}

// GetToken evaluates the join request and returns an admission token.
// GET /api/rtc/token/:encounterID
func (h *RTCHandlers) GetToken(c *gin.Context) {
	subjectID, role, ok := subjectFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	encounterID, err := strconv.ParseInt(c.Param("encounterID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid encounter id"})
		return
	}

	adm, err := h.gate.Admit(c.Request.Context(), subjectID, role, encounterID)
	if err != nil {
		var denial *gate.Error
		if errors.As(err, &denial) {
			c.JSON(statusForDenial(denial), gin.H{"error": denial.Message, "code": denial.Code})
			return
		}
		h.log.Error().Err(err).Int64("subject_id", subjectID).Int64("encounter_id", encounterID).Msg("admission failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, adm)
}

// statusForDenial maps classified denials to distinguishable HTTP statuses
// so the client can decide to retry later or stop.
func statusForDenial(denial *gate.Error) int {
	switch denial.Code {
	case gate.CodeEncounterNotFound:
		return http.StatusNotFound
	case gate.CodeNotParticipant:
		return http.StatusForbidden
	case gate.CodeNotJoinable:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// JoinRoom records that the subject entered the A/V room.
// POST /api/rtc/join/:encounterID
func (h *RTCHandlers) JoinRoom(c *gin.Context) {
	subjectID, _, ok := subjectFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	encounterID, err := strconv.ParseInt(c.Param("encounterID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid encounter id"})
		return
	}

	h.log.Info().Int64("subject_id", subjectID).Int64("encounter_id", encounterID).Msg("subject joined rtc room")
	c.Status(http.StatusNoContent)
}

// LeaveRoom records that the subject left the A/V room.
// POST /api/rtc/leave/:encounterID
func (h *RTCHandlers) LeaveRoom(c *gin.Context) {
	subjectID, _, ok := subjectFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	encounterID, err := strconv.ParseInt(c.Param("encounterID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid encounter id"})
		return
	}

	h.log.Info().Int64("subject_id", subjectID).Int64("encounter_id", encounterID).Msg("subject left rtc room")
	c.Status(http.StatusNoContent)
}

// Online reports the current number of open connections.
// GET /api/rtc/online
func (h *RTCHandlers) Online(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": h.reg.Count()})
}
