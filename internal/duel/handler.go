package duel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartquizarena/arena/internal/metrics"
	"github.com/smartquizarena/arena/internal/room"
	httperrors "github.com/smartquizarena/arena/pkg/http/errors"
	"github.com/smartquizarena/arena/pkg/http/ws"
)

// Handler routes duel WebSocket messages to the service. Invalid input is
// answered on the sender's connection with an error envelope; game no-ops
// (late answers, duplicates) are silently ignored by the service itself.
type Handler struct {
	service *Service
	hub     Broadcaster
	logger  zerolog.Logger
}

func NewHandler(service *Service, hub Broadcaster, logger zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  logger.With().Str("component", "duel_handler").Logger(),
	}
}

// HandleMessage dispatches one inbound message from connID.
func (h *Handler) HandleMessage(ctx context.Context, connID uuid.UUID, msg ws.Message) error {
	metrics.WSMessages.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case ws.TypeCreate:
		return h.handleCreate(ctx, connID, msg.Payload)
	case ws.TypeJoin:
		return h.handleJoin(ctx, connID, msg.Payload)
	case ws.TypeAnswer:
		return h.handleAnswer(ctx, connID, msg.Payload)
	default:
		h.sendError(connID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type %q", msg.Type))
		return nil
	}
}

func (h *Handler) handleCreate(ctx context.Context, connID uuid.UUID, raw json.RawMessage) error {
	var p ws.CreateDuelPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Malformed create payload")
		return nil
	}
	if p.Player == "" {
		h.sendError(connID, httperrors.ErrCodeMissingField, "Player name is required")
		return nil
	}

	h.service.Create(ctx, connID, p)
	return nil
}

func (h *Handler) handleJoin(ctx context.Context, connID uuid.UUID, raw json.RawMessage) error {
	var p ws.JoinPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Malformed join payload")
		return nil
	}
	if p.Room == "" || p.Player == "" {
		h.sendError(connID, httperrors.ErrCodeMissingField, "Room code and player name are required")
		return nil
	}

	switch err := h.service.Join(ctx, connID, p); {
	case errors.Is(err, room.ErrNotFound):
		h.sendError(connID, httperrors.ErrCodeRoomNotFound, err.Error())
	case errors.Is(err, room.ErrFull):
		h.sendError(connID, httperrors.ErrCodeRoomFull, err.Error())
	case err != nil:
		h.logger.Error().Err(err).Str("room_id", p.Room).Msg("join failed")
		h.sendError(connID, httperrors.ErrCodeJoinFailed, "Could not join room")
	}
	return nil
}

func (h *Handler) handleAnswer(ctx context.Context, connID uuid.UUID, raw json.RawMessage) error {
	var p ws.AnswerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Malformed answer payload")
		return nil
	}
	if p.Room == "" || p.Player == "" {
		h.sendError(connID, httperrors.ErrCodeMissingField, "Room code and player name are required")
		return nil
	}

	h.service.Answer(ctx, p)
	return nil
}

func (h *Handler) sendError(connID uuid.UUID, code, message string) {
	err := h.hub.Send(connID, ws.NewMessage(ws.TypeError, ws.ErrorPayload{
		Code:    code,
		Message: message,
	}))
	if err != nil {
		h.logger.Warn().Err(err).Str("conn_id", connID.String()).Msg("error reply failed")
	}
}
