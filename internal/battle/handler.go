package battle

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

// Handler routes battle WebSocket messages to the service.
type Handler struct {
	service *Service
	hub     Broadcaster
	logger  zerolog.Logger
}

func NewHandler(service *Service, hub Broadcaster, logger zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  logger.With().Str("component", "battle_handler").Logger(),
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
	case ws.TypeSubmit:
		return h.handleSubmit(ctx, connID, msg.Payload)
	default:
		h.sendError(connID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type %q", msg.Type))
		return nil
	}
}

func (h *Handler) handleCreate(ctx context.Context, connID uuid.UUID, raw json.RawMessage) error {
	var p ws.CreateBattlePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Malformed create payload")
		return nil
	}
	if p.Player == "" {
		h.sendError(connID, httperrors.ErrCodeMissingField, "Player name is required")
		return nil
	}

	if _, err := h.service.Create(ctx, connID, p); err != nil {
		h.logger.Error().Err(err).Msg("battle room creation failed")
		h.sendError(connID, httperrors.ErrCodeRoomCreationFailed, "Could not create battle room")
	}
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

func (h *Handler) handleSubmit(ctx context.Context, connID uuid.UUID, raw json.RawMessage) error {
	var p ws.SubmitPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Malformed submit payload")
		return nil
	}
	if p.Room == "" || p.Player == "" || p.SourceCode == "" || p.LanguageID <= 0 {
		h.sendError(connID, httperrors.ErrCodeMissingField, "Room, player, source code and language are required")
		return nil
	}

	h.service.Submit(ctx, connID, p)
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
