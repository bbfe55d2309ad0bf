package battle

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartquizarena/arena/pkg/http/ws"
)

func newTestHandler(picker ProblemPicker, evaluator Evaluator) (*Handler, *fakeHub) {
	hub := newFakeHub()
	svc := NewService(NewRegistry(), hub, picker, evaluator, nil, zerolog.Nop())
	return NewHandler(svc, hub, zerolog.Nop()), hub
}

func errorCode(t *testing.T, msg ws.Message) string {
	t.Helper()
	var p ws.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	return p.Code
}

func TestHandlerRejectsUnknownType(t *testing.T) {
	h, hub := newTestHandler(&stubPicker{problem: fourCaseProblem()}, &scriptedJudge{})
	connID := uuid.New()

	require.NoError(t, h.HandleMessage(context.Background(), connID, ws.Message{Type: "answer"}))

	errs := hub.directMessages(connID, ws.TypeError)
	require.Len(t, errs, 1)
	assert.Equal(t, "unknown_message_type", errorCode(t, errs[0]))
}

func TestHandlerReportsProblemPickFailure(t *testing.T) {
	h, hub := newTestHandler(&stubPicker{err: errors.New("no problems seeded")}, &scriptedJudge{})
	connID := uuid.New()

	msg := ws.NewMessage(ws.TypeCreate, ws.CreateBattlePayload{Player: "alice"})
	require.NoError(t, h.HandleMessage(context.Background(), connID, msg))

	errs := hub.directMessages(connID, ws.TypeError)
	require.Len(t, errs, 1)
	assert.Equal(t, "room_creation_failed", errorCode(t, errs[0]))
}

func TestHandlerValidatesSubmitPayload(t *testing.T) {
	h, hub := newTestHandler(&stubPicker{problem: fourCaseProblem()}, &scriptedJudge{})
	connID := uuid.New()

	msg := ws.NewMessage(ws.TypeSubmit, ws.SubmitPayload{Room: "battle_111111", Player: "alice"})
	require.NoError(t, h.HandleMessage(context.Background(), connID, msg))

	errs := hub.directMessages(connID, ws.TypeError)
	require.Len(t, errs, 1)
	assert.Equal(t, "missing_field", errorCode(t, errs[0]))
}
