package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/quizgate/internal/domain"
	"github.com/spec-kit/quizgate/internal/events"
)

func TestAuditServiceLogsEvents(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, zap.New(core)).RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventLoginSucceeded,
		events.Actor{SubjectID: "u1", Role: domain.RoleStudent},
		events.LoginPayload{Email: "bo@example.com"})))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventLoginFailed,
		events.Actor{}, events.LoginPayload{Email: "bo@example.com"})))

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "audit", entries[0].LoggerName)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "login_succeeded", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u1", fields["subject_id"])
	assert.Equal(t, "student", fields["role"])
	assert.Equal(t, "bo@example.com", fields["email"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.NotContains(t, entries[1].ContextMap(), "subject_id")
}
