package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/devservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dialog"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/export"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/metadata"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/query"
)

func TestRecorder_SessionAuditTrail(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s)
	ctx := context.Background()

	ds := devservice.SampleDataset()
	m := dialog.NewMachine(metadata.NewCache(ds, nil), query.NewExecutor(ds, nil), dialog.Config{}, nil)
	sess := dialog.NewSession(m, dialog.WithRecorder(rec), dialog.WithExporter(export.Dir{Path: t.TempDir()}))

	sess.HandleUserInput(ctx, "Rajasthan")
	sess.HandleUserInput(ctx, "Jaipur")
	sess.HandleUserInput(ctx, "2024")

	turns, err := s.ListTurns(ctx, sess.ID())
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "ASK_STATE", turns[0].FromState)
	assert.Equal(t, "ASK_DISTRICT_OR_LEVEL", turns[0].ToState)
	assert.Equal(t, "ASK_YEAR", turns[1].ToState)
	assert.Equal(t, "ASK_STATE", turns[2].ToState)

	var slots map[string]any
	require.NoError(t, json.Unmarshal([]byte(turns[1].SlotsJSON), &slots))
	assert.Equal(t, "Jaipur", slots["district"])

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, sess.ID(), runs[0].SessionID)
	assert.Equal(t, "Rajasthan", runs[0].State)
	assert.Equal(t, "Jaipur", runs[0].District)
	assert.Equal(t, []int{2024}, runs[0].Years)
	// Jaipur has blocks but no district-level figures in the sample data.
	assert.Equal(t, query.FailureNoData.String(), runs[0].Outcome)
	assert.Empty(t, runs[0].ResultJSON)
}

func TestRecorder_SuccessfulRunKeepsResult(t *testing.T) {
	s := newTestStore(t)
	rec := NewRecorder(s)
	ctx := context.Background()

	ds := devservice.SampleDataset()
	m := dialog.NewMachine(metadata.NewCache(ds, nil), query.NewExecutor(ds, nil), dialog.Config{}, nil)
	sess := dialog.NewSession(m, dialog.WithRecorder(rec))

	r := sess.ApplyAssistedSelection(ctx, dialog.Selection{State: "Punjab"})
	require.NotNil(t, r.Outcome)
	require.True(t, r.Outcome.OK())

	runs, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "ok", runs[0].Outcome)
	assert.Equal(t, "Punjab", runs[0].Location)
	assert.Contains(t, runs[0].ResultJSON, `"year":2024`)
}
