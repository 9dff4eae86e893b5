package seed

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"missionboard/internal/domain"
)

func TestLoadEmbedded(t *testing.T) {
	data, err := Load(zap.NewNop())
	require.NoError(t, err)

	require.Len(t, data.Missions, 14)
	assert.Len(t, data.Payments, 6)
	assert.Len(t, data.Users, 3)
	assert.Equal(t, 14, data.Dashboard.TotalMissions)

	first := data.Missions[0]
	assert.Equal(t, "m-001", first.ID)
	assert.Equal(t, "Refactor API", first.Title)
	assert.Equal(t, domain.TypeLong, first.Type)
	assert.Equal(t, time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC), first.CreatedAt.UTC())
	require.Len(t, first.Steps, 3)
	require.NotNil(t, first.Steps[0].AssigneeID)
	assert.Equal(t, "u-02", *first.Steps[0].AssigneeID)
	assert.Nil(t, first.Steps[1].AssigneeID)

	var open int
	for _, m := range data.Missions {
		if m.Status == domain.StatusOpen {
			open++
		}
	}
	assert.Equal(t, data.Dashboard.OpenMissions, open)

	for _, p := range data.Payments {
		if p.Type == domain.PaymentDeferred {
			assert.NotNil(t, p.UnlockDate, p.ID)
		}
		if p.Status == domain.PaymentCompleted {
			assert.NotNil(t, p.TxHash, p.ID)
		}
	}
}

const validMission = `
  - id: ok
    title: Valid
    category: Design
    reward: 10
    created_at: 2026-01-01T00:00:00Z
    deadline: 2026-02-01T00:00:00Z
    status: open
    type: short
    difficulty: easy
    max_candidates: 1
`

func TestLoadFSSkipsInvalidEntries(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	fsys := fstest.MapFS{
		MissionsFile: {Data: []byte("missions:" + validMission + `
  - id: bad-status
    title: Broken
    status: archived
    type: short
    difficulty: easy
    max_candidates: 1
  - id: ""
    title: No id
  - id: ok
    title: Duplicate
    status: open
    type: short
    difficulty: easy
    max_candidates: 1
`)},
		PaymentsFile: {Data: []byte(`payments:
  - id: p1
    mission_id: ok
    user_id: u
    amount: 5
    type: immediate
    status: pending
    created_at: 2026-01-02T00:00:00Z
  - id: p2
    mission_id: ghost
    user_id: u
    amount: 5
    type: immediate
    status: pending
  - id: p3
    mission_id: ok
    user_id: u
    amount: 5
    type: deferred
    status: pending
`)},
	}

	data, err := LoadFS(fsys, zap.New(core))
	require.NoError(t, err)

	require.Len(t, data.Missions, 1)
	assert.Equal(t, "Valid", data.Missions[0].Title)
	require.Len(t, data.Payments, 1)
	assert.Equal(t, "p1", data.Payments[0].ID)
	assert.Empty(t, data.Users)

	assert.Equal(t, 2, logs.FilterMessage("skipping mission").Len())
	assert.Equal(t, 1, logs.FilterMessage("skipping duplicate mission").Len())
	assert.Equal(t, 2, logs.FilterMessage("skipping payment").Len())
	assert.Equal(t, 1, logs.FilterMessage("seed file missing").Len())
}

func TestLoadFSRequiresMissions(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), MissionsFile)

	_, err = LoadFS(fstest.MapFS{MissionsFile: {Data: []byte("missions: [")}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, MissionsFile), []byte("missions:"+validMission), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, StatsFile), []byte(`dashboard:
  total_missions: 1
users:
  - user_id: u-1
    rank: 1
  - user_id: u-1
    rank: 2
`), 0o644))

	data, err := LoadDir(dir, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, data.Missions, 1)
	assert.Equal(t, 1, data.Dashboard.TotalMissions)
	require.Len(t, data.Users, 1)
	assert.Equal(t, 1, data.Users[0].Rank)

	_, err = LoadDir(filepath.Join(dir, "missing"), nil)
	require.Error(t, err)
}
