package airuns

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/echo-journal/echo-backend/pkg/db/models"
	"github.com/echo-journal/echo-backend/pkg/enums"
)

func TestToRunOutCarriesRawPayloads(t *testing.T) {
	t.Parallel()

	transcript := `{"text":"hello there","segments":[{"start":0,"end":1.2}]}`
	metrics := `{"elapsed_sec":3.4}`
	keypoints := `["slept well","morning walk"]`
	run := &models.AIRun{
		ID:              7,
		EntryID:         uuid.New(),
		Status:          enums.RunStatusDone,
		RequestedAt:     time.Now().UTC(),
		TasksJSON:       `["transcribe","summarize"]`,
		PipelineVersion: "v3.a",
		TranscriptJSON:  &transcript,
		KeypointsJSON:   &keypoints,
		MetricsJSON:     &metrics,
	}

	out := ToRunOut(run)
	assert.JSONEq(t, transcript, string(out.TranscriptJSON))
	assert.JSONEq(t, metrics, string(out.Metrics))
	assert.Equal(t, []string{"slept well", "morning walk"}, out.Keypoints)
}

func TestToRunOutOmitsAbsentPayloads(t *testing.T) {
	t.Parallel()

	run := &models.AIRun{
		ID:              8,
		EntryID:         uuid.New(),
		Status:          enums.RunStatusPending,
		RequestedAt:     time.Now().UTC(),
		TasksJSON:       `["transcribe"]`,
		PipelineVersion: "v3.a",
	}

	out := ToRunOut(run)
	assert.Nil(t, out.TranscriptJSON)
	assert.Nil(t, out.Metrics)
	assert.Nil(t, out.Keypoints)
}
