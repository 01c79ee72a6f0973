package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemTemplates(t *testing.T) {
	for _, system := range SystemNames() {
		names, ok := SystemTemplates[system]
		require.True(t, ok, "missing template for %s", system)
		assert.Len(t, names, 7, "%s template should have 7 checkpoints", system)
	}
	assert.True(t, IsValidSystem("Access Control"))
	assert.False(t, IsValidSystem("Intercom"))
}

func TestNewCheckpoints(t *testing.T) {
	checkpoints, err := NewCheckpoints("Fire Alarm")
	require.NoError(t, err)
	require.Len(t, checkpoints, 7)

	assert.Equal(t, "Detector Installation", checkpoints[0].Name)
	assert.Equal(t, "Alarm Test", checkpoints[6].Name)
	for _, cp := range checkpoints {
		assert.False(t, cp.Completed)
		assert.Nil(t, cp.Photo)
		assert.Nil(t, cp.CompletedAt)
	}
}

func TestNewCheckpointsUnknownSystem(t *testing.T) {
	_, err := NewCheckpoints("Intercom")
	assert.Error(t, err)
}

func TestNewCheckpointsCopiesTemplate(t *testing.T) {
	a, err := NewCheckpoints("CCTV")
	require.NoError(t, err)
	b, err := NewCheckpoints("CCTV")
	require.NoError(t, err)

	a[0].Completed = true
	assert.False(t, b[0].Completed, "lists from the same template must be independent")
}

func TestCheckpointListValueScan(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	original := CheckpointList{
		{Name: "Camera Mounting", Completed: true, CompletedAt: &now, Photo: &CheckpointPhoto{
			URL:        "https://files.example.com/uploads/proof/1.jpg",
			PublicID:   "proof/1",
			Folder:     "proof",
			UploadedAt: now,
			UploadedBy: "user@example.com",
		}},
		{Name: "Cable Routing"},
	}

	value, err := original.Value()
	require.NoError(t, err)

	var restored CheckpointList
	require.NoError(t, restored.Scan(value))
	assert.Equal(t, original, restored)
}

func TestCheckpointListScanNil(t *testing.T) {
	var cl CheckpointList
	require.NoError(t, cl.Scan(nil))
	assert.Empty(t, cl)
}

func TestCheckpointListNilValue(t *testing.T) {
	var cl CheckpointList
	value, err := cl.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), value)
}

func TestCheckpointListCounts(t *testing.T) {
	cl := CheckpointList{
		{Name: "a", Completed: true, Photo: &CheckpointPhoto{URL: "x"}},
		{Name: "b", Completed: true},
		{Name: "c"},
	}
	assert.Equal(t, 2, cl.CompletedCount())
	assert.Equal(t, 1, cl.PhotoCount())
}
