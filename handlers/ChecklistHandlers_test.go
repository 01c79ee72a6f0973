package handlers

import (
	"testing"
	"time"

	"backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleCheckpointSetsCompletedAt(t *testing.T) {
	cp := models.Checkpoint{Name: "EM Lock Installation"}

	toggleCheckpoint(&cp, true)
	assert.True(t, cp.Completed)
	require.NotNil(t, cp.CompletedAt)
	assert.WithinDuration(t, time.Now(), *cp.CompletedAt, time.Second)

	toggleCheckpoint(&cp, false)
	assert.False(t, cp.Completed)
	assert.Nil(t, cp.CompletedAt)
}

func TestToggleCheckpointKeepsPhotoAcrossUntoggle(t *testing.T) {
	photo := &models.CheckpointPhoto{
		URL:        "https://files.example.com/uploads/proof/1700000000-door.jpg",
		PublicID:   "proof/1700000000-door",
		Folder:     "proof",
		UploadedAt: time.Now(),
		UploadedBy: "user@example.com",
	}
	cp := models.Checkpoint{Name: "Door Contact", Completed: true, Photo: photo}

	toggleCheckpoint(&cp, false)
	assert.Same(t, photo, cp.Photo)

	toggleCheckpoint(&cp, true)
	assert.Same(t, photo, cp.Photo)
	assert.True(t, cp.Completed)
}
