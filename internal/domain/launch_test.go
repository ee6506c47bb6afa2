package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskLaunchRequest(t *testing.T) {
	job := &JobContext{LessonID: "L1", CreatorID: "C1", InputBucket: "vids-in", InputKey: "raw/a b.mp4"}
	spec := LaunchSpec{
		Cluster:        "media",
		TaskDefinition: "video-processor:3",
		Subnets:        []string{"subnet-a"},
		SecurityGroups: []string{"sg-1"},
		OutputBucket:   "vids-out",
		APIBaseURL:     "https://courses.example.com",
		APIKey:         "secret",
	}

	req := NewTaskLaunchRequest(job, spec)

	assert.Equal(t, "media", req.Cluster)
	assert.Equal(t, "video-processor:3", req.TaskDefinition)
	assert.Equal(t, LaunchTypeFargate, req.LaunchType)
	assert.Equal(t, DefaultContainerName, req.ContainerName)
	assert.True(t, req.Network.AssignPublicIP)
	assert.Equal(t, []string{"subnet-a"}, req.Network.Subnets)

	assert.Equal(t, []EnvVar{
		{EnvInputBucket, "vids-in"},
		{EnvInputKey, "raw/a b.mp4"},
		{EnvOutputBucket, "vids-out"},
		{EnvLessonID, "L1"},
		{EnvCreatorID, "C1"},
		{EnvUploadID, ""},
		{EnvAPIBaseURL, "https://courses.example.com"},
		{EnvAPIKey, "secret"},
	}, req.Environment)

	assert.Equal(t, []Tag{
		{"LessonId", "L1"},
		{"CreatorId", "C1"},
		{"Purpose", "VideoProcessing"},
	}, req.Tags)

	v, ok := req.Env(EnvLessonID)
	assert.True(t, ok)
	assert.Equal(t, "L1", v)
	_, ok = req.Env("NOPE")
	assert.False(t, ok)

	t.Run("same inputs give the same request", func(t *testing.T) {
		assert.Equal(t, req, NewTaskLaunchRequest(job, spec))
	})

	t.Run("subnet slices are copied", func(t *testing.T) {
		req.Network.Subnets[0] = "changed"
		assert.Equal(t, "subnet-a", spec.Subnets[0])
	})
}

func TestLaunchError(t *testing.T) {
	err := &LaunchError{Cluster: "media", TaskDefinition: "vp:3", Reasons: []string{"RESOURCE:MEMORY"}, Err: ErrNoTaskHandle}
	assert.ErrorIs(t, err, ErrNoTaskHandle)
	assert.Contains(t, err.Error(), "vp:3")
	assert.Contains(t, err.Error(), "RESOURCE:MEMORY")
}

func TestBatchResult(t *testing.T) {
	job := &JobContext{LessonID: "L1", InputBucket: "b", InputKey: "k1"}
	first := errors.New("first")

	res := &BatchResult{Outcomes: []RecordOutcome{
		Launched(job, "arn:1"),
		Skipped("b", "k2", errors.New("missing")),
		Failed("b", "k3", "L3", first),
		Failed("b", "k4", "L4", errors.New("second")),
	}}

	require.True(t, res.Failed())
	assert.Equal(t, first, res.Err())
	assert.Equal(t, 1, res.Count(OutcomeLaunched))
	assert.Equal(t, 1, res.Count(OutcomeSkipped))
	assert.Equal(t, 2, res.Count(OutcomeFailed))

	assert.NoError(t, (&BatchResult{Outcomes: []RecordOutcome{Skipped("b", "k", errors.New("x"))}}).Err())
}
