package ecs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"video-dispatcher/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRunTask struct {
	RunTaskFunc func(ctx context.Context, params *ecs.RunTaskInput) (*ecs.RunTaskOutput, error)
	inputs      []*ecs.RunTaskInput
}

func (m *mockRunTask) RunTask(ctx context.Context, params *ecs.RunTaskInput, _ ...func(*ecs.Options)) (*ecs.RunTaskOutput, error) {
	m.inputs = append(m.inputs, params)
	return m.RunTaskFunc(ctx, params)
}

func testRequest() *domain.TaskLaunchRequest {
	job := &domain.JobContext{
		LessonID:    "L1",
		CreatorID:   "C1",
		UploadID:    "U9",
		InputBucket: "vids-in",
		InputKey:    "raw/a+b.mp4",
	}
	return domain.NewTaskLaunchRequest(job, domain.LaunchSpec{
		Cluster:        "media",
		TaskDefinition: "video-processor:3",
		Subnets:        []string{"subnet-a"},
		SecurityGroups: []string{"sg-1"},
		ContainerName:  "video-processor",
		OutputBucket:   "vids-out",
		APIBaseURL:     "https://courses.example.com",
		APIKey:         "secret",
	})
}

func newTestLauncher(api RunTaskAPI) domain.TaskLauncher {
	return NewTaskLauncher(api, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRunTask_MapsRequest(t *testing.T) {
	api := &mockRunTask{RunTaskFunc: func(ctx context.Context, params *ecs.RunTaskInput) (*ecs.RunTaskOutput, error) {
		return &ecs.RunTaskOutput{Tasks: []types.Task{{TaskArn: aws.String("arn:aws:ecs:us-east-1:123456789012:task/media/abc")}}}, nil
	}}

	handle, err := newTestLauncher(api).RunTask(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.TaskHandle("arn:aws:ecs:us-east-1:123456789012:task/media/abc"), handle)

	require.Len(t, api.inputs, 1)
	in := api.inputs[0]
	assert.Equal(t, "media", aws.ToString(in.Cluster))
	assert.Equal(t, "video-processor:3", aws.ToString(in.TaskDefinition))
	assert.Equal(t, types.LaunchTypeFargate, in.LaunchType)

	vpc := in.NetworkConfiguration.AwsvpcConfiguration
	assert.Equal(t, []string{"subnet-a"}, vpc.Subnets)
	assert.Equal(t, []string{"sg-1"}, vpc.SecurityGroups)
	assert.Equal(t, types.AssignPublicIpEnabled, vpc.AssignPublicIp)

	require.Len(t, in.Overrides.ContainerOverrides, 1)
	override := in.Overrides.ContainerOverrides[0]
	assert.Equal(t, "video-processor", aws.ToString(override.Name))

	env := map[string]string{}
	var order []string
	for _, kv := range override.Environment {
		env[aws.ToString(kv.Name)] = aws.ToString(kv.Value)
		order = append(order, aws.ToString(kv.Name))
	}
	assert.Equal(t, []string{
		"INPUT_BUCKET", "INPUT_KEY", "OUTPUT_BUCKET", "LESSON_ID",
		"CREATOR_ID", "UPLOAD_ID", "API_BASE_URL", "API_KEY",
	}, order)
	assert.Equal(t, "raw/a+b.mp4", env["INPUT_KEY"])
	assert.Equal(t, "U9", env["UPLOAD_ID"])

	tags := map[string]string{}
	for _, tag := range in.Tags {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	assert.Equal(t, map[string]string{"LessonId": "L1", "CreatorId": "C1", "Purpose": "VideoProcessing"}, tags)
}

func TestRunTask_Failures(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		apiErr := errors.New("AccessDeniedException: not authorized to perform ecs:RunTask")
		api := &mockRunTask{RunTaskFunc: func(ctx context.Context, params *ecs.RunTaskInput) (*ecs.RunTaskOutput, error) {
			return nil, apiErr
		}}

		handle, err := newTestLauncher(api).RunTask(context.Background(), testRequest())
		assert.Empty(t, handle)
		var launchErr *domain.LaunchError
		require.ErrorAs(t, err, &launchErr)
		assert.Equal(t, "media", launchErr.Cluster)
		assert.ErrorIs(t, err, apiErr)
	})

	t.Run("no task started", func(t *testing.T) {
		api := &mockRunTask{RunTaskFunc: func(ctx context.Context, params *ecs.RunTaskInput) (*ecs.RunTaskOutput, error) {
			return &ecs.RunTaskOutput{Failures: []types.Failure{{
				Arn:    aws.String("arn:aws:ecs:us-east-1:123456789012:container-instance/x"),
				Reason: aws.String("RESOURCE:MEMORY"),
			}}}, nil
		}}

		handle, err := newTestLauncher(api).RunTask(context.Background(), testRequest())
		assert.Empty(t, handle)
		var launchErr *domain.LaunchError
		require.ErrorAs(t, err, &launchErr)
		assert.ErrorIs(t, err, domain.ErrNoTaskHandle)
		require.Len(t, launchErr.Reasons, 1)
		assert.Contains(t, launchErr.Reasons[0], "RESOURCE:MEMORY")
		assert.Contains(t, err.Error(), "RESOURCE:MEMORY")
	})

	t.Run("task without arn", func(t *testing.T) {
		api := &mockRunTask{RunTaskFunc: func(ctx context.Context, params *ecs.RunTaskInput) (*ecs.RunTaskOutput, error) {
			return &ecs.RunTaskOutput{Tasks: []types.Task{{}}}, nil
		}}

		_, err := newTestLauncher(api).RunTask(context.Background(), testRequest())
		assert.ErrorIs(t, err, domain.ErrNoTaskHandle)
	})
}
