package domain

import "context"

// Fixed launch parameters.
const (
	LaunchTypeFargate    = "FARGATE"
	DefaultContainerName = "video-processor"
	PurposeTagValue      = "VideoProcessing"
)

// Environment variable names handed to the processing container.
const (
	EnvInputBucket  = "INPUT_BUCKET"
	EnvInputKey     = "INPUT_KEY"
	EnvOutputBucket = "OUTPUT_BUCKET"
	EnvLessonID     = "LESSON_ID"
	EnvCreatorID    = "CREATOR_ID"
	EnvUploadID     = "UPLOAD_ID"
	EnvAPIBaseURL   = "API_BASE_URL"
	EnvAPIKey       = "API_KEY"
)

// TaskHandle identifies a launched compute task (an ECS task ARN). It is opaque to the dispatcher.
type TaskHandle string

func (h TaskHandle) String() string { return string(h) }

// LaunchSpec is the static part of every launch request, loaded once at startup.
type LaunchSpec struct {
	Cluster        string
	TaskDefinition string
	Subnets        []string
	SecurityGroups []string
	ContainerName  string
	OutputBucket   string
	APIBaseURL     string
	APIKey         string
}

// NetworkPlacement describes where the task runs. AssignPublicIP is always
// true: the task pulls its image from a public registry.
type NetworkPlacement struct {
	Subnets        []string
	SecurityGroups []string
	AssignPublicIP bool
}

// EnvVar is one environment override for the processing container.
type EnvVar struct {
	Name  string
	Value string
}

// Tag is a key/value label attached to the launched task.
type Tag struct {
	Key   string
	Value string
}

// TaskLaunchRequest holds the parameters for one compute task launch.
type TaskLaunchRequest struct {
	Cluster        string
	TaskDefinition string
	LaunchType     string
	Network        NetworkPlacement
	ContainerName  string
	Environment    []EnvVar
	Tags           []Tag
}

// NewTaskLaunchRequest derives a launch request from a job and the static launch spec.
// The result depends only on its inputs.
func NewTaskLaunchRequest(job *JobContext, spec LaunchSpec) *TaskLaunchRequest {
	container := spec.ContainerName
	if container == "" {
		container = DefaultContainerName
	}
	return &TaskLaunchRequest{
		Cluster:        spec.Cluster,
		TaskDefinition: spec.TaskDefinition,
		LaunchType:     LaunchTypeFargate,
		Network: NetworkPlacement{
			Subnets:        append([]string(nil), spec.Subnets...),
			SecurityGroups: append([]string(nil), spec.SecurityGroups...),
			AssignPublicIP: true,
		},
		ContainerName: container,
		Environment: []EnvVar{
			{Name: EnvInputBucket, Value: job.InputBucket},
			{Name: EnvInputKey, Value: job.InputKey},
			{Name: EnvOutputBucket, Value: spec.OutputBucket},
			{Name: EnvLessonID, Value: job.LessonID},
			{Name: EnvCreatorID, Value: job.CreatorID},
			{Name: EnvUploadID, Value: job.UploadID},
			{Name: EnvAPIBaseURL, Value: spec.APIBaseURL},
			{Name: EnvAPIKey, Value: spec.APIKey},
		},
		Tags: []Tag{
			{Key: "LessonId", Value: job.LessonID},
			{Key: "CreatorId", Value: job.CreatorID},
			{Key: "Purpose", Value: PurposeTagValue},
		},
	}
}

// Env returns the value of the named environment override.
func (r *TaskLaunchRequest) Env(name string) (string, bool) {
	for _, e := range r.Environment {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// TaskLauncher starts processing tasks on the compute cluster.
type TaskLauncher interface {
	// RunTask launches a task and returns its handle. Rejections and malformed
	// responses are reported as *LaunchError.
	RunTask(ctx context.Context, req *TaskLaunchRequest) (TaskHandle, error)
}
