package ecs

import (
	"context"
	"fmt"
	"log/slog"

	"video-dispatcher/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RunTaskAPI is the part of the ECS client the launcher needs.
type RunTaskAPI interface {
	RunTask(ctx context.Context, params *ecs.RunTaskInput, optFns ...func(*ecs.Options)) (*ecs.RunTaskOutput, error)
}

type ecsTaskLauncher struct {
	api    RunTaskAPI
	logger *slog.Logger
	tracer trace.Tracer
}

// NewEcsTaskLauncher builds a launcher from the default AWS credential chain.
func NewEcsTaskLauncher(ctx context.Context, region string, logger *slog.Logger) (domain.TaskLauncher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewTaskLauncher(ecs.NewFromConfig(cfg), logger), nil
}

// NewTaskLauncher wraps an existing ECS client.
func NewTaskLauncher(api RunTaskAPI, logger *slog.Logger) domain.TaskLauncher {
	return &ecsTaskLauncher{
		api:    api,
		logger: logger.With("component", "ecs-launcher"),
		tracer: otel.Tracer("video-dispatcher-ecs"),
	}
}

// RunTask starts one Fargate task and returns its ARN.
func (l *ecsTaskLauncher) RunTask(ctx context.Context, req *domain.TaskLaunchRequest) (domain.TaskHandle, error) {
	ctx, span := l.tracer.Start(ctx, "ecs.RunTask", trace.WithAttributes(
		attribute.String("ecs.cluster", req.Cluster),
		attribute.String("ecs.task_definition", req.TaskDefinition),
	))
	defer span.End()

	out, err := l.api.RunTask(ctx, toInput(req))
	if err != nil {
		return "", l.fail(span, &domain.LaunchError{Cluster: req.Cluster, TaskDefinition: req.TaskDefinition, Err: err})
	}

	if len(out.Tasks) == 0 || aws.ToString(out.Tasks[0].TaskArn) == "" {
		launchErr := &domain.LaunchError{Cluster: req.Cluster, TaskDefinition: req.TaskDefinition, Err: domain.ErrNoTaskHandle}
		for _, f := range out.Failures {
			launchErr.Reasons = append(launchErr.Reasons, failureReason(f))
		}
		return "", l.fail(span, launchErr)
	}

	arn := aws.ToString(out.Tasks[0].TaskArn)
	span.SetAttributes(attribute.String("ecs.task_arn", arn))
	l.logger.Info("fargate task started", "task_arn", arn, "cluster", req.Cluster)
	return domain.TaskHandle(arn), nil
}

func (l *ecsTaskLauncher) fail(span trace.Span, err *domain.LaunchError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "run task failed")
	l.logger.Error("failed to start fargate task", "cluster", err.Cluster, "task_definition", err.TaskDefinition, "error", err)
	return err
}

func failureReason(f types.Failure) string {
	reason := aws.ToString(f.Reason)
	if detail := aws.ToString(f.Detail); detail != "" {
		reason += " (" + detail + ")"
	}
	if arn := aws.ToString(f.Arn); arn != "" {
		reason = arn + ": " + reason
	}
	return reason
}

// toInput maps a launch request onto the ECS API shape.
func toInput(req *domain.TaskLaunchRequest) *ecs.RunTaskInput {
	assignPublicIP := types.AssignPublicIpDisabled
	if req.Network.AssignPublicIP {
		assignPublicIP = types.AssignPublicIpEnabled
	}

	env := make([]types.KeyValuePair, 0, len(req.Environment))
	for _, e := range req.Environment {
		env = append(env, types.KeyValuePair{Name: aws.String(e.Name), Value: aws.String(e.Value)})
	}

	tags := make([]types.Tag, 0, len(req.Tags))
	for _, t := range req.Tags {
		tags = append(tags, types.Tag{Key: aws.String(t.Key), Value: aws.String(t.Value)})
	}

	return &ecs.RunTaskInput{
		Cluster:        aws.String(req.Cluster),
		TaskDefinition: aws.String(req.TaskDefinition),
		LaunchType:     types.LaunchType(req.LaunchType),
		NetworkConfiguration: &types.NetworkConfiguration{
			AwsvpcConfiguration: &types.AwsVpcConfiguration{
				Subnets:        req.Network.Subnets,
				SecurityGroups: req.Network.SecurityGroups,
				AssignPublicIp: assignPublicIP,
			},
		},
		Overrides: &types.TaskOverride{
			ContainerOverrides: []types.ContainerOverride{{
				Name:        aws.String(req.ContainerName),
				Environment: env,
			}},
		},
		Tags: tags,
	}
}
