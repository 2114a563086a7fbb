package compute

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// EC2API is the slice of the EC2 client the provisioner uses.
type EC2API interface {
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
	RebootInstances(ctx context.Context, params *ec2.RebootInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RebootInstancesOutput, error)
	TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// LaunchSpec pins the single instance shape this control plane deploys.
// Template parameters are deliberately not configurable per call.
type LaunchSpec struct {
	TemplateID      string
	TemplateVersion string
}

// Provisioner wraps the EC2 lifecycle calls behind a uniform shape. It
// performs no retries; failures surface to the orchestrator as-is.
type Provisioner struct {
	client EC2API
	spec   LaunchSpec
}

func NewProvisioner(client EC2API, spec LaunchSpec) *Provisioner {
	return &Provisioner{client: client, spec: spec}
}

// Launch starts exactly one instance from the fixed launch template,
// tagging it with the server id so the reconciler can correlate instances
// back to rows. Returns the provider-assigned instance id.
func (p *Provisioner) Launch(ctx context.Context, serverID, userData string) (string, error) {
	out, err := p.client.RunInstances(ctx, &ec2.RunInstancesInput{
		LaunchTemplate: &types.LaunchTemplateSpecification{
			LaunchTemplateId: aws.String(p.spec.TemplateID),
			Version:          aws.String(p.spec.TemplateVersion),
		},
		InstanceType: types.InstanceTypeT3Small,
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
		UserData:     aws.String(base64.StdEncoding.EncodeToString([]byte(userData))),
		TagSpecifications: []types.TagSpecification{
			{
				ResourceType: types.ResourceTypeInstance,
				Tags: []types.Tag{
					{Key: aws.String("Name"), Value: aws.String(serverID)},
					{Key: aws.String("managed-by"), Value: aws.String("broadcast-backend")},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("run instances: %w", err)
	}
	if len(out.Instances) == 0 {
		return "", fmt.Errorf("run instances: provider returned no instances")
	}
	return aws.ToString(out.Instances[0].InstanceId), nil
}

func (p *Provisioner) Start(ctx context.Context, instanceID string) error {
	_, err := p.client.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return fmt.Errorf("start instance %s: %w", instanceID, err)
	}
	return nil
}

func (p *Provisioner) Stop(ctx context.Context, instanceID string) error {
	_, err := p.client.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return fmt.Errorf("stop instance %s: %w", instanceID, err)
	}
	return nil
}

func (p *Provisioner) Reboot(ctx context.Context, instanceID string) error {
	_, err := p.client.RebootInstances(ctx, &ec2.RebootInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return fmt.Errorf("reboot instance %s: %w", instanceID, err)
	}
	return nil
}

func (p *Provisioner) Terminate(ctx context.Context, instanceID string) error {
	_, err := p.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return fmt.Errorf("terminate instance %s: %w", instanceID, err)
	}
	return nil
}

// Describe fetches snapshots for the given instance ids in one call,
// flattening the reservation grouping the provider returns.
func (p *Provisioner) Describe(ctx context.Context, instanceIDs []string) ([]InstanceSnapshot, error) {
	if len(instanceIDs) == 0 {
		return nil, nil
	}

	out, err := p.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: instanceIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("describe instances: %w", err)
	}

	snapshots := make([]InstanceSnapshot, 0, len(instanceIDs))
	for _, res := range out.Reservations {
		for _, in := range res.Instances {
			snapshots = append(snapshots, snapshotFromInstance(in))
		}
	}
	return snapshots, nil
}
