package compute

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// InstanceSnapshot is the provider-reported view of a running instance.
// It is never persisted; the cloud is the source of truth for power state
// and addressing, and snapshots are rebuilt from DescribeInstances.
type InstanceSnapshot struct {
	InstanceID       string    `json:"instance_id"`
	State            string    `json:"state"`
	PublicIP         string    `json:"public_ip,omitempty"`
	PrivateIP        string    `json:"private_ip,omitempty"`
	InstanceType     string    `json:"instance_type"`
	AvailabilityZone string    `json:"availability_zone,omitempty"`
	LaunchTime       time.Time `json:"launch_time"`
}

func snapshotFromInstance(in types.Instance) InstanceSnapshot {
	s := InstanceSnapshot{
		InstanceID:   aws.ToString(in.InstanceId),
		PublicIP:     aws.ToString(in.PublicIpAddress),
		PrivateIP:    aws.ToString(in.PrivateIpAddress),
		InstanceType: string(in.InstanceType),
		LaunchTime:   aws.ToTime(in.LaunchTime),
	}
	if in.State != nil {
		s.State = string(in.State.Name)
	}
	if in.Placement != nil {
		s.AvailabilityZone = aws.ToString(in.Placement.AvailabilityZone)
	}
	return s
}
