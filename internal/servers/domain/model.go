package domain

import (
	"time"

	"github.com/nylund-us/broadcast-backend/internal/cloud/compute"
)

// Server is one provisioned relay: a compute instance plus its DNS
// binding. The id doubles as the DNS subdomain label and the instance
// Name tag, so it is allocated before any provider call is made.
type Server struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	InstanceID     string    `json:"instance_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ServerWithInstance merges the persisted row with the live provider
// snapshot. Instance is nil when the live fetch failed or the snapshot
// was unavailable; static data stays served either way.
type ServerWithInstance struct {
	Server
	Instance *compute.InstanceSnapshot `json:"instance,omitempty"`
}

// Commands the orchestrator forwards to the provisioner. There is no
// local state machine: the cloud provider is the source of truth for
// instance power state.
const (
	CommandStart   = "start"
	CommandStop    = "stop"
	CommandRestart = "restart"
)

func ValidCommand(cmd string) bool {
	return cmd == CommandStart || cmd == CommandStop || cmd == CommandRestart
}
