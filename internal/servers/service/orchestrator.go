package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/nylund-us/broadcast-backend/internal/cloud/compute"
	"github.com/nylund-us/broadcast-backend/internal/servers/domain"
)

// Record constants for a freshly deployed server. The placeholder address
// is replaced by the on-instance ddns agent once the instance is up.
const (
	recordType    = "A"
	recordTTL     = int64(60)
	placeholderIP = "127.0.0.1"
)

// ServerStore is implemented by repository.ServerRepo.
type ServerStore interface {
	Create(ctx context.Context, id, orgID, instanceID string) (*domain.Server, error)
	Get(ctx context.Context, id string) (*domain.Server, error)
	ListByOrganization(ctx context.Context, orgID string) ([]domain.Server, error)
	Delete(ctx context.Context, id string) error
}

// DNSManager is implemented by dns.Manager.
type DNSManager interface {
	Upsert(ctx context.Context, name, recordType, value string, ttl int64) error
	Delete(ctx context.Context, name, recordType string) error
}

// ComputeProvisioner is implemented by compute.Provisioner.
type ComputeProvisioner interface {
	Launch(ctx context.Context, serverID, userData string) (string, error)
	Start(ctx context.Context, instanceID string) error
	Stop(ctx context.Context, instanceID string) error
	Reboot(ctx context.Context, instanceID string) error
	Terminate(ctx context.Context, instanceID string) error
}

// SnapshotSource is implemented by compute.InstanceCache.
type SnapshotSource interface {
	Get(ctx context.Context, instanceIDs []string) map[string]compute.InstanceSnapshot
}

// UserDataSource is implemented by userdata.Builder.
type UserDataSource interface {
	Render(domain string) (string, error)
}

// Orchestrator drives the three systems a server lives in: the database
// row, the compute instance and the DNS record. Role checks happen in the
// HTTP layer before any of these methods run; the orchestrator trusts its
// caller.
type Orchestrator struct {
	store     ServerStore
	dns       DNSManager
	compute   ComputeProvisioner
	snapshots SnapshotSource
	userData  UserDataSource
	domain    string
}

func NewOrchestrator(store ServerStore, dns DNSManager, prov ComputeProvisioner, snapshots SnapshotSource, userData UserDataSource, dnsDomain string) *Orchestrator {
	return &Orchestrator{
		store:     store,
		dns:       dns,
		compute:   prov,
		snapshots: snapshots,
		userData:  userData,
		domain:    dnsDomain,
	}
}

// FQDN returns the DNS name a server is reachable under.
func (o *Orchestrator) FQDN(serverID string) string {
	return serverID + "." + o.domain
}

// Deploy provisions one server for the organization: DNS record first,
// then the instance, then the row. Each step aborts the sequence on
// failure. The id is allocated before any external call so the DNS label
// and instance tag are deterministic.
func (o *Orchestrator) Deploy(ctx context.Context, orgID string) (*domain.Server, error) {
	id := uuid.New().String()
	fqdn := o.FQDN(id)

	if err := o.dns.Upsert(ctx, fqdn, recordType, placeholderIP, recordTTL); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDNS, err)
	}

	data, err := o.userData.Render(fqdn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProvision, err)
	}

	instanceID, err := o.compute.Launch(ctx, id, data)
	if err != nil {
		// The DNS record stays behind, pointing at the placeholder.
		return nil, fmt.Errorf("%w: %w", domain.ErrProvision, err)
	}
	log.Printf("[servers] instance %s launched for server %s", instanceID, id)

	server, err := o.store.Create(ctx, id, orgID, instanceID)
	if err != nil {
		// Worst case of the whole protocol: a running instance with no
		// row pointing at it. Nothing here can roll that back safely, so
		// make it impossible to miss and leave cleanup to the reconciler.
		log.Printf("[servers] ORPHANED INSTANCE %s: server row %s not persisted: %v", instanceID, id, err)
		return nil, fmt.Errorf("%w: instance %s: %w", domain.ErrOrphanedInstance, instanceID, err)
	}

	return server, nil
}

// Get loads a server, optionally merged with its live instance snapshot.
// A failed live fetch degrades to the bare row; static data is never held
// hostage by provider availability.
func (o *Orchestrator) Get(ctx context.Context, serverID string, populate bool) (*domain.ServerWithInstance, error) {
	server, err := o.store.Get(ctx, serverID)
	if err != nil {
		return nil, err
	}

	out := &domain.ServerWithInstance{Server: *server}
	if populate {
		if snap, ok := o.snapshots.Get(ctx, []string{server.InstanceID})[server.InstanceID]; ok {
			out.Instance = &snap
		}
	}
	return out, nil
}

// ListByOrganization returns the organization's servers. With populate
// set, one batched snapshot fetch covers every instance; servers whose
// snapshot is missing are returned without one.
func (o *Orchestrator) ListByOrganization(ctx context.Context, orgID string, populate bool) ([]domain.ServerWithInstance, error) {
	servers, err := o.store.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ServerWithInstance, 0, len(servers))
	if !populate {
		for _, s := range servers {
			out = append(out, domain.ServerWithInstance{Server: s})
		}
		return out, nil
	}

	ids := make([]string, 0, len(servers))
	for _, s := range servers {
		ids = append(ids, s.InstanceID)
	}
	snapshots := o.snapshots.Get(ctx, ids)

	for _, s := range servers {
		item := domain.ServerWithInstance{Server: s}
		if snap, ok := snapshots[s.InstanceID]; ok {
			item.Instance = &snap
		}
		out = append(out, item)
	}
	return out, nil
}

// SendCommand forwards a power command to the server's instance. No local
// state transition happens; the provider is the source of truth and its
// errors surface unretried.
func (o *Orchestrator) SendCommand(ctx context.Context, serverID, command string) error {
	if !domain.ValidCommand(command) {
		return domain.ErrInvalidCommand
	}

	server, err := o.store.Get(ctx, serverID)
	if err != nil {
		return err
	}

	switch command {
	case domain.CommandStart:
		return o.compute.Start(ctx, server.InstanceID)
	case domain.CommandStop:
		return o.compute.Stop(ctx, server.InstanceID)
	case domain.CommandRestart:
		return o.compute.Reboot(ctx, server.InstanceID)
	}
	return domain.ErrInvalidCommand
}

// Delete tears a server down in strict order: terminate the instance,
// delete the DNS record, remove the row. The row goes last because it is
// the only handle back to the instance; a failed termination aborts the
// whole delete, leaving row and record intact.
func (o *Orchestrator) Delete(ctx context.Context, serverID string) error {
	server, err := o.store.Get(ctx, serverID)
	if err != nil {
		return err
	}

	if err := o.compute.Terminate(ctx, server.InstanceID); err != nil {
		return fmt.Errorf("terminate: %w", err)
	}

	// Missing record is success inside dns.Delete: the record may have
	// been cleaned up out-of-band already.
	if err := o.dns.Delete(ctx, o.FQDN(server.ID), recordType); err != nil {
		return fmt.Errorf("dns cleanup: %w", err)
	}

	if err := o.store.Delete(ctx, server.ID); err != nil {
		return err
	}
	return nil
}
