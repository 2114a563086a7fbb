package dns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
)

// ErrRecordNotFound is returned by Find when every page of the zone has
// been scanned without a match. Delete maps it to success.
var ErrRecordNotFound = errors.New("record not found")

// Route53API is the slice of the Route53 client the manager uses.
type Route53API interface {
	ListResourceRecordSets(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error)
	ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

// Manager finds, upserts and deletes records in a single hosted zone.
type Manager struct {
	client Route53API
	zoneID string
}

func NewManager(client Route53API, zoneID string) *Manager {
	return &Manager{client: client, zoneID: zoneID}
}

// Upsert creates or replaces one record. Route53's UPSERT action makes
// this idempotent by (name, type); retrying a failed deploy re-writes the
// same record without error.
func (m *Manager) Upsert(ctx context.Context, name, recordType, value string, ttl int64) error {
	name = fqdn(name)

	_, err := m.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(m.zoneID),
		ChangeBatch: &types.ChangeBatch{
			Changes: []types.Change{
				{
					Action: types.ChangeActionUpsert,
					ResourceRecordSet: &types.ResourceRecordSet{
						Name: aws.String(name),
						Type: types.RRType(recordType),
						TTL:  aws.Int64(ttl),
						ResourceRecords: []types.ResourceRecord{
							{Value: aws.String(value)},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upsert record %s %s: %w", name, recordType, err)
	}
	return nil
}

// Find walks the zone's record sets page by page until it hits a match.
// The loop is bounded by the provider's truncation flag.
func (m *Manager) Find(ctx context.Context, name, recordType string) (*types.ResourceRecordSet, error) {
	name = fqdn(name)

	input := &route53.ListResourceRecordSetsInput{
		HostedZoneId: aws.String(m.zoneID),
	}

	for {
		out, err := m.client.ListResourceRecordSets(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list record sets: %w", err)
		}

		for _, rs := range out.ResourceRecordSets {
			if aws.ToString(rs.Name) == name && rs.Type == types.RRType(recordType) {
				return &rs, nil
			}
		}

		if !out.IsTruncated {
			return nil, ErrRecordNotFound
		}

		input.StartRecordName = out.NextRecordName
		input.StartRecordType = out.NextRecordType
		input.StartRecordIdentifier = out.NextRecordIdentifier
	}
}

// Delete removes the record matching (name, type). A missing record is
// success: the on-instance ddns agent or a previous delete may already
// have cleaned it up. Route53 requires the DELETE change to carry the
// exact record data, so the set found by Find is sent back verbatim.
func (m *Manager) Delete(ctx context.Context, name, recordType string) error {
	record, err := m.Find(ctx, name, recordType)
	if errors.Is(err, ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = m.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(m.zoneID),
		ChangeBatch: &types.ChangeBatch{
			Changes: []types.Change{
				{
					Action: types.ChangeActionDelete,
					ResourceRecordSet: &types.ResourceRecordSet{
						Name:            record.Name,
						Type:            record.Type,
						TTL:             record.TTL,
						ResourceRecords: record.ResourceRecords,
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete record %s %s: %w", name, recordType, err)
	}
	return nil
}

func fqdn(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}
