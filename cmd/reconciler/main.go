// Reconciler reports drift between the servers table and the live EC2
// inventory. A deploy that launched an instance but failed to persist the
// row leaves an orphan the API can no longer reach; this tool finds those
// (and the reverse case) so an operator can clean up. It only reports,
// it never mutates anything.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"golang.org/x/time/rate"

	"github.com/nylund-us/broadcast-backend/config"
	"github.com/nylund-us/broadcast-backend/internal/bootstrap"
	"github.com/nylund-us/broadcast-backend/internal/servers/repository"
)

const managedByTag = "broadcast-backend"

type liveInstance struct {
	instanceID string
	serverID   string // Name tag
	state      string
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: bootstrap.DSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	awsCfg, err := bootstrap.LoadAWS(ctx, &cfg.AWS)
	if err != nil {
		log.Fatalf("aws: %v", err)
	}
	client := ec2.NewFromConfig(awsCfg)

	rows, err := repository.NewServerRepo(pool).ListAll(ctx)
	if err != nil {
		log.Fatalf("list servers: %v", err)
	}

	live, err := scanInstances(ctx, client)
	if err != nil {
		log.Fatalf("scan instances: %v", err)
	}

	byInstanceID := make(map[string]liveInstance, len(live))
	for _, in := range live {
		byInstanceID[in.instanceID] = in
	}
	rowByInstanceID := make(map[string]bool, len(rows))
	for _, s := range rows {
		rowByInstanceID[s.InstanceID] = true
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "finding\tinstance_id\tserver_id\tstate")

	orphans := 0
	for _, in := range live {
		if !rowByInstanceID[in.instanceID] {
			orphans++
			fmt.Fprintf(tw, "orphan-instance\t%s\t%s\t%s\n", in.instanceID, in.serverID, in.state)
		}
	}

	stale := 0
	for _, s := range rows {
		if _, ok := byInstanceID[s.InstanceID]; !ok {
			stale++
			fmt.Fprintf(tw, "stale-row\t%s\t%s\t-\n", s.InstanceID, s.ID)
		}
	}
	tw.Flush()

	log.Printf("done: %d row(s), %d live instance(s), %d orphan(s), %d stale row(s)", len(rows), len(live), orphans, stale)
}

// scanInstances pages through the non-terminated managed instances.
// Rate limited so a large fleet scan stays under the provider's describe
// quota.
func scanInstances(ctx context.Context, client *ec2.Client) ([]liveInstance, error) {
	limiter := rate.NewLimiter(rate.Limit(4), 8)

	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{Name: aws.String("tag:managed-by"), Values: []string{managedByTag}},
			{Name: aws.String("instance-state-name"), Values: []string{"pending", "running", "stopping", "stopped"}},
		},
	}

	var out []liveInstance
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := client.DescribeInstances(ctx, input)
		if err != nil {
			return nil, err
		}

		for _, res := range page.Reservations {
			for _, in := range res.Instances {
				item := liveInstance{instanceID: aws.ToString(in.InstanceId)}
				if in.State != nil {
					item.state = string(in.State.Name)
				}
				for _, tag := range in.Tags {
					if aws.ToString(tag.Key) == "Name" {
						item.serverID = aws.ToString(tag.Value)
					}
				}
				out = append(out, item)
			}
		}

		if page.NextToken == nil {
			return out, nil
		}
		input.NextToken = page.NextToken
	}
}
