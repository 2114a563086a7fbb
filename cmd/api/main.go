package main

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/nylund-us/broadcast-backend/config"
	"github.com/nylund-us/broadcast-backend/internal/auth"
	"github.com/nylund-us/broadcast-backend/internal/bootstrap"
	"github.com/nylund-us/broadcast-backend/internal/cloud/compute"
	"github.com/nylund-us/broadcast-backend/internal/cloud/dns"
	"github.com/nylund-us/broadcast-backend/internal/cloud/userdata"
	"github.com/nylund-us/broadcast-backend/internal/mailer"
	"github.com/nylund-us/broadcast-backend/internal/servers/repository"
	"github.com/nylund-us/broadcast-backend/internal/servers/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: bootstrap.DSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	cache, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer cache.Close()

	awsCfg, err := bootstrap.LoadAWS(ctx, &cfg.AWS)
	if err != nil {
		log.Fatalf("aws: %v", err)
	}

	authClient, err := auth.InitializeFirebase(&cfg.Firebase)
	if err != nil {
		log.Fatalf("firebase: %v", err)
	}

	provisioner := compute.NewProvisioner(ec2.NewFromConfig(awsCfg), compute.LaunchSpec{
		TemplateID:      cfg.AWS.LaunchTemplateID,
		TemplateVersion: cfg.AWS.LaunchTemplateVersion,
	})
	instanceCache := compute.NewInstanceCache(cache, provisioner)
	dnsManager := dns.NewManager(route53.NewFromConfig(awsCfg), cfg.AWS.HostedZoneID)
	userDataBuilder := &userdata.Builder{
		HostedZoneID:    cfg.AWS.HostedZoneID,
		RelayBucket:     cfg.AWS.RelayBucket,
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AgentAccessKeyID,
		SecretAccessKey: cfg.AWS.AgentSecretAccessKey,
	}

	orchestrator := service.NewOrchestrator(
		repository.NewServerRepo(pool),
		dnsManager,
		provisioner,
		instanceCache,
		userDataBuilder,
		cfg.AWS.Domain,
	)

	m, err := mailer.New(sesv2.NewFromConfig(awsCfg), cfg.AWS.MailFrom)
	if err != nil {
		log.Fatalf("mailer: %v", err)
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:  "broadcast-backend",
		Version:      cfg.App.Version,
		BaseURL:      cfg.App.BaseURL,
		DB:           pool,
		Cache:        cache,
		AuthClient:   authClient,
		Orchestrator: orchestrator,
		Mailer:       m,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
