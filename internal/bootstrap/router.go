package bootstrap

import (
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/nylund-us/broadcast-backend/internal/api/http"
	"github.com/nylund-us/broadcast-backend/internal/api/http/middleware"
	"github.com/nylund-us/broadcast-backend/internal/auth"
	"github.com/nylund-us/broadcast-backend/internal/invitations"
	"github.com/nylund-us/broadcast-backend/internal/mailer"
	"github.com/nylund-us/broadcast-backend/internal/organizations"
	"github.com/nylund-us/broadcast-backend/internal/platforms"
	serverhttp "github.com/nylund-us/broadcast-backend/internal/servers/http"
	serverservice "github.com/nylund-us/broadcast-backend/internal/servers/service"
	"github.com/nylund-us/broadcast-backend/internal/users"
)

type RouterDeps struct {
	ServiceName  string
	Version      string
	BaseURL      string
	DB           *pgxpool.Pool
	Cache        *redis.Client
	AuthClient   *fbauth.Client
	Orchestrator *serverservice.Orchestrator
	Mailer       *mailer.Mailer
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Cache)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.RequestIDMiddleware())

	userRepo := users.NewRepo(dep.DB)
	orgRepo := organizations.NewRepo(dep.DB)
	platformRepo := platforms.NewRepo(dep.DB)
	invitationRepo := invitations.NewRepo(dep.DB)

	api.Use(auth.WithUser(dep.AuthClient, userRepo))

	orgGroup := api.Group("/organizations")
	organizations.Register(orgGroup, orgRepo)
	serverhttp.RegisterOrgSubroutes(orgGroup, dep.Orchestrator, orgRepo)
	platforms.RegisterOrgSubroutes(orgGroup, platformRepo, orgRepo)
	invitations.RegisterOrgSubroutes(orgGroup, invitationRepo, orgRepo)

	serverhttp.Register(api.Group("/servers"), dep.Orchestrator, orgRepo)
	platforms.Register(api.Group("/platforms"), platformRepo, orgRepo)
	invitations.Register(api.Group("/invitations"), invitationRepo, orgRepo, userRepo, dep.Mailer, dep.BaseURL)

	return r
}
