package api

import (
	"fmt"
	"time"

	"commuteforecast/backend/internal/auth"
	"commuteforecast/backend/internal/common"
	"commuteforecast/backend/internal/db"
	"commuteforecast/backend/internal/db/repositories"
	"commuteforecast/backend/internal/metrics"
	"commuteforecast/backend/internal/providers"
	"commuteforecast/backend/internal/services"

	"github.com/redis/go-redis/v9"
)

const (
	orchestratorLockTTL    = time.Hour
	orchestratorStaleAfter = time.Hour
)

// Repositories holds every GORM repository the HTTP and job layers need.
type Repositories struct {
	Profiles *repositories.ProfileRepository
	Routes   *repositories.RouteRepository
	Cities   *repositories.CityIndexRepository
	Delays   *repositories.DelayRepository
}

// Services holds the domain services built on top of Repositories, plus
// the provider clients and queue/lock plumbing shared across HTTP
// handlers and scheduled jobs.
type Services struct {
	RouteLifecycle   *services.RouteLifecycleService
	IdentityHook     *services.IdentityHookService
	Cache            common.CacheInterface
	Weather          *providers.WeatherProvider
	Events           *providers.EventProvider
	ScheduleQueue    *common.ScheduleQueueService
	OrchestratorLock *common.OrchestratorLock
}

// Dependencies is the DI container threaded through every handler and job.
type Dependencies struct {
	Repo        *Repositories
	Services    *Services
	MetricsReg  *metrics.MetricsRegistry
	JWTVerifier *auth.Verifier
	RedisClient *redis.Client
}

// InitDependencies wires every repository, provider, and service for the
// commute-forecast domain: leaves first, then the services composed on
// top of them.
func InitDependencies(jwtSecret string) (*Dependencies, error) {
	if db.PgDB == nil {
		return nil, fmt.Errorf("postgres (GORM) must be initialized before dependencies")
	}

	redisClient := common.NewRedisClient()

	cacheSvc, err := common.NewRedisCacheService()
	if err != nil {
		return nil, fmt.Errorf("failed to init redis cache service: %w", err)
	}

	repos := &Repositories{
		Profiles: repositories.NewProfileRepository(db.PgDB),
		Routes:   repositories.NewRouteRepository(db.PgDB),
		Cities:   repositories.NewCityIndexRepository(db.PgDB),
		Delays:   repositories.NewDelayRepository(db.PgDB),
	}

	metricsReg := metrics.NewMetricsRegistry()

	secretResolver := providers.NewEnvSecretResolver()
	weatherProvider := providers.NewWeatherProvider()
	eventProvider := providers.NewEventProvider(cacheSvc, secretResolver)

	svcs := &Services{
		RouteLifecycle:   services.NewRouteLifecycleService(db.PgDB, repos.Routes, repos.Profiles, repos.Cities, metricsReg),
		IdentityHook:     services.NewIdentityHookService(repos.Profiles),
		Cache:            cacheSvc,
		Weather:          weatherProvider,
		Events:           eventProvider,
		ScheduleQueue:    common.NewScheduleQueueService(redisClient),
		OrchestratorLock: common.NewOrchestratorLock(redisClient, orchestratorLockTTL, orchestratorStaleAfter),
	}

	return &Dependencies{
		Repo:        repos,
		Services:    svcs,
		MetricsReg:  metricsReg,
		JWTVerifier: auth.NewVerifier(jwtSecret),
		RedisClient: redisClient,
	}, nil
}
