package router

import (
	app "github.com/oksasatya/mother-community/internal/application"
	"github.com/oksasatya/mother-community/internal/container"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
	esinfra "github.com/oksasatya/mother-community/internal/infrastructure/elasticsearch"
	gcsinfra "github.com/oksasatya/mother-community/internal/infrastructure/gcs"
	"github.com/oksasatya/mother-community/internal/infrastructure/geocoding"
	pginfra "github.com/oksasatya/mother-community/internal/infrastructure/postgres"
	redisinfra "github.com/oksasatya/mother-community/internal/infrastructure/redis"
	handlers "github.com/oksasatya/mother-community/internal/interface/http"
	"github.com/oksasatya/mother-community/internal/router/modules"
)

// Services groups the application services shared by the HTTP modules.
type Services struct {
	Auth      *app.AuthService
	Profiles  *app.ProfileService
	Directory *app.DirectoryService
	Messages  *app.MessageService
	Events    *app.EventService
	Deleter   *app.AccountDeleter
	Feed      *redisinfra.MessageFeed
}

func buildServices() Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()
	rdb := container.GetRedis()

	users := pginfra.NewUserRepository(pool)
	profiles := pginfra.NewProfileRepository(pool)
	messages := pginfra.NewMessageRepository(pool)
	events := pginfra.NewEventRepository(pool)

	storage := gcsinfra.NewObjectStorage(container.GetGCS(), cfg.GCSBucket)
	index := esinfra.NewProfileIndex(container.GetES(), cfg.ESProfilesIndex, logger)
	cache := redisinfra.NewDirectoryCache(rdb, cfg.DirectoryCacheTTL)
	feed := redisinfra.NewMessageFeed(rdb, logger)
	geocoder := geocoding.NewNominatim(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout)

	var jobs repo.JobPublisher
	if p := container.GetRabbitPub(); p != nil {
		jobs = p
	}
	notifier := app.NewNotifier(jobs, cfg, logger)

	auth := app.NewAuthService(users, profiles, container.GetJWT(), rdb, notifier, logger, cfg.SessionTTL)

	deleter := app.NewAccountDeleter(profiles, auth, users, logger)
	deleter.Storage = storage
	deleter.Index = index
	deleter.Cache = cache
	deleter.Notifier = notifier

	return Services{
		Auth:      auth,
		Profiles:  app.NewProfileService(profiles, users, geocoder, storage, index, cache, logger),
		Directory: app.NewDirectoryService(profiles, cache, index, logger),
		Messages:  app.NewMessageService(messages, users, profiles, feed, notifier, logger),
		Events:    app.NewEventService(events, storage, logger),
		Deleter:   deleter,
		Feed:      feed,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	jwt := container.GetJWT()
	svc := buildServices()

	profileHandler := handlers.NewProfileHandler(svc.Profiles, logger)

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc.Auth, logger, cfg.CookieDomain, cfg.CookieSecure), jwt))
	r.Add(modules.NewProfileModule(profileHandler, jwt))
	r.Add(modules.NewDirectoryModule(handlers.NewDirectoryHandler(svc.Directory, svc.Profiles, logger), profileHandler, jwt))
	r.Add(modules.NewMessageModule(handlers.NewMessageHandler(svc.Messages, svc.Feed, logger), jwt))
	r.Add(modules.NewEventModule(handlers.NewEventHandler(svc.Events, logger), jwt))
	r.Add(modules.NewAccountModule(handlers.NewAccountHandler(svc.Deleter, logger, cfg.CookieDomain, cfg.CookieSecure), jwt))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
