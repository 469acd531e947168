package notifier

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/openportal/subscribe-notifier/internal/adapters/config"
	postgresStorage "github.com/openportal/subscribe-notifier/internal/adapters/database/postgres"
	redisStorage "github.com/openportal/subscribe-notifier/internal/adapters/database/redis"
	"github.com/openportal/subscribe-notifier/internal/adapters/scheduler"
	"github.com/openportal/subscribe-notifier/internal/domain/service"
	"github.com/openportal/subscribe-notifier/pkg/logger"
	"github.com/openportal/subscribe-notifier/pkg/logger/types"
	"github.com/openportal/subscribe-notifier/pkg/smtp"
	"gorm.io/gorm"
)

// App ties the storages, services and the scheduler together.
type App struct {
	DB            *gorm.DB
	Redis         *redisStorage.Client
	Subscriptions *service.SubscriptionService
	Notify        *service.NotifyService
	Scheduler     *scheduler.Scheduler
	Logger        *types.Logger
}

func New(cfg *config.Config) (*App, error) {
	appLogger, err := logger.Named("notifier")
	if err != nil {
		return nil, err
	}
	dispatchLogger, err := logger.Named("dispatch")
	if err != nil {
		return nil, err
	}
	schedulerLogger, err := logger.Named("scheduler")
	if err != nil {
		return nil, err
	}

	mailer := smtp.NewClient(cfg.SMTP)

	subscriptionStorage := postgresStorage.NewSubscriptionStorage(cfg.Database)
	activityStorage := postgresStorage.NewActivityStorage(cfg.Database)
	reportStateStorage := postgresStorage.NewReportStateStorage(cfg.Database)
	notifiedStorage := postgresStorage.NewNotifiedActivityStorage(cfg.Database)

	subscriptionService := service.NewSubscriptionService(
		subscriptionStorage,
		cfg.Redis.Codes,
		mailer,
		cfg.SiteTitle,
		cfg.CodeTTL,
		appLogger,
	)

	notifyService := service.NewNotifyService(
		cfg.Policy,
		postgresStorage.NewTxManager(cfg.Database),
		subscriptionStorage,
		reportStateStorage,
		notifiedStorage,
		service.NewSelectorService(cfg.Policy, activityStorage),
		service.NewDigestRenderer(cfg.SiteTitle),
		mailer,
		dispatchLogger,
	)

	return &App{
		DB:            cfg.Database,
		Redis:         cfg.Redis,
		Subscriptions: subscriptionService,
		Notify:        notifyService,
		Scheduler: scheduler.New(
			notifyService,
			cfg.Redis.Locks,
			cfg.Location,
			cfg.PollInterval,
			schedulerLogger,
		),
		Logger: appLogger,
	}, nil
}

// Start runs the scheduler until the process receives SIGINT or SIGTERM.
func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.Logger.Info("Shutting down")
	a.Scheduler.Stop()
	return nil
}
