package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	postgresStorage "github.com/openportal/subscribe-notifier/internal/adapters/database/postgres"
	redisStorage "github.com/openportal/subscribe-notifier/internal/adapters/database/redis"
	"github.com/openportal/subscribe-notifier/internal/domain/service"
	"github.com/openportal/subscribe-notifier/pkg/logger"
	"github.com/openportal/subscribe-notifier/pkg/smtp"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type Config struct {
	Database *gorm.DB
	Redis    *redisStorage.Client
	SMTP     smtp.Options

	// Policy and the values below are read once at startup and passed
	// into the services explicitly.
	Policy       service.SchedulePolicy
	PollInterval time.Duration
	SiteTitle    string
	CodeTTL      time.Duration
	Location     *time.Location
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("settings.timezone", "UTC")
	viper.SetDefault("notifications.catch-up-window", "48h")
	viper.SetDefault("notifications.immediate.grace-min", "5m")
	viper.SetDefault("notifications.immediate.grace-max", "60m")
	viper.SetDefault("notifications.immediate.poll-interval", "1m")
	viper.SetDefault("notifications.weekly.day", "friday")
	viper.SetDefault("notifications.time", "9:00")
	viper.SetDefault("service.verification-code-ttl", "24h")

	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}
}

func Get() *Config {
	initConfig()

	location, err := time.LoadLocation(viper.GetString("settings.timezone"))
	if err != nil {
		panic(err)
	}

	err = logger.Init(logger.Config{
		Debug:        viper.GetBool("settings.debug"),
		TimeLocation: location,
		LogToFile:    viper.GetBool("settings.log-to-file"),
		LogsDir:      viper.GetString("settings.logs-dir"),
	})
	if err != nil {
		panic(err)
	}

	var gormConfig *gorm.Config
	if viper.GetBool("settings.debug") {
		newLogger := gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormLogger.Info,
				Colorful:      true,
			},
		)
		gormConfig = &gorm.Config{
			Logger: newLogger,
		}
	} else {
		gormConfig = &gorm.Config{}
	}

	dsn := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=disable",
		viper.GetString("service.database.user"),
		viper.GetString("service.database.password"),
		viper.GetString("service.database.name"),
		viper.GetString("service.database.host"),
		viper.GetInt("service.database.port"),
	)

	database, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		logger.Log.Panicf("Failed to connect to the database: %v", err)
	} else {
		logger.Log.Info("Successfully connected to the database")
	}

	errMigrate := database.AutoMigrate(postgresStorage.Migrations...)
	if errMigrate != nil {
		logger.Log.Panicf("Failed to migrate database: %v", errMigrate)
	}

	redisDB, err := redisStorage.New(redisStorage.Options{
		Host:     viper.GetString("service.redis.host"),
		Port:     viper.GetString("service.redis.port"),
		Password: viper.GetString("service.redis.password"),
	})
	if err != nil {
		logger.Log.Panicf("Failed to connect to redis: %v", err)
	} else {
		logger.Log.Info("Successfully connected to redis")
	}

	return &Config{
		Database: database,
		Redis:    redisDB,
		SMTP: smtp.Options{
			Host:     viper.GetString("service.smtp.host"),
			Port:     viper.GetInt("service.smtp.port"),
			Username: viper.GetString("service.smtp.username"),
			Password: viper.GetString("service.smtp.password"),
			From:     viper.GetString("service.smtp.email"),
			Domain:   viper.GetString("service.smtp.domain"),
		},
		Policy:       schedulePolicy(),
		PollInterval: viper.GetDuration("notifications.immediate.poll-interval"),
		SiteTitle:    viper.GetString("service.site-title"),
		CodeTTL:      viper.GetDuration("service.verification-code-ttl"),
		Location:     location,
	}
}

func schedulePolicy() service.SchedulePolicy {
	policy := service.DefaultSchedulePolicy()
	policy.CatchUpWindow = viper.GetDuration("notifications.catch-up-window")
	policy.GraceMin = viper.GetDuration("notifications.immediate.grace-min")
	policy.GraceMax = viper.GetDuration("notifications.immediate.grace-max")

	day, err := parseWeekday(viper.GetString("notifications.weekly.day"))
	if err != nil {
		panic(err)
	}
	policy.WeeklyDay = day

	hour, minute, err := parseNotifyTime(viper.GetString("notifications.time"))
	if err != nil {
		panic(err)
	}
	policy.NotifyHour = hour
	policy.NotifyMinute = minute

	return policy
}

func parseWeekday(name string) (time.Weekday, error) {
	days := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	day, ok := days[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown weekday: %q", name)
	}
	return day, nil
}

func parseNotifyTime(value string) (int, int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid notification time %q: %w", value, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}
