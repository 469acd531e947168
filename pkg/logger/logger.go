package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openportal/subscribe-notifier/pkg/logger/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *types.Logger

// Config represents configuration options for logger initialization
type Config struct {
	Debug        bool           // Enable debug logging
	TimeLocation *time.Location // Set the time zone for log timestamps
	LogToFile    bool           // Enable logging to a file
	LogsDir      string         // Set the directory for logs (default: current working directory)
}

// Init is a function to initialize logger with extended configuration
func Init(config Config) error {
	var l types.Logger
	l.Name = "main"

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	if config.LogsDir == "" {
		l.LogsPath = wd
	} else {
		l.LogsPath = filepath.Join(wd, config.LogsDir)
	}

	err = os.MkdirAll(l.LogsPath, os.ModePerm)
	if err != nil {
		return err
	}

	location := config.TimeLocation
	if location == nil {
		location = time.UTC
	}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:   "message",
		LevelKey:     "level",
		TimeKey:      "timestamp",
		NameKey:      "logger",
		CallerKey:    "caller",
		EncodeCaller: zapcore.ShortCallerEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.In(location).Format("2006-01-02 15:04:05"))
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var level zapcore.Level
	if config.Debug {
		level = zapcore.DebugLevel
	} else {
		level = zapcore.InfoLevel
	}

	// Console encoder with colors
	consoleEncoderConfig := encoderConfig
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(consoleEncoderConfig)

	// File encoder without colors
	fileEncoderConfig := encoderConfig
	fileEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	fileEncoder := zapcore.NewJSONEncoder(fileEncoderConfig)

	var cores []zapcore.Core

	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level)
	cores = append(cores, consoleCore)

	if config.LogToFile {
		mainLogPath := filepath.Join(l.LogsPath, fmt.Sprintf("%s.log", time.Now().In(location).Format("2006-01-02 15:04")))
		fileWriter, errOpenFile := os.OpenFile(mainLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if errOpenFile != nil {
			return errOpenFile
		}

		fileCore := zapcore.NewCore(fileEncoder, zapcore.AddSync(fileWriter), level)
		cores = append(cores, fileCore)
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller())

	l.SugaredLogger = log.Named(l.Name).Sugar()
	Log = &l

	return nil
}

// Named returns a new logger with the specified name ("dispatch", "database", etc.)
func Named(name string) (*types.Logger, error) {
	if Log == nil {
		return nil, fmt.Errorf("logger is not initialized")
	}
	return &types.Logger{
		SugaredLogger: Log.SugaredLogger.Named(name),
		LogsPath:      Log.LogsPath,
		Name:          name,
	}, nil
}
