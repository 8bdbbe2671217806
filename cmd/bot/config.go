package main

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/workflow"
	"github.com/joho/godotenv"
)

const (
	// AppName is the name of the application.
	AppName = "warden"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvDatabasePath is the environment variable for the sqlite database path.
	EnvDatabasePath = `DATABASE_PATH`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvOwnerIds is the environment variable for the comma-separated bot
	// operator IDs.
	EnvOwnerIds = `OWNER_IDS`

	// EnvApiToken is the environment variable for the ingest API token. The
	// ingest API stays disabled when unset.
	EnvApiToken = `API_TOKEN`

	// EnvTopicThrottle is the environment variable overriding the minimum
	// gap between auto-close topic edits.
	EnvTopicThrottle = `TOPIC_THROTTLE`
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application.
	ApplicationId string

	// DatabasePath is the path of the sqlite database.
	DatabasePath string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string

	// OwnerIds are the bot operator IDs.
	OwnerIds []string

	// ApiToken is the bearer token for the ingest API.
	ApiToken string

	// TopicThrottle is the minimum gap between auto-close topic edits.
	TopicThrottle time.Duration

	// Store is the tenant store.
	Store *dataaccess.Store
)

func parseConfig() {
	// A .env file is optional; the environment wins over it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Error loading .env file", slog.String(logging.KeyError, err.Error()))
	}

	if envBT := os.Getenv(EnvBotToken); envBT != "" {
		slog.Debug("Found bot token in environment", slog.String("key", EnvBotToken))
		BotToken = envBT
	}

	if envAppId := os.Getenv(EnvApplicationId); envAppId != "" {
		slog.Debug("Found application ID in environment", slog.String("key", EnvApplicationId))
		ApplicationId = envAppId
	}

	if envDBPath := os.Getenv(EnvDatabasePath); envDBPath != "" {
		slog.Debug("Found database path in environment", slog.String("key", EnvDatabasePath))
		DatabasePath = envDBPath
	} else {
		DatabasePath = AppName + ".db"
		slog.Info("No database path provided in environment, defaulting",
			slog.String("key", EnvDatabasePath), slog.String("path", DatabasePath))
	}

	if envMonitoringPort := os.Getenv(EnvMonitoringPort); envMonitoringPort != "" {
		slog.Debug("Found monitoring port in environment", slog.String("key", EnvMonitoringPort))
		MonitoringPort = envMonitoringPort
	} else {
		// Default to 8080 if not provided.
		MonitoringPort = "8080"
		slog.Info("No monitoring port provided in environment, defaulting to 8080", slog.String("key", EnvMonitoringPort))
	}

	if envOwners := os.Getenv(EnvOwnerIds); envOwners != "" {
		for _, id := range strings.Split(envOwners, ",") {
			if id = strings.TrimSpace(id); id != "" {
				OwnerIds = append(OwnerIds, id)
			}
		}
	}

	ApiToken = os.Getenv(EnvApiToken)

	if envThrottle := os.Getenv(EnvTopicThrottle); envThrottle != "" {
		d, err := time.ParseDuration(envThrottle)
		if err != nil {
			slog.Error("Invalid topic throttle in environment",
				slog.String("key", EnvTopicThrottle),
				slog.String(logging.KeyError, err.Error()))
			os.Exit(1)
		}
		TopicThrottle = d
	}

	if BotToken == "" || ApplicationId == "" {
		slog.Error("Not all required environment variables have been provided", slog.String(logging.KeyError, "Incomplete configuration"))
		os.Exit(1)
	}
	slog.Debug("All required environment variables have been provided")

	connectStore()
}

func connectStore() {
	store, err := dataaccess.Connect(DatabasePath)
	if err != nil {
		slog.Error("Error connecting to store", slog.String(logging.KeyError, err.Error()))
		os.Exit(1)
	}

	Store = store
	slog.Debug("Connected to store", slog.String("path", DatabasePath))
}

// engineConfig builds the workflow configuration from the parsed environment.
func engineConfig() workflow.Config {
	return workflow.Config{
		OwnerIDs:      OwnerIds,
		TopicThrottle: TopicThrottle,
	}
}
