package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DataSourceCSV      = "csv"
	DataSourcePostgres = "postgres"
)

type RabbitMQConfig struct {
	Enabled bool
	URL     string
}

type RESTConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

type DataConfig struct {
	Source      string // csv | postgres
	CSVPath     string
	DatabaseURL string
}

type ModelConfig struct {
	MinLocationCount int
	Binning          string // batch | frozen
	TestSize         float64
	SplitSeed        int64
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Enabled bool
	Host    string
	Port    int
	Level   string
}

// AppConfig - вся конфигурация сервиса
type AppConfig struct {
	AppName      string
	Rest         RESTConfig
	Data         DataConfig
	Model        ModelConfig
	RabbitMQ     RabbitMQConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
}

// LoadConfig читает .env (если есть) и переменные окружения.
// Переменные окружения процесса имеют приоритет над .env.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath...)
	} else {
		err = godotenv.Load()
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env file (path: %v): %w", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "price-estimation-service")

	cfg.Rest.Port = getEnvAsString("PORT", "8090")
	cfg.Rest.CORSAllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"})

	cfg.Data.Source = strings.ToLower(getEnvAsString("DATA_SOURCE", DataSourceCSV))
	cfg.Data.CSVPath = getEnvAsString("DATA_CSV_PATH", "data/Bengaluru_House_Data.csv")
	cfg.Data.DatabaseURL = os.Getenv("DATABASE_URL")

	switch cfg.Data.Source {
	case DataSourceCSV:
	case DataSourcePostgres:
		if cfg.Data.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required when DATA_SOURCE=postgres")
		}
	default:
		return nil, fmt.Errorf("DATA_SOURCE must be %q or %q, got %q", DataSourceCSV, DataSourcePostgres, cfg.Data.Source)
	}

	cfg.Model.MinLocationCount = getEnvAsInt("MIN_LOCATION_COUNT", 10)
	if cfg.Model.MinLocationCount < 1 {
		return nil, fmt.Errorf("MIN_LOCATION_COUNT must be positive, got %d", cfg.Model.MinLocationCount)
	}
	cfg.Model.Binning = strings.ToLower(getEnvAsString("LOCATION_BINNING", "batch"))
	if cfg.Model.Binning != "batch" && cfg.Model.Binning != "frozen" {
		return nil, fmt.Errorf("LOCATION_BINNING must be batch or frozen, got %q", cfg.Model.Binning)
	}
	cfg.Model.TestSize = getEnvAsFloat("TEST_SIZE", 0.2)
	if cfg.Model.TestSize < 0 || cfg.Model.TestSize >= 1 {
		return nil, fmt.Errorf("TEST_SIZE must be in [0, 1), got %v", cfg.Model.TestSize)
	}
	cfg.Model.SplitSeed = int64(getEnvAsInt("SPLIT_SEED", 42))

	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", false)
	if cfg.RabbitMQ.Enabled {
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		if cfg.RabbitMQ.URL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL environment variable is required when RABBITMQ_ENABLED=true")
		}
	}

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}
		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt при ошибке разбора пишет предупреждение и возвращает значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as float: %v. Using default value: %v\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsList разбирает список через запятую
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
