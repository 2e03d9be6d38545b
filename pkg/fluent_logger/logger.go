package fluentlogger

import (
	"fmt"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// Config - адрес Fluent Bit
type Config struct {
	Host string
	Port int
	// Async не блокирует запись при недоступном Fluent Bit
	Async bool
}

// NewClient создает клиента. Соединение устанавливается лениво,
// поэтому недоступный Fluent Bit проявится только при первой отправке.
func NewClient(cfg Config) (*fluent.Fluent, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("fluent host is required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("fluent port must be positive, got %d", cfg.Port)
	}

	client, err := fluent.New(fluent.Config{
		FluentHost:   cfg.Host,
		FluentPort:   cfg.Port,
		Async:        cfg.Async,
		Timeout:      3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fluent client: %w", err)
	}
	return client, nil
}
