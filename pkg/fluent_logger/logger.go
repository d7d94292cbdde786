package fluentlogger

import (
	"fmt"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// Config хранит конфигурацию для подключения к Fluent Bit.
type Config struct {
	Host      string // "127.0.0.1" или имя сервиса в Docker
	Port      int    // обычно 24224
	TagPrefix string // общий префикс тегов этого сервиса
	// Async - не блокировать запись лога на сети. Нужен, когда Fluent Bit может быть недоступен.
	Async bool
}

func (c Config) Validate() error {
	if c.TagPrefix == "" {
		return fmt.Errorf("fluentd tag prefix is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("fluentd port %d is out of range", c.Port)
	}
	return nil
}

// NewClient создает клиент Fluent Bit. Соединение не проверяется:
// ошибки проявятся при первой отправке.
func NewClient(cfg Config) (*fluent.Fluent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := fluent.New(fluent.Config{
		FluentHost:   cfg.Host,
		FluentPort:   cfg.Port,
		TagPrefix:    cfg.TagPrefix,
		Async:        cfg.Async,
		Timeout:      3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fluentd logger: %w", err)
	}

	return logger, nil
}
