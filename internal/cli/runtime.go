package cli

import (
	"context"
	"fmt"

	"ai-tutor-be/internal/bootstrap"
	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/database"

	"gorm.io/gorm"
)

// runtime is an in-process container plus its background consumer.
type runtime struct {
	cfg       *config.Config
	container *bootstrap.Container
	cancel    context.CancelFunc
}

func newRuntime() (*runtime, error) {
	cfg := config.Load()

	// the terminal belongs to the learner, logs go to the file only
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, true)

	var db *gorm.DB
	if cfg.NeedsDatabase() {
		var err error
		if db, err = database.NewGormDBFromDSN(cfg.Database.Connection); err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
	}

	c, err := bootstrap.NewContainer(db, cfg, sysLogger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.ConsumerService.Consume(ctx); err != nil {
		cancel()
		c.Close()
		return nil, fmt.Errorf("start consumer: %w", err)
	}
	return &runtime{cfg: cfg, container: c, cancel: cancel}, nil
}

func (r *runtime) Close() {
	r.cancel()
	r.container.Close()
	_ = r.container.Logger.Sync()
}
