package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/retailpos-backend/pkg/logger"
)

const defaultOutboxRetentionDays = 30

type outboxPruner interface {
	DeleteSettledBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, maxAttempts int) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type OutboxRetentionParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Outbox        outboxPruner
	RetentionDays int
	MaxAttempts   int
}

// OutboxRetention deletes outbox rows that are published or dead once they
// are older than the retention window. Pending rows are never touched.
type OutboxRetention struct {
	logg        *logger.Logger
	db          txRunner
	outbox      outboxPruner
	retention   time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewOutboxRetention(params OutboxRetentionParams) (*OutboxRetention, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.DB == nil {
		return nil, errors.New("tx runner required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultOutboxRetentionDays
	}
	return &OutboxRetention{
		logg:        params.Logger,
		db:          params.DB,
		outbox:      params.Outbox,
		retention:   time.Duration(days) * 24 * time.Hour,
		maxAttempts: params.MaxAttempts,
		now:         time.Now,
	}, nil
}

func (j *OutboxRetention) Name() string { return "outbox-retention" }

func (j *OutboxRetention) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.outbox.DeleteSettledBefore(ctx, tx, cutoff, j.maxAttempts)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("prune outbox: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "maintenance.outbox_pruned")
	return nil
}
