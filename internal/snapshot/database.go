package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DatabaseStore upserts snapshots into storage_snapshots.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDatabaseStore(conn *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: conn, now: time.Now}
}

func (d *DatabaseStore) Load(ctx context.Context, key string) ([]byte, error) {
	var row models.StorageSnapshot
	err := d.db.WithContext(ctx).Where("key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Payload), nil
}

func (d *DatabaseStore) Save(ctx context.Context, key string, payload []byte) error {
	row := models.StorageSnapshot{Key: key, Payload: string(payload), UpdatedAt: d.now().UTC()}
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
}

func (d *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
