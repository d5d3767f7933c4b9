package models

import "time"

// StorageSnapshot is one persisted store entry (cart-storage:<sid>,
// auth-storage:<sid>, wishlist-storage) holding its JSON snapshot.
type StorageSnapshot struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (StorageSnapshot) TableName() string { return "storage_snapshots" }
