// Package mysql 提供基于 GORM 的 MySQL 存储实现。
// 记录按集合+主键落在单张表中，负载为 JSON 编码。
package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gnoobs75/vacuum/internal/market/domain"
)

// RecordPO 持久化记录
type RecordPO struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Collection string `gorm:"size:64;uniqueIndex:uk_collection_record,priority:1"`
	RecordID   string `gorm:"size:64;uniqueIndex:uk_collection_record,priority:2"`
	Data       []byte `gorm:"type:json"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName 表名
func (RecordPO) TableName() string { return "market_records" }

// Store MySQL 版 domain.Store
type Store struct {
	db *gorm.DB
}

// NewStore 连接数据库并迁移表结构
func NewStore(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.AutoMigrate(&RecordPO{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Save 保存记录，存在则更新
func (s *Store) Save(ctx context.Context, collection, id string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	po := RecordPO{Collection: collection, RecordID: id, Data: data}
	return s.db.WithContext(ctx).
		Where("collection = ? AND record_id = ?", collection, id).
		Assign(map[string]any{"data": data}).
		FirstOrCreate(&po).Error
}

// Load 读取单条记录
func (s *Store) Load(ctx context.Context, collection, id string, record any) error {
	var po RecordPO
	err := s.db.WithContext(ctx).
		Where("collection = ? AND record_id = ?", collection, id).
		First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("record %s/%s: %w", collection, id, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(po.Data, record)
}

// LoadAll 按主键升序遍历集合的全部记录
func (s *Store) LoadAll(ctx context.Context, collection string, decode func(data []byte) error) error {
	rows, err := s.db.WithContext(ctx).Model(&RecordPO{}).
		Where("collection = ?", collection).
		Order("record_id ASC").
		Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var po RecordPO
		if err := s.db.ScanRows(rows, &po); err != nil {
			return err
		}
		if err := decode(po.Data); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Delete 删除记录，不存在时为空操作
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.db.WithContext(ctx).
		Where("collection = ? AND record_id = ?", collection, id).
		Delete(&RecordPO{}).Error
}
