// Package memory 提供进程内存储实现，用于开发与测试
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/gnoobs75/vacuum/internal/market/domain"
)

// Store 内存版 domain.Store，记录以 JSON 编码保存
type Store struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{data: make(map[string]map[string][]byte)}
}

// Save 保存记录
func (s *Store) Save(ctx context.Context, collection, id string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[collection] == nil {
		s.data[collection] = make(map[string][]byte)
	}
	s.data[collection][id] = data
	return nil
}

// Load 读取单条记录
func (s *Store) Load(ctx context.Context, collection, id string, record any) error {
	s.mu.RLock()
	data, ok := s.data[collection][id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("record %s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return json.Unmarshal(data, record)
}

// LoadAll 按主键升序遍历集合的全部记录
func (s *Store) LoadAll(ctx context.Context, collection string, decode func(data []byte) error) error {
	s.mu.RLock()
	records := s.data[collection]
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	copies := make([][]byte, 0, len(ids))
	for _, id := range ids {
		copies = append(copies, records[id])
	}
	s.mu.RUnlock()

	for _, data := range copies {
		if err := decode(data); err != nil {
			return err
		}
	}
	return nil
}

// Delete 删除记录，不存在时为空操作
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[collection], id)
	return nil
}
