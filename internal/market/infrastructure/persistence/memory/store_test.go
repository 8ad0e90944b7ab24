package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gnoobs75/vacuum/internal/market/domain"
)

type record struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

func TestStoreSaveLoad(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Save(ctx, "things", "a", record{ID: "a", Value: 1}); err != nil {
		t.Fatal(err)
	}

	var got record
	if err := s.Load(ctx, "things", "a", &got); err != nil {
		t.Fatal(err)
	}
	if got.Value != 1 {
		t.Errorf("value = %d, want 1", got.Value)
	}

	// 覆盖写
	if err := s.Save(ctx, "things", "a", record{ID: "a", Value: 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(ctx, "things", "a", &got); err != nil {
		t.Fatal(err)
	}
	if got.Value != 2 {
		t.Errorf("value after overwrite = %d, want 2", got.Value)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	s := NewStore()
	var got record
	if err := s.Load(context.Background(), "things", "missing", &got); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want not-found", err)
	}
}

func TestStoreLoadAllOrdered(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		if err := s.Save(ctx, "things", id, record{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	var ids []string
	err := s.LoadAll(ctx, "things", func(data []byte) error {
		var r record
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		ids = append(ids, r.ID)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("ids = %v, want sorted a b c", ids)
	}
}

func TestStoreDelete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	if err := s.Save(ctx, "things", "a", record{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "things", "a"); err != nil {
		t.Fatal(err)
	}
	var got record
	if err := s.Load(ctx, "things", "a", &got); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted record should be missing, got %v", err)
	}
	// 幂等
	if err := s.Delete(ctx, "things", "a"); err != nil {
		t.Errorf("deleting missing record should be a no-op, got %v", err)
	}
}
