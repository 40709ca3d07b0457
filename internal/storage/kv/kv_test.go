package kv

import (
	"path/filepath"
	"testing"

	"github.com/danieldesouzalongo/01gestao/internal/storage"
	"github.com/danieldesouzalongo/01gestao/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := Open(filepath.Join(t.TempDir(), "kv"))
		if err != nil {
			t.Fatalf("open kv store: %v", err)
		}
		return s
	})
}

func TestOpen_ReopenKeepsNextID(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kv")

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open kv store: %v", err)
	}
	first, err := s.CreateProduct(t.Context(), storage.Product{Name: "Produto A"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen kv store: %v", err)
	}
	defer s.Close()

	second, err := s.CreateProduct(t.Context(), storage.Product{Name: "Produto B"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if second.ID != first.ID+1 {
		t.Fatalf("second id = %d, want %d", second.ID, first.ID+1)
	}
}
