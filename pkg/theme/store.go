package theme

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store holds hosted tenant theme documents
type Store interface {
	// Get returns the raw theme document of tenant, or ErrNotFound
	Get(ctx context.Context, tenant string) ([]byte, error)
}

// FileStore reads theme documents from {root}/{tenant}/apim/defaultTheme.json
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve theme directory: %w", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create theme directory: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the absolute theme directory
func (s *FileStore) Root() string {
	return s.root
}

// Get reads a tenant's theme document
func (s *FileStore) Get(ctx context.Context, tenant string) ([]byte, error) {
	if !ValidTenant(tenant) {
		return nil, ErrInvalidTenant
	}

	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(Path(tenant))))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: tenant %s", ErrNotFound, tenant)
		}
		return nil, fmt.Errorf("failed to read theme file: %w", err)
	}
	return data, nil
}

// Put writes a tenant's theme document, creating directories as needed
func (s *FileStore) Put(ctx context.Context, tenant string, data []byte) error {
	if !ValidTenant(tenant) {
		return ErrInvalidTenant
	}

	path := filepath.Join(s.root, filepath.FromSlash(Path(tenant)))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create tenant directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write theme file: %w", err)
	}
	return nil
}

// TenantFromPath returns the tenant a file or directory under root belongs to
func (s *FileStore) TenantFromPath(path string) (string, bool) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", false
	}
	tenant, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	if !ValidTenant(tenant) {
		return "", false
	}
	return tenant, true
}
