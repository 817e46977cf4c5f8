package credentials

import (
	"context"
	"errors"
	"strings"

	"logoanimator/internal/infra"
	"logoanimator/internal/sqlinline"
)

// BackendGemini names the Gemini API key row.
const BackendGemini = "gemini"

// Store keeps backend API keys in the backend_credentials table so operators
// can rotate them without redeploying.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.APIKey(ctx, BackendGemini)
}

// APIKey returns the stored key of backend, or "" when none is stored.
func (s *Store) APIKey(ctx context.Context, backend string) (string, error) {
	var key string
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectBackendCredential, backend).Scan(&key); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(key), nil
}

func (s *Store) SetGeminiAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("gemini api key is required")
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertBackendCredential, BackendGemini, key)
	return err
}

// ResolveGeminiAPIKey prefers the key from the environment and falls back to
// the stored one. A nil store means no database is configured.
func ResolveGeminiAPIKey(ctx context.Context, envKey string, store *Store) (string, error) {
	if key := strings.TrimSpace(envKey); key != "" {
		return key, nil
	}
	if store == nil {
		return "", nil
	}
	return store.GeminiAPIKey(ctx)
}
