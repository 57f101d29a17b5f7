package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/gobudget/internal/domain"
)

// ImportStagingStore implements usecase.ImportStagingStore. Batches are
// stored as JSON and expire with their TTL.
type ImportStagingStore struct {
	client *redis.Client
	prefix string
}

// NewImportStagingStore creates a new ImportStagingStore.
func NewImportStagingStore(client *redis.Client) *ImportStagingStore {
	return &ImportStagingStore{
		client: client,
		prefix: "gobudget:import:",
	}
}

// Save stores batch under its id for ttl.
func (s *ImportStagingStore) Save(ctx context.Context, batch *domain.ImportBatch, ttl time.Duration) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode import batch: %w", err)
	}
	return s.client.Set(ctx, s.prefix+batch.ID, payload, ttl).Err()
}

// Get loads a staged batch. Expired and unknown ids yield domain.ErrImportNotFound.
func (s *ImportStagingStore) Get(ctx context.Context, id string) (*domain.ImportBatch, error) {
	payload, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrImportNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeBatch(id, payload)
}

func decodeBatch(id string, payload []byte) (*domain.ImportBatch, error) {
	var batch domain.ImportBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return nil, fmt.Errorf("decode import batch %s: %w", id, err)
	}
	return &batch, nil
}

// Take claims a batch with GETDEL so concurrent commits cannot both read it.
func (s *ImportStagingStore) Take(ctx context.Context, id string) (*domain.ImportBatch, error) {
	payload, err := s.client.GetDel(ctx, s.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrImportNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeBatch(id, payload)
}

// Delete drops a staged batch. Deleting an unknown id is not an error.
func (s *ImportStagingStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.prefix+id).Err()
}
