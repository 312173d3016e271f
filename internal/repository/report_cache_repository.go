package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/timetable-api/internal/dto"
)

const reportKeyPrefix = "timetable:report:"

// ReportCacheRepository stores the latest conflict report per institution in
// Redis so dashboards can read it without triggering a regeneration.
type ReportCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCacheRepository creates a report cache with the given TTL.
func NewReportCacheRepository(client *redis.Client, ttl time.Duration) *ReportCacheRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReportCacheRepository{client: client, ttl: ttl}
}

// SaveReport caches the report, replacing any previous snapshot.
func (r *ReportCacheRepository) SaveReport(ctx context.Context, institutionID string, report dto.TimetableReportResponse) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report snapshot: %w", err)
	}
	if err := r.client.Set(ctx, reportKeyPrefix+institutionID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache report snapshot: %w", err)
	}
	return nil
}

// GetReport returns the cached report, or nil when none is cached.
func (r *ReportCacheRepository) GetReport(ctx context.Context, institutionID string) (*dto.TimetableReportResponse, error) {
	payload, err := r.client.Get(ctx, reportKeyPrefix+institutionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read report snapshot: %w", err)
	}
	var report dto.TimetableReportResponse
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("decode report snapshot: %w", err)
	}
	return &report, nil
}
