package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/loadlink/loadlink-backend/internal/metrics"
	"github.com/loadlink/loadlink-backend/internal/models"
	"github.com/loadlink/loadlink-backend/internal/store"
	"github.com/loadlink/loadlink-backend/pkg/utils"
)

// PositionCache is the optional write-through cache for latest driver
// positions. Satisfied by RedisBridge.
type PositionCache interface {
	CacheDriverPosition(ctx context.Context, driverID uint, lat, lng float64, recordedAt time.Time) error
}

// LocationTracker records driver GPS samples and derives distance and ETA
// estimates from them.
type LocationTracker struct {
	samples         store.LocationStore
	loads           store.LoadStore
	cache           PositionCache
	pub             Publisher
	log             *zap.Logger
	defaultSpeedKmh float64
	retention       time.Duration
}

func NewLocationTracker(samples store.LocationStore, loads store.LoadStore, cache PositionCache, pub Publisher, log *zap.Logger, defaultSpeedKmh float64, retentionDays int) *LocationTracker {
	if defaultSpeedKmh <= 0 {
		defaultSpeedKmh = 60
	}
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &LocationTracker{
		samples:         samples,
		loads:           loads,
		cache:           cache,
		pub:             pub,
		log:             log,
		defaultSpeedKmh: defaultSpeedKmh,
		retention:       time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// RecordSample appends an immutable GPS sample. When the sample is tied to a
// load, watchers of that load's topic get a location event.
func (t *LocationTracker) RecordSample(ctx context.Context, driverID uint, lat, lng float64, loadID *uint) (*models.LocationUpdate, error) {
	if !utils.ValidCoordinates(lat, lng) {
		return nil, fmt.Errorf("invalid coordinates (%v, %v)", lat, lng)
	}

	sample := &models.LocationUpdate{
		DriverID:   driverID,
		LoadID:     loadID,
		Latitude:   lat,
		Longitude:  lng,
		RecordedAt: time.Now(),
	}

	if err := t.samples.CreateLocationUpdate(ctx, sample); err != nil {
		return nil, fmt.Errorf("persist location sample: %w", err)
	}

	if t.cache != nil {
		if err := t.cache.CacheDriverPosition(ctx, driverID, lat, lng, sample.RecordedAt); err != nil {
			t.log.Warn("cache driver position", zap.Uint("driverId", driverID), zap.Error(err))
		}
	}

	if loadID != nil {
		t.pub.Publish(LoadTopic(*loadID), EventLocationUpdated, map[string]any{
			"loadId":   *loadID,
			"driverId": driverID,
			"lat":      lat,
			"lng":      lng,
		})
	}

	return sample, nil
}

// LatestSample returns the driver's most recent sample, or ErrNoSample.
func (t *LocationTracker) LatestSample(ctx context.Context, driverID uint) (*models.LocationUpdate, error) {
	sample, err := t.samples.LatestLocationUpdate(ctx, driverID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSample
	}
	return sample, err
}

// EstimateMinutes estimates minutes of travel from the driver's latest
// position to the destination. A driver without samples yields 0 with a
// logged warning; callers treat 0 as "no estimate".
func (t *LocationTracker) EstimateMinutes(ctx context.Context, driverID uint, destLat, destLng, speedKmh float64) int {
	if speedKmh <= 0 {
		speedKmh = t.defaultSpeedKmh
	}

	sample, err := t.LatestSample(ctx, driverID)
	if err != nil {
		t.log.Warn("no location sample for ETA estimate",
			zap.Uint("driverId", driverID), zap.Error(err))
		return 0
	}

	distance := utils.HaversineDistance(sample.Latitude, sample.Longitude, destLat, destLng)
	return utils.EstimateMinutes(distance, speedKmh)
}

// RefreshLoadETA recomputes the load's ETA from the assigned driver's latest
// position to the dropoff point, persists it, and broadcasts an ETA event.
func (t *LocationTracker) RefreshLoadETA(ctx context.Context, loadID, driverID uint) (int, error) {
	load, err := t.loads.GetLoad(ctx, loadID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrLoadNotFound
	}
	if err != nil {
		return 0, err
	}

	if load.DriverID == nil || *load.DriverID != driverID {
		return 0, ErrNotAssigned
	}

	eta := t.EstimateMinutes(ctx, driverID, load.DropoffLat, load.DropoffLng, t.defaultSpeedKmh)
	if err := t.loads.UpdateLoadFields(ctx, loadID, map[string]any{"eta_minutes": eta}); err != nil {
		return 0, fmt.Errorf("persist eta: %w", err)
	}

	t.pub.Publish(LoadTopic(loadID), EventETAUpdated, map[string]any{
		"loadId":     loadID,
		"etaMinutes": eta,
	})
	return eta, nil
}

// PruneExpired removes samples past the retention window. Invoked by the
// cron sweep, never on the request path.
func (t *LocationTracker) PruneExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-t.retention)
	removed, err := t.samples.DeleteLocationUpdatesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune location samples: %w", err)
	}
	if removed > 0 {
		metrics.LocationSamplesPruned.Add(float64(removed))
		t.log.Info("pruned location samples", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	}
	return removed, nil
}
