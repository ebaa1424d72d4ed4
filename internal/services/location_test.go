package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/loadlink/loadlink-backend/internal/models"
)

func newTrackerFixture(loads ...*models.Load) (*LocationTracker, *fakeLocationStore, *fakeLoadStore, *fakePublisher) {
	samples := &fakeLocationStore{}
	loadStore := newFakeLoadStore(loads...)
	publisher := &fakePublisher{}
	tracker := NewLocationTracker(samples, loadStore, nil, publisher, zap.NewNop(), 60, 30)
	return tracker, samples, loadStore, publisher
}

func TestRecordSampleRejectsBadCoordinates(t *testing.T) {
	t.Parallel()

	tracker, samples, _, _ := newTrackerFixture()

	if _, err := tracker.RecordSample(context.Background(), 1, 91, 0, nil); err == nil {
		t.Error("latitude 91 accepted")
	}
	if _, err := tracker.RecordSample(context.Background(), 1, 0, -181, nil); err == nil {
		t.Error("longitude -181 accepted")
	}
	if len(samples.samples) != 0 {
		t.Errorf("persisted %d samples, want 0", len(samples.samples))
	}
}

func TestRecordSamplePublishesForTrackedLoad(t *testing.T) {
	t.Parallel()

	tracker, _, _, publisher := newTrackerFixture()

	loadID := uint(4)
	if _, err := tracker.RecordSample(context.Background(), 1, 5.6, -0.19, &loadID); err != nil {
		t.Fatalf("RecordSample() error = %v", err)
	}

	events := publisher.onTopic(LoadTopic(loadID))
	if len(events) != 1 {
		t.Fatalf("load topic events = %d, want 1", len(events))
	}
	if events[0].eventType != EventLocationUpdated {
		t.Errorf("event type = %q, want %q", events[0].eventType, EventLocationUpdated)
	}
}

func TestRecordSampleWithoutLoadStaysQuiet(t *testing.T) {
	t.Parallel()

	tracker, _, _, publisher := newTrackerFixture()

	if _, err := tracker.RecordSample(context.Background(), 1, 5.6, -0.19, nil); err != nil {
		t.Fatalf("RecordSample() error = %v", err)
	}
	if len(publisher.events) != 0 {
		t.Errorf("published %d events for untracked sample, want 0", len(publisher.events))
	}
}

func TestLatestSampleReturnsNewest(t *testing.T) {
	t.Parallel()

	tracker, samples, _, _ := newTrackerFixture()
	now := time.Now()
	samples.CreateLocationUpdate(context.Background(), &models.LocationUpdate{
		DriverID: 1, Latitude: 5.0, Longitude: 0, RecordedAt: now.Add(-time.Hour),
	})
	samples.CreateLocationUpdate(context.Background(), &models.LocationUpdate{
		DriverID: 1, Latitude: 5.5, Longitude: 0, RecordedAt: now,
	})

	sample, err := tracker.LatestSample(context.Background(), 1)
	if err != nil {
		t.Fatalf("LatestSample() error = %v", err)
	}
	if sample.Latitude != 5.5 {
		t.Errorf("latitude = %v, want newest sample 5.5", sample.Latitude)
	}
}

func TestLatestSampleMissingDriver(t *testing.T) {
	t.Parallel()

	tracker, _, _, _ := newTrackerFixture()
	if _, err := tracker.LatestSample(context.Background(), 42); !errors.Is(err, ErrNoSample) {
		t.Fatalf("LatestSample() error = %v, want ErrNoSample", err)
	}
}

func TestEstimateMinutesRoundsUp(t *testing.T) {
	t.Parallel()

	tracker, samples, _, _ := newTrackerFixture()

	// 0.55 degrees of latitude is 61.2 km; at 60 km/h that is 61.2 minutes
	// and must round up to 62.
	samples.CreateLocationUpdate(context.Background(), &models.LocationUpdate{
		DriverID: 1, Latitude: 0.55, Longitude: 0, RecordedAt: time.Now(),
	})

	if got := tracker.EstimateMinutes(context.Background(), 1, 0, 0, 60); got != 62 {
		t.Errorf("EstimateMinutes() = %d, want 62", got)
	}
}

func TestEstimateMinutesZeroDistance(t *testing.T) {
	t.Parallel()

	tracker, samples, _, _ := newTrackerFixture()
	samples.CreateLocationUpdate(context.Background(), &models.LocationUpdate{
		DriverID: 1, Latitude: 5.6, Longitude: -0.19, RecordedAt: time.Now(),
	})

	if got := tracker.EstimateMinutes(context.Background(), 1, 5.6, -0.19, 60); got != 0 {
		t.Errorf("EstimateMinutes() at destination = %d, want 0", got)
	}
}

func TestEstimateMinutesWithoutSample(t *testing.T) {
	t.Parallel()

	tracker, _, _, _ := newTrackerFixture()
	if got := tracker.EstimateMinutes(context.Background(), 1, 5.6, -0.19, 60); got != 0 {
		t.Errorf("EstimateMinutes() without sample = %d, want 0", got)
	}
}

func TestRefreshLoadETAPersistsAndBroadcasts(t *testing.T) {
	t.Parallel()

	driverID := uint(2)
	load := &models.Load{
		Model:      gorm.Model{ID: 9},
		CustomerID: 1,
		DriverID:   &driverID,
		Status:     models.LoadStatusInTransit,
		DropoffLat: 0,
		DropoffLng: 0,
	}
	tracker, samples, loadStore, publisher := newTrackerFixture(load)
	samples.CreateLocationUpdate(context.Background(), &models.LocationUpdate{
		DriverID: driverID, Latitude: 0.267, Longitude: 0, RecordedAt: time.Now(),
	})

	eta, err := tracker.RefreshLoadETA(context.Background(), 9, driverID)
	if err != nil {
		t.Fatalf("RefreshLoadETA() error = %v", err)
	}
	if eta != 30 {
		t.Errorf("eta = %d, want 30", eta)
	}

	stored, _ := loadStore.GetLoad(context.Background(), 9)
	if stored.EtaMinutes != 30 {
		t.Errorf("persisted eta = %d, want 30", stored.EtaMinutes)
	}
	if events := publisher.onTopic(LoadTopic(9)); len(events) != 1 || events[0].eventType != EventETAUpdated {
		t.Errorf("load topic events = %v, want one eta_updated", events)
	}
}

func TestRefreshLoadETARejectsUnassignedDriver(t *testing.T) {
	t.Parallel()

	driverID := uint(2)
	load := &models.Load{
		Model: gorm.Model{ID: 9}, CustomerID: 1, DriverID: &driverID,
		Status: models.LoadStatusInTransit,
	}
	tracker, _, _, _ := newTrackerFixture(load)

	if _, err := tracker.RefreshLoadETA(context.Background(), 9, 5); !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("RefreshLoadETA() error = %v, want ErrNotAssigned", err)
	}
}

func TestPruneExpiredRemovesOnlyOldSamples(t *testing.T) {
	t.Parallel()

	tracker, samples, _, _ := newTrackerFixture()
	now := time.Now()
	samples.CreateLocationUpdate(context.Background(), &models.LocationUpdate{
		DriverID: 1, RecordedAt: now.Add(-40 * 24 * time.Hour),
	})
	samples.CreateLocationUpdate(context.Background(), &models.LocationUpdate{
		DriverID: 1, RecordedAt: now.Add(-31 * 24 * time.Hour),
	})
	samples.CreateLocationUpdate(context.Background(), &models.LocationUpdate{
		DriverID: 1, RecordedAt: now,
	})

	removed, err := tracker.PruneExpired(context.Background())
	if err != nil {
		t.Fatalf("PruneExpired() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if len(samples.samples) != 1 {
		t.Errorf("remaining samples = %d, want 1", len(samples.samples))
	}
}
