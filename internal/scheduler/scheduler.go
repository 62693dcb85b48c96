package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/ecosphere/envcore/internal/enviro"
	"github.com/ecosphere/envcore/internal/store"
)

// Scheduler periodically rebuilds the environmental snapshot for each
// tracked place and caches it.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *enviro.Service
	cache     *store.MemoryStore
	places    []enviro.Place
	interval  time.Duration
}

func New(places []enviro.Place, interval time.Duration, service *enviro.Service, cache *store.MemoryStore) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		cache:     cache,
		places:    places,
		interval:  interval,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if len(s.places) == 0 {
		log.Println("scheduler: no tracked places configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running environmental refresh job")

		var wg sync.WaitGroup
		for _, place := range s.places {
			place := place
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				s.refresh(ctx, place)
			}()
		}
		wg.Wait()
		log.Println("scheduler: completed environmental refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) refresh(ctx context.Context, place enviro.Place) {
	report, err := s.service.BuildEnvironmentalData(ctx, place.Latitude, place.Longitude)
	if err != nil {
		log.Printf("scheduler: report build failed for %s: %v", place.Key(), err)
		return
	}

	score, err := s.service.Score(ctx, place.Latitude, place.Longitude)
	if err != nil {
		log.Printf("scheduler: score failed for %s: %v", place.Key(), err)
		return
	}

	s.cache.SaveSnapshot(place, store.Snapshot{
		Place:     place,
		Report:    report,
		Score:     score,
		Timestamp: report.Timestamp,
	})
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
