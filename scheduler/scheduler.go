// Package scheduler runs the periodic beacon and bulletin jobs for a
// session's lifetime, using robfig/cron/v3's "@every" interval spec as the
// Go stand-in for the original project's APScheduler BackgroundScheduler
// interval jobs (grounded on
// demo_aprs_client_with_dynamic_bulletins.py's add_job(..., coalesce=True,
// max_instances=1) call shape — every job is wrapped in cron's
// SkipIfStillRunning, so a tick that arrives while the previous run of the
// same job is still in progress is skipped rather than run concurrently,
// matching max_instances=1 and coalesce=True).
package scheduler

import (
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler owns the cron runtime for one session. It is created when the
// session connects and at least one job is enabled, and stopped on
// disconnect or shutdown — it never outlives the session that owns it.
type Scheduler struct {
	mu   sync.Mutex
	cron *cron.Cron
	log  *logrus.Logger

	beaconID    cron.EntryID
	bulletinID  cron.EntryID
	hasBeacon   bool
	hasBulletin bool
}

// New constructs a Scheduler. It does not start running until Start is
// called.
func New(log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log,
	}
}

// StartBeacon registers the beacon job at the given "@every" spec (e.g.
// "@every 30m") and fires it once immediately, since cron's "@every" spec
// only fires on the interval boundary rather than at registration time —
// the original project's BackgroundScheduler behaves the same way, so the
// immediate first beacon is an explicit extra call here, not a cron
// feature.
func (s *Scheduler) StartBeacon(everySpec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(everySpec, fn)
	if err != nil {
		return err
	}
	s.beaconID = id
	s.hasBeacon = true
	go fn()
	return nil
}

// StartBulletins registers the periodic bulletin job.
func (s *Scheduler) StartBulletins(everySpec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(everySpec, fn)
	if err != nil {
		return err
	}
	s.bulletinID = id
	s.hasBulletin = true
	return nil
}

// Run starts the cron scheduler's own goroutine. Call after registering
// jobs with StartBeacon/StartBulletins.
func (s *Scheduler) Run() {
	s.cron.Start()
}

// Pause removes all registered jobs without stopping the cron runtime
// itself. cron/v3 has no native pause/resume, so pause is implemented as
// "remove every entry" — equivalent from the caller's perspective, since a
// cron runtime with no entries never fires.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasBeacon {
		s.cron.Remove(s.beaconID)
	}
	if s.hasBulletin {
		s.cron.Remove(s.bulletinID)
	}
	s.hasBeacon = false
	s.hasBulletin = false
}

// Stop removes all jobs and shuts the cron runtime down, waiting for any
// in-flight job to finish.
func (s *Scheduler) Stop() {
	s.Pause()
	ctx := s.cron.Stop()
	<-ctx.Done()
	if s.log != nil {
		s.log.Debug("scheduler stopped")
	}
}
