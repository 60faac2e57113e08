package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one recurring entry in the scheduler.
type Job struct {
	Name     string
	Schedule string
	TaskName string
}

// JobStatus is the externally visible state of a scheduled job.
type JobStatus struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	TaskName string `json:"task"`
	NextRun  string `json:"next_run,omitempty"`
}

// Scheduler runs named tasks on cron schedules (with a seconds field)
// and caps how many run at once.
type Scheduler struct {
	cron          *cron.Cron
	logger        *logrus.Logger
	maxConcurrent int

	mu      sync.RWMutex
	started bool
	tasks   map[string]func() error
	entries map[string]cron.EntryID
	jobs    map[string]Job

	activeJobs     int
	activeJobsLock sync.Mutex
}

func NewScheduler(logger *logrus.Logger, maxConcurrent int) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		logger:        logger,
		maxConcurrent: maxConcurrent,
		tasks:         make(map[string]func() error),
		entries:       make(map[string]cron.EntryID),
		jobs:          make(map[string]Job),
	}
}

// RegisterTask makes a task callable by scheduled jobs.
func (s *Scheduler) RegisterTask(name string, task func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[name] = task
}

// AddJob schedules a registered task.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[job.TaskName]
	if !exists {
		return fmt.Errorf("task %s not registered", job.TaskName)
	}
	if _, exists := s.entries[job.Name]; exists {
		return fmt.Errorf("job %s already scheduled", job.Name)
	}

	wrapper := func() {
		s.activeJobsLock.Lock()
		if s.activeJobs >= s.maxConcurrent {
			s.activeJobsLock.Unlock()
			s.logger.Warnf("Max concurrent jobs reached, skipping job: %s", job.Name)
			return
		}
		s.activeJobs++
		s.activeJobsLock.Unlock()

		s.logger.WithFields(logrus.Fields{
			"job_name": job.Name,
			"schedule": job.Schedule,
			"task":     job.TaskName,
		}).Info("Starting job execution")

		start := time.Now()

		if err := task(); err != nil {
			s.logger.WithFields(logrus.Fields{
				"job_name": job.Name,
				"error":    err.Error(),
				"duration": time.Since(start).Round(time.Millisecond).String(),
			}).Error("Job execution failed")
		} else {
			s.logger.WithFields(logrus.Fields{
				"job_name": job.Name,
				"duration": time.Since(start).Round(time.Millisecond).String(),
			}).Info("Job execution completed successfully")
		}

		s.activeJobsLock.Lock()
		s.activeJobs--
		s.activeJobsLock.Unlock()
	}

	id, err := s.cron.AddFunc(job.Schedule, wrapper)
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name, err)
	}

	s.entries[job.Name] = id
	s.jobs[job.Name] = job
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("Scheduler started")
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.started = false
	s.logger.Info("Scheduler stopped")
}

// Jobs returns the status of all scheduled jobs.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for name, job := range s.jobs {
		status := JobStatus{
			Name:     name,
			Schedule: job.Schedule,
			TaskName: job.TaskName,
		}
		if id, ok := s.entries[name]; ok {
			if next := s.cron.Entry(id).Next; !next.IsZero() {
				status.NextRun = next.Format(time.RFC3339)
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}
