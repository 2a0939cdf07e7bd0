package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/permitleads/leadstack/config"
	cron_config "github.com/permitleads/leadstack/internal/cron/config"
	"github.com/permitleads/leadstack/internal/logger"
	"github.com/permitleads/leadstack/internal/tracing"
	"github.com/permitleads/leadstack/services/distributor"
)

// CONSTANTS
const (
	// GroupLeadstack is the group for lead routing jobs
	GroupLeadstack = "leadstack"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupLeadstack: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg         *config.Config
	log         logger.Logger
	cron        *cronv3.Cron
	k8s         kubernetes.Interface
	stopCh      chan struct{}
	jobIDs      map[string]cronv3.EntryID
	distributor *distributor.Service
	classes     ClassCounterResetter
}

// ClassCounterResetter is the slice of the class repository the midnight job needs.
type ClassCounterResetter interface {
	ResetDailyCounters(ctx context.Context) error
}

func NewCronManager(cfg *config.Config, log logger.Logger, k8s kubernetes.Interface, engine *distributor.Service, classes ClassCounterResetter) *CronManager {
	return &CronManager{
		cfg:         cfg,
		log:         log,
		k8s:         k8s,
		stopCh:      make(chan struct{}),
		jobIDs:      make(map[string]cronv3.EntryID),
		distributor: engine,
		classes:     classes,
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start(podName, namespace string) error {
	// If k8s client is nil or we're in local development, start in local mode
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	// Create the leader election lock
	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "leadstack-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	// Channel to track leader election errors
	errCh := make(chan error, 1)

	// Start leader election
	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					cm.StartCron()
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.Stop()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}

		ctx := context.Background()
		le.Run(ctx)
	}()

	// Wait briefly to see if leader election fails immediately
	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		cm.StartCron()
	case <-time.After(5 * time.Second):
		// Leader election seems to be working, continue normally
	}

	return nil
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	// Load cron config from environment variables
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	// Register heartbeat job
	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	// Distribution cycle over all active automation classes
	if cronConfig.CronScheduleDistribution != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleDistribution, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupLeadstack].Lock()
			defer jobLocks.locks[GroupLeadstack].Unlock()
			cm.runDistributionCycle()
		})
		if err != nil {
			cm.log.Fatalf("Could not add distribution cron job: %v", err)
		}
		cm.jobIDs["distribution"] = id
		cm.log.Infof("Registered distribution job with schedule: %s", cronConfig.CronScheduleDistribution)
	}

	// Daily counter reset
	if cronConfig.CronScheduleCounterReset != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleCounterReset, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupLeadstack].Lock()
			defer jobLocks.locks[GroupLeadstack].Unlock()
			cm.resetDailyCounters()
		})
		if err != nil {
			cm.log.Fatalf("Could not add counter reset cron job: %v", err)
		}
		cm.jobIDs["counter_reset"] = id
		cm.log.Infof("Registered counter reset job with schedule: %s", cronConfig.CronScheduleCounterReset)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	// Create a new cron with seconds field enabled and panic recovery
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger), // Skip if still running
			cronv3.Recover(cronv3.DefaultLogger),            // Default recovery as backup
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

func (cm *CronManager) runDistributionCycle() {
	cm.log.Info("Running distribution cycle")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.runDistributionCycle")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	results, err := cm.distributor.RunAll(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Distribution cycle failed: %v", err)
		return
	}

	accepted := 0
	for _, result := range results {
		accepted += result.Accepted
	}
	cm.log.Infof("Distribution cycle completed: %d classes run, %d leads accepted", len(results), accepted)
}

func (cm *CronManager) resetDailyCounters() {
	cm.log.Info("Resetting daily lead counters")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.resetDailyCounters")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if err := cm.classes.ResetDailyCounters(ctx); err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to reset daily counters: %v", err)
		return
	}

	cm.log.Info("Successfully reset daily lead counters")
}
