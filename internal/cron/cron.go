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

	"github.com/customeros/outflow/config"
	"github.com/customeros/outflow/interfaces"
	cron_config "github.com/customeros/outflow/internal/cron/config"
	"github.com/customeros/outflow/internal/logger"
	"github.com/customeros/outflow/internal/tracing"
)

const (
	// GroupCampaign serializes every job that sends through the mailbox, so
	// the limiter's check-then-register sequence never runs concurrently
	GroupCampaign = "campaign"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupCampaign: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg      *config.Config
	log      logger.Logger
	cron     *cronv3.Cron
	k8s      kubernetes.Interface
	stopCh   chan struct{}
	jobIDs   map[string]cronv3.EntryID
	campaign interfaces.CampaignService
	inbox    interfaces.InboxSyncService
}

func NewCronManager(cfg *config.Config, log logger.Logger, k8s kubernetes.Interface, campaign interfaces.CampaignService, inbox interfaces.InboxSyncService) *CronManager {
	return &CronManager{
		cfg:      cfg,
		log:      log,
		k8s:      k8s,
		stopCh:   make(chan struct{}),
		jobIDs:   make(map[string]cronv3.EntryID),
		campaign: campaign,
		inbox:    inbox,
	}
}

// Start initializes and starts the cron manager with leader election.
// If k8s is nil, it will start in local mode without leader election.
func (cm *CronManager) Start(podName, namespace string) error {
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "outflow-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	errCh := make(chan error, 1)

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
		le.Run(context.Background())
	}()

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
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

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

	if cronConfig.CronScheduleOutreachBatch != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleOutreachBatch, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupCampaign].Lock()
			defer jobLocks.locks[GroupCampaign].Unlock()
			cm.runOutreachBatch()
		})
		if err != nil {
			cm.log.Fatalf("Could not add outreach batch cron job: %v", err)
		}
		cm.jobIDs["outreach_batch"] = id
		cm.log.Infof("Registered outreach batch job with schedule: %s", cronConfig.CronScheduleOutreachBatch)
	}

	if cronConfig.CronScheduleFollowUpCycle != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleFollowUpCycle, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupCampaign].Lock()
			defer jobLocks.locks[GroupCampaign].Unlock()
			cm.runFollowUpCycle()
		})
		if err != nil {
			cm.log.Fatalf("Could not add follow-up cycle cron job: %v", err)
		}
		cm.jobIDs["follow_up_cycle"] = id
		cm.log.Infof("Registered follow-up cycle job with schedule: %s", cronConfig.CronScheduleFollowUpCycle)
	}

	if cronConfig.CronScheduleInboxSync != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleInboxSync, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.runInboxSync()
		})
		if err != nil {
			cm.log.Fatalf("Could not add inbox sync cron job: %v", err)
		}
		cm.jobIDs["inbox_sync"] = id
		cm.log.Infof("Registered inbox sync job with schedule: %s", cronConfig.CronScheduleInboxSync)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

func (cm *CronManager) runOutreachBatch() {
	ctx := context.Background()
	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.runOutreachBatch")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	sent, err := cm.campaign.RunOutreachBatch(ctx, cm.cfg.CampaignConfig.OutreachBatchLimit)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Outreach batch failed: %v", err)
		return
	}
	cm.log.Infof("Outreach batch finished, %d emails sent", sent)
}

func (cm *CronManager) runFollowUpCycle() {
	ctx := context.Background()
	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.runFollowUpCycle")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	olderThan := time.Duration(cm.cfg.CampaignConfig.FollowUpAgeHours) * time.Hour
	sent, err := cm.campaign.RunFollowUpCycle(ctx, olderThan)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Follow-up cycle failed: %v", err)
		return
	}
	cm.log.Infof("Follow-up cycle finished, %d emails sent", sent)
}

func (cm *CronManager) runInboxSync() {
	ctx := context.Background()
	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.runInboxSync")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	processed, err := cm.inbox.SyncOnce(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Inbox sync failed: %v", err)
		return
	}
	if processed > 0 {
		cm.log.Infof("Inbox sync processed %d new replies", processed)
	}
}
