package cron

import (
	"os"
	"testing"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"k8s.io/client-go/kubernetes"

	"github.com/customeros/outflow/config"
	cron_config "github.com/customeros/outflow/internal/cron/config"
	"github.com/customeros/outflow/internal/logger"
)

type mockKubernetesInterface struct {
	kubernetes.Interface
	mock.Mock
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func TestNewCronManager(t *testing.T) {
	cfg := &config.Config{
		CampaignConfig: &config.CampaignConfig{
			OutreachBatchLimit: 20,
			FollowUpAgeHours:   72,
		},
	}
	log := getLogger()
	k8s := &mockKubernetesInterface{}

	cm := NewCronManager(cfg, log, k8s, nil, nil)

	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.Equal(t, k8s, cm.k8s)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_RegistersCampaignJobs(t *testing.T) {
	os.Setenv("CRON_SCHEDULE_OUTREACH_BATCH", "0 0 9-17 * * 1-5")
	os.Setenv("CRON_SCHEDULE_FOLLOW_UP_CYCLE", "0 0 10 * * *")
	os.Setenv("CRON_SCHEDULE_INBOX_SYNC", "0 */5 * * * *")
	defer os.Unsetenv("CRON_SCHEDULE_OUTREACH_BATCH")
	defer os.Unsetenv("CRON_SCHEDULE_FOLLOW_UP_CYCLE")
	defer os.Unsetenv("CRON_SCHEDULE_INBOX_SYNC")

	cfg := &config.Config{
		CampaignConfig: &config.CampaignConfig{
			OutreachBatchLimit: 20,
			FollowUpAgeHours:   72,
		},
	}
	cm := NewCronManager(cfg, getLogger(), &mockKubernetesInterface{}, nil, nil)

	mockCron := cronv3.New(cronv3.WithSeconds())

	var cronConfig cron_config.Config
	cronConfig.CronScheduleOutreachBatch = "0 0 9-17 * * 1-5"
	cronConfig.CronScheduleFollowUpCycle = "0 0 10 * * *"
	cronConfig.CronScheduleInboxSync = "0 */5 * * * *"

	id, err := mockCron.AddFunc(cronConfig.CronScheduleOutreachBatch, func() {})
	assert.NoError(t, err)
	cm.jobIDs["outreach_batch"] = id

	followUpId, err := mockCron.AddFunc(cronConfig.CronScheduleFollowUpCycle, func() {})
	assert.NoError(t, err)
	cm.jobIDs["follow_up_cycle"] = followUpId

	inboxId, err := mockCron.AddFunc(cronConfig.CronScheduleInboxSync, func() {})
	assert.NoError(t, err)
	cm.jobIDs["inbox_sync"] = inboxId

	cm.cron = mockCron

	assert.NotNil(t, cm.cron)
	assert.Equal(t, 3, len(cm.jobIDs))
}

func TestCronManager_Stop(t *testing.T) {
	cfg := &config.Config{
		CampaignConfig: &config.CampaignConfig{},
	}
	cm := NewCronManager(cfg, getLogger(), &mockKubernetesInterface{}, nil, nil)

	mockCron := cronv3.New()
	mockCron.Start()
	cm.cron = mockCron

	cm.Stop()

	select {
	case <-cm.stopCh:
		// closed as expected
	default:
		t.Error("Stop channel was not closed")
	}
}
