package cron

import (
	"os"
	"testing"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"k8s.io/client-go/kubernetes"

	"github.com/permitleads/leadstack/config"
	cron_config "github.com/permitleads/leadstack/internal/cron/config"
	"github.com/permitleads/leadstack/internal/logger"
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
	// Arrange
	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
		Logger:    &logger.Config{LogLevel: "info"},
	}
	log := getLogger()
	k8s := &mockKubernetesInterface{}

	// Act
	cm := NewCronManager(cfg, log, k8s, nil, nil)

	// Assert
	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.Equal(t, k8s, cm.k8s)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_RegisterJobs(t *testing.T) {
	os.Setenv("CRON_SCHEDULE_DISTRIBUTION", "0 */15 * * * *")
	os.Setenv("CRON_SCHEDULE_COUNTER_RESET", "0 0 0 * * *")
	defer os.Unsetenv("CRON_SCHEDULE_DISTRIBUTION")
	defer os.Unsetenv("CRON_SCHEDULE_COUNTER_RESET")

	// Arrange
	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
		Logger:    &logger.Config{LogLevel: "info"},
	}
	log := getLogger()
	k8s := &mockKubernetesInterface{}
	cm := NewCronManager(cfg, log, k8s, nil, nil)

	mockCron := cronv3.New(cronv3.WithSeconds())

	var cronConfig cron_config.Config
	cronConfig.CronScheduleDistribution = "0 */15 * * * *"
	cronConfig.CronScheduleCounterReset = "0 0 0 * * *"

	// Act - register jobs manually
	distributionId, err := mockCron.AddFunc(cronConfig.CronScheduleDistribution, func() {})
	assert.NoError(t, err)
	cm.jobIDs["distribution"] = distributionId

	resetId, err := mockCron.AddFunc(cronConfig.CronScheduleCounterReset, func() {})
	assert.NoError(t, err)
	cm.jobIDs["counter_reset"] = resetId

	cm.cron = mockCron

	// Assert
	assert.NotNil(t, cm.cron)
	assert.Equal(t, 2, len(cm.jobIDs))
}

func TestCronManager_Stop(t *testing.T) {
	// Arrange
	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
		Logger:    &logger.Config{LogLevel: "info"},
	}
	log := getLogger()
	k8s := &mockKubernetesInterface{}
	cm := NewCronManager(cfg, log, k8s, nil, nil)

	mockCron := cronv3.New()
	mockCron.Start()
	cm.cron = mockCron

	// Act
	cm.Stop()

	// Assert
	select {
	case <-cm.stopCh:
		// Channel is closed as expected
	default:
		t.Error("Stop channel was not closed")
	}
}
