package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Distribution cycle over all active automation classes, every 15 minutes
	CronScheduleDistribution string `env:"CRON_SCHEDULE_DISTRIBUTION" envDefault:"0 */15 * * * *"`
	// Daily counter reset, at midnight
	CronScheduleCounterReset string `env:"CRON_SCHEDULE_COUNTER_RESET" envDefault:"0 0 0 * * *"`
}
