package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Outreach batch, hourly during business hours (UTC)
	CronScheduleOutreachBatch string `env:"CRON_SCHEDULE_OUTREACH_BATCH" envDefault:"0 0 9-17 * * 1-5"`
	// Follow-up cycle, daily at 10:00 UTC
	CronScheduleFollowUpCycle string `env:"CRON_SCHEDULE_FOLLOW_UP_CYCLE" envDefault:"0 0 10 * * *"`
	// Inbox sync, every 5 minutes
	CronScheduleInboxSync string `env:"CRON_SCHEDULE_INBOX_SYNC" envDefault:"0 */5 * * * *"`
}
