package interfaces

import "context"

type SchedulerInterface interface {
	Init()
	Stop(ctx context.Context) error
	RunOnce(ctx context.Context)
	BackupNow(ctx context.Context, server string) error
}
