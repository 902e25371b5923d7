package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
)

const syncJobName = "attendance.sync_pending"

// PendingSyncer pushes locally applied records to the remote store
type PendingSyncer interface {
	SyncPending(ctx context.Context) (int, error)
}

// RegisterAttendanceSync schedules the push of unsynced attendance. A run may use at most one interval.
func RegisterAttendanceSync(scheduler *Scheduler, syncer PendingSyncer, interval time.Duration) {
	scheduler.Register(Job{
		Name:     syncJobName,
		Interval: interval,
		Timeout:  interval,
		Fn: func(ctx context.Context) error {
			synced, err := syncer.SyncPending(ctx)
			if err != nil {
				return fmt.Errorf("sync pending attendance: %w", err)
			}
			if synced > 0 {
				slog.Info("Pushed pending attendance", "count", synced)
			}
			return nil
		},
	})
}

var _ PendingSyncer = (attendance.AttendanceService)(nil)
