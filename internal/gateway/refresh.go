package gateway

import (
	"context"
	"database/sql"
	"time"

	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/store"
	"github.com/dukerupert/taskchamp/internal/websocket"
)

// TriggerTaskRefresh is the trigger_task_refresh procedure. It archives the
// admin's tasks under today's date, clears completion and zeroes daily points,
// all in one transaction.
func (g *Local) TriggerTaskRefresh(ctx context.Context) (ack *model.RefreshAck, err error) {
	defer g.observe("trigger_task_refresh", &err)

	adminID, err := g.adminID(ctx)
	if err != nil {
		return nil, err
	}
	now := g.now()
	ack = &model.RefreshAck{TaskDate: now.Format(time.DateOnly)}

	err = store.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		archived, err := store.NewHistoryStore(tx).Archive(ctx, adminID, ack.TaskDate)
		if err != nil {
			return err
		}
		if _, err := store.NewTaskStore(tx).ResetCompleted(ctx, adminID); err != nil {
			return err
		}
		reset, err := store.NewMemberStore(tx).ResetDailyPoints(ctx, adminID)
		if err != nil {
			return err
		}
		ack.TasksArchived = int(archived)
		ack.MembersReset = int(reset)
		return nil
	})
	if err != nil {
		return nil, err
	}
	ack.AcknowledgedAt = now
	g.logger.Info("day refreshed", "admin_id", adminID, "task_date", ack.TaskDate,
		"tasks_archived", ack.TasksArchived, "members_reset", ack.MembersReset)
	g.publish(websocket.AdminTopic(adminID), websocket.NewMessage("day", "refreshed", 0, nil))
	return ack, nil
}

// RefreshSettled reports whether the admin has no completed tasks and no
// pending daily points left, i.e. a refresh has fully landed.
func (g *Local) RefreshSettled(ctx context.Context) (settled bool, err error) {
	defer g.observe("refresh_settled", &err)

	adminID, err := g.adminID(ctx)
	if err != nil {
		return false, err
	}
	completed, daily, err := store.NewTaskStore(g.db).CountPending(ctx, adminID)
	if err != nil {
		return false, err
	}
	return completed == 0 && daily == 0, nil
}
