package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dentalia/clinic-api/internal/model"
)

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.Payload == nil {
		return fmt.Errorf("notification payload cannot be nil")
	}

	query := `
		INSERT INTO notifications (id, type, recipient, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	n.ID = uuid.New()
	n.Status = model.NotificationStatusPending
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.Type,
		n.Recipient,
		n.Payload,
		n.Status,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// ClaimPending fetches a batch of dispatchable rows. SKIP LOCKED lets the API
// process and a standalone worker drain the same outbox without stepping on
// each other.
func (r *notificationRepository) ClaimPending(ctx context.Context, limit int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			SELECT id, type, recipient, payload, status, error_message,
			       retry_count, created_at, processed_at, updated_at
			FROM notifications
			WHERE status = 'pending'
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT $1
		`
		if err := tx.SelectContext(ctx, &notifications, query, limit); err != nil {
			return fmt.Errorf("failed to claim pending notifications: %w", err)
		}

		// Bump updated_at inside the claim so a crashed dispatcher is visible.
		for _, n := range notifications {
			if _, err := tx.ExecContext(ctx,
				`UPDATE notifications SET updated_at = NOW() WHERE id = $1`, n.ID); err != nil {
				return fmt.Errorf("failed to touch notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE notifications
		SET status = 'processed', processed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification processed: %w", err)
	}
	return nil
}

func (r *notificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	query := `
		UPDATE notifications
		SET status = 'failed', error_message = $2,
		    retry_count = retry_count + 1, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, errMsg)
	if err != nil {
		return fmt.Errorf("failed to mark notification failed: %w", err)
	}
	return nil
}

func (r *notificationRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE status = 'pending'`)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending notifications: %w", err)
	}
	return count, nil
}
