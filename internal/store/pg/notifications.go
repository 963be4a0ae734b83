package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"auditline.org/internal/ids"
	"auditline.org/internal/notify"
	"auditline.org/internal/session"
)

var _ notify.Log = (*Store)(nil)

// InsertNotification persists an event and returns it with its assigned
// cursor ID. IDs are ULIDs, so lexicographic order matches arrival order.
func (s *Store) InsertNotification(ctx context.Context, kind, message string) (notify.Notification, error) {
	n := notify.Notification{
		ID:        ids.New(),
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		insert into notifications (id, kind, message, read, created_at)
		values ($1, $2, $3, false, $4)
	`, n.ID, n.Kind, n.Message, n.CreatedAt)
	if err != nil {
		return notify.Notification{}, err
	}
	return n, nil
}

// NotificationsAfter returns events with an ID greater than the cursor,
// oldest first. An empty cursor returns everything.
func (s *Store) NotificationsAfter(ctx context.Context, cursor string, limit int) ([]notify.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, kind, message, read, created_at
		from notifications
		where id > $1
		order by id asc
		limit $2
	`, cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []notify.Notification
	for rows.Next() {
		var n notify.Notification
		if err := rows.Scan(&n.ID, &n.Kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// MarkNotificationRead flips the read flag for one event.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `update notifications set read=true where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", notify.ErrNotFound, id)
	}
	return nil
}

// SaveProfile upserts the auditor profile delivered at login time.
func (s *Store) SaveProfile(ctx context.Context, p session.Profile) error {
	permissions, err := json.Marshal(p.Permissions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into profiles (id, user_id, name, email, role_name, permissions, updated_at)
		values ($1, $2, $3, $4, $5, $6, now())
		on conflict (user_id) do update
		set name = excluded.name,
		    email = excluded.email,
		    role_name = excluded.role_name,
		    permissions = excluded.permissions,
		    updated_at = now()
	`, p.ID, p.UserID, p.Name, p.Email, p.RoleName, permissions)
	return err
}

// GetProfile loads the stored profile for a user.
func (s *Store) GetProfile(ctx context.Context, userID string) (session.Profile, error) {
	var (
		p   session.Profile
		raw []byte
	)
	row := s.db.QueryRowContext(ctx, `
		select id, user_id, name, email, role_name, permissions
		from profiles where user_id=$1
	`, userID)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.RoleName, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Profile{}, session.ErrProfileNotFound
		}
		return session.Profile{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Permissions); err != nil {
			return session.Profile{}, fmt.Errorf("decode permissions for user %s: %w", userID, err)
		}
	}
	return p, nil
}

// ListProfiles returns every stored profile, sorted by name. This backs the
// pre-login selection screen, so the result is never filtered by actor.
func (s *Store) ListProfiles(ctx context.Context) ([]session.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, user_id, name, email, role_name, permissions
		from profiles
		order by name asc, user_id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]session.Profile, 0)
	for rows.Next() {
		var (
			p   session.Profile
			raw []byte
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.RoleName, &raw); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p.Permissions); err != nil {
				return nil, fmt.Errorf("decode permissions for user %s: %w", p.UserID, err)
			}
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
