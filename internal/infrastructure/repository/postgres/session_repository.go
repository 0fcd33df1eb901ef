package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finsightlabs/finsight/internal/core/domain"
)

// SessionRepository persists chat turns per session. The orchestration
// core stays history-in/history-out; only the HTTP adapter goes
// through this store.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) AppendTurns(ctx context.Context, sessionID string, turns []domain.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var lastSeq int64
	row := tx.QueryRowContext(ctx, `
SELECT COALESCE(MAX(seq), 0) FROM session_turns WHERE session_id = $1
`, sessionID)
	if err := row.Scan(&lastSeq); err != nil {
		return fmt.Errorf("read last turn seq: %w", err)
	}

	now := time.Now().UTC()
	for i, turn := range turns {
		_, err := tx.ExecContext(ctx, `
INSERT INTO session_turns (id, session_id, seq, role, content, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, uuid.NewString(), sessionID, lastSeq+int64(i)+1, turn.Role, turn.Content, now)
		if err != nil {
			return fmt.Errorf("insert session turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append tx: %w", err)
	}
	return nil
}

func (r *SessionRepository) RecentTurns(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT role, content
FROM session_turns
WHERE session_id = $1
ORDER BY seq DESC
LIMIT $2
`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent turns: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ConversationTurn, 0, limit)
	for rows.Next() {
		var turn domain.ConversationTurn
		if err := rows.Scan(&turn.Role, &turn.Content); err != nil {
			return nil, fmt.Errorf("scan session turn: %w", err)
		}
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session turns: %w", err)
	}

	// Returned in descending order from SQL; reverse to keep chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
