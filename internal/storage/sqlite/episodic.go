package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/pkg/log"
)

// EpisodicRepo is the append-only conversation log backed by sqlite.
type EpisodicRepo struct {
	db *sql.DB
}

func NewEpisodicRepo(db *sql.DB) *EpisodicRepo {
	return &EpisodicRepo{db: db}
}

func (r *EpisodicRepo) CreateConversation(ctx context.Context, userID string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id) VALUES (?, ?)`,
		id, userID,
	)
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}

	log.FromCtx(ctx).Debug().Str("conversation_id", id).Msg("created conversation")
	return id, nil
}

func (r *EpisodicRepo) AppendMessage(ctx context.Context, userID, conversationID string, msg core.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO episodic (conversation_id, user_id, role, content, tool_name) VALUES (?, ?, ?, ?, ?)`,
		conversationID, userID, msg.Role, msg.Content, msg.ToolName,
	)
	if err != nil {
		return fmt.Errorf("append episodic message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		conversationID,
	)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	return tx.Commit()
}

func (r *EpisodicRepo) Query(ctx context.Context, userID string, filter core.EpisodicFilter, limit int) ([]core.EpisodicRecord, error) {
	query := `SELECT id, conversation_id, user_id, role, content, tool_name, created_at
		FROM episodic WHERE user_id = ?`
	args := []any{userID}

	if filter.ConversationID != "" {
		query += ` AND conversation_id = ?`
		args = append(args, filter.ConversationID)
	}
	if filter.ContentMatch != "" {
		query += ` AND content LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(filter.ContentMatch)+"%")
	}

	// Newest first so the limit keeps the most recent matches.
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query episodic: %w", err)
	}
	defer rows.Close()

	var records []core.EpisodicRecord
	for rows.Next() {
		var rec core.EpisodicRecord
		var id int64
		if err := rows.Scan(&id, &rec.ConversationID, &rec.UserID,
			&rec.Message.Role, &rec.Message.Content, &rec.Message.ToolName, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.ID = strconv.FormatInt(id, 10)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *EpisodicRepo) Conversation(ctx context.Context, conversationID string) (*core.Conversation, error) {
	conv := &core.Conversation{ID: conversationID}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, created_at, updated_at FROM conversations WHERE id = ?`,
		conversationID,
	).Scan(&conv.UserID, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation %s not found", conversationID)
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT role, content, tool_name FROM episodic WHERE conversation_id = ? ORDER BY id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("load conversation messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg core.Message
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.ToolName); err != nil {
			return nil, err
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return conv, rows.Err()
}

func (r *EpisodicRepo) UserConversations(ctx context.Context, userID string, limit int) ([]core.Conversation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM conversations
		 WHERE user_id = ? ORDER BY updated_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []core.Conversation
	for rows.Next() {
		var c core.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (r *EpisodicRepo) DeleteConversation(ctx context.Context, conversationID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM episodic WHERE conversation_id = ?`, conversationID); err != nil {
		return fmt.Errorf("delete episodic messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return tx.Commit()
}
