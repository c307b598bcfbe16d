package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthlink/healthlink/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Message Repository ===========

type messageRepoPG struct{ pool *pgxpool.Pool }

func NewMessageRepoPG(pool *pgxpool.Pool) MessageRepository {
	return &messageRepoPG{pool: pool}
}

func (r *messageRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const messageCols = `id, seq, conversation_id, sender_id, receiver_id, body, read, created_at`

func (r *messageRepoPG) scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.Seq, &m.ConversationID, &m.SenderID, &m.ReceiverID,
		&m.Body, &m.Read, &m.CreatedAt)
	return &m, err
}

func (r *messageRepoPG) Append(ctx context.Context, m *Message) error {
	m.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO message (id, conversation_id, sender_id, receiver_id, body)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING seq, read, created_at`,
		m.ID, m.ConversationID, m.SenderID, m.ReceiverID, m.Body).
		Scan(&m.Seq, &m.Read, &m.CreatedAt)
}

func (r *messageRepoPG) ListByConversation(ctx context.Context, conversationID string) ([]*Message, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+messageCols+` FROM message
		WHERE conversation_id = $1
		ORDER BY created_at ASC, seq ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Message
	for rows.Next() {
		m, err := r.scanMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *messageRepoPG) MarkConversationRead(ctx context.Context, conversationID string, receiverID uuid.UUID) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE message SET read = TRUE
		WHERE conversation_id = $1 AND receiver_id = $2 AND read = FALSE`,
		conversationID, receiverID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *messageRepoPG) UnreadCount(ctx context.Context, receiverID uuid.UUID) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM message
		WHERE receiver_id = $1 AND read = FALSE`, receiverID).Scan(&count)
	return count, err
}

// =========== Conversation Repository ===========

type conversationRepoPG struct{ pool *pgxpool.Pool }

func NewConversationRepoPG(pool *pgxpool.Pool) ConversationRepository {
	return &conversationRepoPG{pool: pool}
}

func (r *conversationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *conversationRepoPG) Touch(ctx context.Context, a, b uuid.UUID, lastMessage string, at time.Time) error {
	low, high := sortedPair(a, b)
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO conversation (id, conversation_id, participant_low, participant_high, last_message, last_message_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (conversation_id)
		DO UPDATE SET last_message = EXCLUDED.last_message, last_message_at = EXCLUDED.last_message_at`,
		uuid.New(), ConversationKey(a, b), low, high, lastMessage, at)
	return err
}

func (r *conversationRepoPG) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, conversation_id, participant_low, participant_high, last_message, last_message_at
		FROM conversation
		WHERE participant_low = $1 OR participant_high = $1
		ORDER BY last_message_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Conversation
	for rows.Next() {
		var cv Conversation
		if err := rows.Scan(&cv.ID, &cv.ConversationID, &cv.ParticipantLow, &cv.ParticipantHigh,
			&cv.LastMessage, &cv.LastMessageAt); err != nil {
			return nil, err
		}
		items = append(items, &cv)
	}
	return items, rows.Err()
}
