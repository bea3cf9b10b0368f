package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/mother-community/internal/domain/entity"
	"github.com/oksasatya/mother-community/internal/domain/repository"
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

const messageColumns = `id, sender_id, receiver_id, content, created_at, read_at`

func (r *MessageRepository) Create(ctx context.Context, m *entity.Message) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, read_at
	`, m.SenderID, m.ReceiverID, m.Content)
	return row.Scan(&m.ID, &m.CreatedAt, &m.ReadAt)
}

func (r *MessageRepository) ListConversation(ctx context.Context, a, b string) ([]entity.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at, id
	`, a, b)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *MessageRepository) ListInbox(ctx context.Context, receiverID string) ([]entity.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.sender_id, m.receiver_id, m.content, m.created_at, m.read_at,
		       COALESCE(p.full_name, '')
		FROM messages m
		LEFT JOIN profiles p ON p.id = m.sender_id
		WHERE m.receiver_id = $1
		ORDER BY m.created_at DESC, m.id
	`, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Message, 0)
	for rows.Next() {
		var m entity.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt, &m.ReadAt, &m.SenderName); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead only touches rows that are still unread, so read_at never moves
// once set.
func (r *MessageRepository) MarkRead(ctx context.Context, receiverID string, ids []string, at time.Time) ([]entity.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		UPDATE messages SET read_at = $1
		WHERE id = ANY($2) AND receiver_id = $3 AND read_at IS NULL
		RETURNING `+messageColumns, at, ids, receiverID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *MessageRepository) CountUnread(ctx context.Context, receiverID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM messages WHERE receiver_id = $1 AND read_at IS NULL
	`, receiverID).Scan(&n)
	return n, err
}

func collectMessages(rows pgx.Rows) ([]entity.Message, error) {
	defer rows.Close()
	out := make([]entity.Message, 0)
	for rows.Next() {
		var m entity.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt, &m.ReadAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

var _ repository.MessageRepository = (*MessageRepository)(nil)
