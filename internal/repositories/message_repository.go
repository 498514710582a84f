package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chat-gateway/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// CreateMessageParams carries everything needed to persist a new message.
// Exactly one of SingleChatID/GroupID must be set; the table check constraint
// backs this up.
type CreateMessageParams struct {
	SenderID        string
	SingleChatID    *string
	GroupID         *string
	Content         string
	MessageType     string
	ParentMessageID *string
}

// MessageRepository defines interactions with the message store.
type MessageRepository interface {
	CreateMessage(ctx context.Context, params CreateMessageParams) (models.Message, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	GetMessageView(ctx context.Context, messageID string) (models.MessageView, error)
	UpdateMessageContent(ctx context.Context, messageID string, content string) error
	SoftDeleteMessage(ctx context.Context, messageID string) error
	ListBySingleChat(ctx context.Context, chatID string) ([]models.MessageView, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.MessageView, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, sender_id, single_chat_id, group_id, content, message_type, parent_message_id, created_at, edited_at, deleted_at`

// CreateMessage persists a new message and returns the stored row.
func (r *MessageRepo) CreateMessage(ctx context.Context, params CreateMessageParams) (models.Message, error) {
	messageType := params.MessageType
	if messageType == "" {
		messageType = models.MessageTypeText
	}

	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, sender_id, single_chat_id, group_id, content, message_type, parent_message_id)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+messageColumns,
		uuid.NewString(), params.SenderID, params.SingleChatID, params.GroupID,
		params.Content, messageType, params.ParentMessageID).StructScan(&msg)
	return msg, err
}

// GetMessage retrieves a single message, soft-deleted rows included.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// GetMessageView retrieves a message with its sender attached.
func (r *MessageRepo) GetMessageView(ctx context.Context, messageID string) (models.MessageView, error) {
	row := r.db.QueryRowxContext(ctx,
		`SELECT m.id, m.sender_id, m.single_chat_id, m.group_id, m.content, m.message_type,
                m.parent_message_id, m.created_at, m.edited_at, m.deleted_at,
                COALESCE(u.username, '') AS sender_username, COALESCE(u.created_at, m.created_at) AS sender_created_at
         FROM messages m
         LEFT JOIN users u ON u.id = m.sender_id
         WHERE m.id=$1`, messageID)
	view, err := scanMessageView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MessageView{}, ErrMessageNotFound
	}
	return view, err
}

// UpdateMessageContent replaces the content and stamps edited_at. Plain
// update, not compare-and-swap; concurrent edits are last-write-wins.
func (r *MessageRepo) UpdateMessageContent(ctx context.Context, messageID string, content string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET content=$2, edited_at=NOW() WHERE id=$1`, messageID, content)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// SoftDeleteMessage stamps deleted_at; content and row are retained.
func (r *MessageRepo) SoftDeleteMessage(ctx context.Context, messageID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET deleted_at=NOW() WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// ListBySingleChat returns non-deleted messages for a chat, oldest first,
// with sender views.
func (r *MessageRepo) ListBySingleChat(ctx context.Context, chatID string) ([]models.MessageView, error) {
	return r.listViews(ctx, `m.single_chat_id=$1`, chatID)
}

// ListByGroup returns non-deleted messages for a group, oldest first, with
// sender views.
func (r *MessageRepo) ListByGroup(ctx context.Context, groupID string) ([]models.MessageView, error) {
	return r.listViews(ctx, `m.group_id=$1`, groupID)
}

func (r *MessageRepo) listViews(ctx context.Context, where string, arg string) ([]models.MessageView, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT m.id, m.sender_id, m.single_chat_id, m.group_id, m.content, m.message_type,
                m.parent_message_id, m.created_at, m.edited_at, m.deleted_at,
                COALESCE(u.username, '') AS sender_username, COALESCE(u.created_at, m.created_at) AS sender_created_at
         FROM messages m
         LEFT JOIN users u ON u.id = m.sender_id
         WHERE `+where+` AND m.deleted_at IS NULL
         ORDER BY m.created_at ASC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []models.MessageView
	for rows.Next() {
		view, err := scanMessageView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessageView(row rowScanner) (models.MessageView, error) {
	var view models.MessageView
	err := row.Scan(
		&view.ID, &view.SenderID, &view.SingleChatID, &view.GroupID, &view.Content,
		&view.MessageType, &view.ParentMessageID, &view.CreatedAt, &view.EditedAt, &view.DeletedAt,
		&view.Sender.Username, &view.Sender.CreatedAt,
	)
	view.Sender.ID = view.SenderID
	return view, err
}
