package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chat-gateway/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// SingleChatRepository abstracts single-chat persistence.
type SingleChatRepository interface {
	CreateOrGetSingleChat(ctx context.Context, userID string, otherID string) (models.SingleChat, error)
	GetSingleChat(ctx context.Context, chatID string) (models.SingleChat, error)
	ListSingleChatsForUser(ctx context.Context, userID string) ([]models.SingleChat, error)
}

// SingleChatRepo is a sqlx implementation of SingleChatRepository.
type SingleChatRepo struct {
	db *sqlx.DB
}

// NewSingleChatRepo constructs a SingleChatRepo.
func NewSingleChatRepo(db *sqlx.DB) *SingleChatRepo {
	return &SingleChatRepo{db: db}
}

// CreateOrGetSingleChat creates the chat for the pair if it does not already
// exist. The pair is stored with the smaller id first so both orderings map
// to the same row.
func (r *SingleChatRepo) CreateOrGetSingleChat(ctx context.Context, userID string, otherID string) (models.SingleChat, error) {
	if userID == otherID {
		return models.SingleChat{}, errors.New("cannot create chat with self")
	}
	user1, user2 := userID, otherID
	if user1 > user2 {
		user1, user2 = user2, user1
	}

	var chat models.SingleChat
	query := `SELECT id, user1_id, user2_id, created_at FROM single_chats WHERE user1_id=$1 AND user2_id=$2`
	err := r.db.GetContext(ctx, &chat, query, user1, user2)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.SingleChat{}, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO single_chats (id, user1_id, user2_id) VALUES ($1, $2, $3) RETURNING id, user1_id, user2_id, created_at`,
		uuid.NewString(), user1, user2).StructScan(&chat)
	return chat, err
}

// GetSingleChat fetches a chat by id.
func (r *SingleChatRepo) GetSingleChat(ctx context.Context, chatID string) (models.SingleChat, error) {
	var chat models.SingleChat
	err := r.db.GetContext(ctx, &chat, `SELECT id, user1_id, user2_id, created_at FROM single_chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SingleChat{}, ErrChatNotFound
	}
	return chat, err
}

// ListSingleChatsForUser returns the chats the user participates in.
func (r *SingleChatRepo) ListSingleChatsForUser(ctx context.Context, userID string) ([]models.SingleChat, error) {
	var chats []models.SingleChat
	err := r.db.SelectContext(ctx, &chats,
		`SELECT id, user1_id, user2_id, created_at FROM single_chats WHERE user1_id=$1 OR user2_id=$1 ORDER BY created_at DESC`,
		userID)
	return chats, err
}
