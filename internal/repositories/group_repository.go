package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"chat-gateway/internal/models"
)

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrMemberNotFound = errors.New("group member not found")
)

// GroupRepository abstracts group and membership persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, ownerID string, title string, memberIDs []string) (models.Group, error)
	GetGroup(ctx context.Context, groupID string) (models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error)
	ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)
	AddMember(ctx context.Context, groupID string, userID string, role string) (models.GroupMember, error)
	MarkMemberLeft(ctx context.Context, groupID string, userID string) error
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroup creates a group, an OWNER membership record for the owner and
// MEMBER records for the rest, atomically.
func (r *GroupRepo) CreateGroup(ctx context.Context, ownerID string, title string, memberIDs []string) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group models.Group
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO groups (id, title, owner_id) VALUES ($1, $2, $3) RETURNING id, title, owner_id, created_at`,
		uuid.NewString(), title, ownerID).StructScan(&group); err != nil {
		return models.Group{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (id, group_id, user_id, role) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), group.ID, ownerID, models.RoleOwner); err != nil {
		return models.Group{}, err
	}

	for _, id := range memberIDs {
		if id == ownerID {
			continue
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO group_members (id, group_id, user_id, role) VALUES ($1, $2, $3, $4)
             ON CONFLICT (group_id, user_id) DO NOTHING`,
			uuid.NewString(), group.ID, id, models.RoleMember); err != nil {
			return models.Group{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT id, title, owner_id, created_at FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// ListGroupsForUser returns groups where the user holds an active membership.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.SelectContext(ctx, &groups,
		`SELECT g.id, g.title, g.owner_id, g.created_at FROM groups g
         INNER JOIN group_members gm ON gm.group_id = g.id
         WHERE gm.user_id=$1 AND gm.left_at IS NULL
         ORDER BY g.created_at DESC`, userID)
	return groups, err
}

// ListMembers returns every membership record for the group, departed members
// included; callers filter on left_at.
func (r *GroupRepo) ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.SelectContext(ctx, &members,
		`SELECT id, group_id, user_id, role, joined_at, left_at, created_at, updated_at
         FROM group_members WHERE group_id=$1 ORDER BY joined_at ASC`, groupID)
	return members, err
}

// AddMember inserts a membership record. Re-adding a departed member revives
// the existing row by clearing left_at.
func (r *GroupRepo) AddMember(ctx context.Context, groupID string, userID string, role string) (models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO group_members (id, group_id, user_id, role) VALUES ($1, $2, $3, $4)
         ON CONFLICT (group_id, user_id)
         DO UPDATE SET left_at = NULL, role = EXCLUDED.role, joined_at = NOW(), updated_at = NOW()
         RETURNING id, group_id, user_id, role, joined_at, left_at, created_at, updated_at`,
		uuid.NewString(), groupID, userID, role).StructScan(&member)
	return member, err
}

// MarkMemberLeft stamps left_at on an active membership. The record is
// retained for history.
func (r *GroupRepo) MarkMemberLeft(ctx context.Context, groupID string, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE group_members SET left_at = NOW(), updated_at = NOW()
         WHERE group_id=$1 AND user_id=$2 AND left_at IS NULL`, groupID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMemberNotFound
	}
	return nil
}
