package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-gateway/internal/access"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repositories"
	"chat-gateway/internal/telemetry"
)

// GroupHandler manages group and membership endpoints.
type GroupHandler struct {
	groups    repositories.GroupRepository
	messages  repositories.MessageRepository
	authority *access.Authority
	emitter   *telemetry.EventEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups repositories.GroupRepository, messages repositories.MessageRepository, authority *access.Authority, emitter *telemetry.EventEmitter) *GroupHandler {
	return &GroupHandler{
		groups:    groups,
		messages:  messages,
		authority: authority,
		emitter:   emitter,
	}
}

// CreateGroup handles POST /groups. The caller becomes the owner and gets an
// OWNER membership record.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		Title     string   `json:"title" binding:"required"`
		MemberIDs []string `json:"memberIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), userID, req.Title, req.MemberIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	h.emitter.EmitMessageEvent(c.Request.Context(), "group_created", "group:"+group.ID, "group", group)
	c.JSON(http.StatusCreated, group)
}

// ListGroups returns groups where the caller is an active member.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID := c.GetString("userID")

	groups, err := h.groups.ListGroupsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load groups"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// AddGroupMember handles POST /groups/:group_id/members. Owners and admins
// only. Re-adding a departed member revives their record.
func (h *GroupHandler) AddGroupMember(c *gin.Context) {
	groupID := c.Param("group_id")
	userID := c.GetString("userID")

	var req struct {
		UserID string `json:"userId" binding:"required"`
		Role   string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	allowed, err := h.canManageMembers(c, groupID, userID)
	if err != nil {
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "only owner or admin may manage members"})
		return
	}

	member, err := h.groups.AddMember(c.Request.Context(), groupID, req.UserID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add member"})
		return
	}

	h.emitter.EmitMessageEvent(c.Request.Context(), "member_added", "group:"+groupID, "group", member)
	c.JSON(http.StatusCreated, member)
}

// RemoveGroupMember handles DELETE /groups/:group_id/members/:user_id. A
// member may always remove themselves; otherwise owner or admin. Removal
// stamps left_at and keeps the record.
func (h *GroupHandler) RemoveGroupMember(c *gin.Context) {
	groupID := c.Param("group_id")
	targetID := c.Param("user_id")
	userID := c.GetString("userID")

	if targetID != userID {
		allowed, err := h.canManageMembers(c, groupID, userID)
		if err != nil {
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "only owner or admin may manage members"})
			return
		}
	}

	if err := h.groups.MarkMemberLeft(c.Request.Context(), groupID, targetID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMemberNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not remove member"})
		return
	}

	h.emitter.EmitMessageEvent(c.Request.Context(), "member_left", "group:"+groupID, "group", gin.H{
		"groupId": groupID,
		"userId":  targetID,
	})
	c.Status(http.StatusNoContent)
}

// GetGroupMessages returns message history for a group. Owner or active
// members only; soft-deleted messages are excluded.
func (h *GroupHandler) GetGroupMessages(c *gin.Context) {
	groupID := c.Param("group_id")
	userID := c.GetString("userID")

	target := models.ChatTarget{GroupID: groupID}
	if err := h.authority.Authorize(c.Request.Context(), userID, target); err != nil {
		writeAuthError(c, err)
		return
	}

	msgs, err := h.messages.ListByGroup(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// canManageMembers reports whether the user is the group owner or an active
// admin. It writes the HTTP error response itself when the lookup fails.
func (h *GroupHandler) canManageMembers(c *gin.Context, groupID string, userID string) (bool, error) {
	group, err := h.groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrGroupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "group not found"})
		return false, err
	}
	if group.OwnerID == userID {
		return true, nil
	}

	members, err := h.groups.ListMembers(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return false, err
	}
	for _, m := range members {
		if m.UserID == userID && m.Active() && m.Role == models.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}
