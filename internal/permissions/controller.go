package permissions

import (
	"context"

	"github.com/sirupsen/logrus"
)

// AccessType represents the access level of a user
type AccessType int

const (
	// Member represents regular group member access
	Member AccessType = iota
	// Admin represents admin access
	Admin
)

// ChatMemberSource resolves a user's membership status in a chat
type ChatMemberSource interface {
	MemberStatus(ctx context.Context, chatID, userID int64) (string, error)
}

// Controller manages user permissions
type Controller struct {
	adminID       int64
	allowedChatID int64
	members       ChatMemberSource
	logger        *logrus.Logger
}

// NewController creates a new permission controller
func NewController(adminID, allowedChatID int64, members ChatMemberSource, logger *logrus.Logger) *Controller {
	return &Controller{
		adminID:       adminID,
		allowedChatID: allowedChatID,
		members:       members,
		logger:        logger,
	}
}

// GetAccessType determines the access type of a user
func (p *Controller) GetAccessType(userID int64) AccessType {
	if p.IsAdmin(userID) {
		return Admin
	}

	return Member
}

// IsAdmin checks if a user is the configured administrator
func (p *Controller) IsAdmin(userID int64) bool {
	return userID == p.adminID
}

// IsGroupMember checks if a user belongs to the allowed group.
// A user who left or was kicked is not a member; a failed status
// lookup counts as not a member rather than an error.
func (p *Controller) IsGroupMember(ctx context.Context, userID int64) bool {
	status, err := p.members.MemberStatus(ctx, p.allowedChatID, userID)
	if err != nil {
		p.logger.Errorf("Failed to check chat membership for user %d: %v", userID, err)
		return false
	}

	isMember := status != "left" && status != "kicked"
	p.logger.Debugf("Membership check for user %d: status=%s member=%v", userID, status, isMember)
	return isMember
}
