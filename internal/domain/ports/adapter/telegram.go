package adapter

import (
	"context"
	"time"
)

// MembershipStatus mirrors the chat platform's member states.
type MembershipStatus string

const (
	MembershipCreator MembershipStatus = "creator"
	MembershipAdmin   MembershipStatus = "administrator"
	MembershipMember  MembershipStatus = "member"
	MembershipLeft    MembershipStatus = "left"
	MembershipBanned  MembershipStatus = "kicked"
	MembershipUnknown MembershipStatus = "unknown"
)

// IsMember reports whether the user currently belongs to the group,
// elevated roles included.
func (m MembershipStatus) IsMember() bool {
	switch m {
	case MembershipCreator, MembershipAdmin, MembershipMember:
		return true
	default:
		return false
	}
}

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// GroupBotAdapter is the hex port wrapping the chat platform: membership
// management of the paid group plus direct messaging to users. Pure I/O
// boundary; callers treat every method as fallible and externally rate
// limited.
type GroupBotAdapter interface {
	GetMembership(ctx context.Context, groupID, telegramID int64) (MembershipStatus, error)
	Ban(ctx context.Context, groupID, telegramID int64) error
	Unban(ctx context.Context, groupID, telegramID int64) error
	// CreateInviteLink mints a single-use invite valid until expiresAt.
	CreateInviteLink(ctx context.Context, groupID int64, expiresAt time.Time) (string, error)
	// SendMessage returns the platform message id so callers can edit the
	// message in place later.
	SendMessage(ctx context.Context, telegramID int64, text string, rows [][]InlineButton) (int, error)
	EditMessage(ctx context.Context, telegramID int64, messageID int, text string, rows [][]InlineButton) error
}
