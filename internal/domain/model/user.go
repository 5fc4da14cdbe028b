package model

import (
	"time"

	"telegram-group-subscription/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity representing a Telegram user in our system.
// Created on first contact with the bot; never deleted.
type User struct {
	ID         string
	TelegramID int64
	FullName   string
	Username   string
	CreatedAt  time.Time
}

func NewUser(id string, tgID int64, fullName, username string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if fullName == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:         id,
		TelegramID: tgID,
		FullName:   fullName,
		Username:   username,
		CreatedAt:  time.Now(),
	}, nil
}
