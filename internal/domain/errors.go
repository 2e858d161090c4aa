package domain

import "errors"

var (
	ErrUnauthenticated      = errors.New("missing or invalid credential")
	ErrPairNotAllowed       = errors.New("chat pair not allowed")
	ErrNotParticipant       = errors.New("user is not a conversation participant")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmptyContent         = errors.New("empty message content")
	ErrContentTooLong       = errors.New("message content too long")
	ErrInvalidID            = errors.New("invalid id")
)
