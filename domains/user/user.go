package user

import (
	"context"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// User is a messaging recipient. Two users sharing a couple_id see each
// other's shared tasks.
type User struct {
	ID          string    `json:"id"`
	CoupleID    string    `json:"couple_id,omitempty"`
	Phone       string    `json:"phone"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type IUserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByPhone matches on digits only, so formatted numbers still resolve.
	GetByPhone(ctx context.Context, phone string) (*User, error)
	ListByCouple(ctx context.Context, coupleID string) ([]*User, error)
}
