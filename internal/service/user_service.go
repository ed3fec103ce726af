package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository"
	"github.com/Freeeeeet/booking_desk/internal/repository/base"
	"go.uber.org/zap"
)

type RegisterInput struct {
	ID     string // optional, the identity provider's id
	Name   string
	Mobile string
	Role   model.Role
}

type UserService struct {
	users  repository.UserStore
	logger *zap.Logger
}

func NewUserService(users repository.UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// Register creates the user or refreshes the name of an existing one. It is
// the admin path: any role may be assigned.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	role := in.Role
	if role == "" {
		role = model.RoleClient
	}
	switch role {
	case model.RoleAdmin, model.RoleStaff, model.RoleClient:
	default:
		return nil, apperr.Validation("unknown role %q", role)
	}

	if in.ID != "" {
		existing, err := s.users.GetByID(ctx, in.ID)
		if err != nil {
			return nil, fmt.Errorf("check existing user: %w", err)
		}
		if existing != nil {
			existing.Name = name
			if err := s.users.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("update user: %w", err)
			}
			s.logger.Info("User updated", zap.String("user_id", existing.ID))
			return existing, nil
		}
	}

	mobile := strings.TrimSpace(in.Mobile)
	if mobile == "" {
		mobile = generatedMobile("user", time.Now())
	}
	user := &model.User{
		ID:     in.ID,
		Name:   name,
		Mobile: mobile,
		Role:   role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, apperr.Validation("mobile %s is already registered", user.Mobile)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// SignUp is the unauthenticated registration path. It only creates new
// CLIENT accounts and never touches an existing user.
func (s *UserService) SignUp(ctx context.Context, in RegisterInput) (*model.User, error) {
	if in.Role != "" && in.Role != model.RoleClient {
		return nil, apperr.Validation("only clients can sign up, ask an admin for a %s account", in.Role)
	}
	if in.ID != "" {
		existing, err := s.users.GetByID(ctx, in.ID)
		if err != nil {
			return nil, fmt.Errorf("check existing user: %w", err)
		}
		if existing != nil {
			return nil, apperr.Validation("user %s is already registered", in.ID)
		}
	}
	in.Role = model.RoleClient
	return s.Register(ctx, in)
}

// GetByID returns nil, nil when the user does not exist.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetByTelegramChat returns nil, nil when the chat is not linked.
func (s *UserService) GetByTelegramChat(ctx context.Context, chatID int64) (*model.User, error) {
	return s.users.GetByTelegramChat(ctx, chatID)
}

// LinkTelegram stores the chat that receives the user's notifications.
func (s *UserService) LinkTelegram(ctx context.Context, userID string, chatID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	user.TelegramChatID = &chatID
	if err := s.users.Update(ctx, user); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, apperr.Validation("this chat is already linked to another user")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("Telegram chat linked",
		zap.String("user_id", userID),
		zap.Int64("chat_id", chatID),
	)
	return user, nil
}
