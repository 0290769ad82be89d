package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/linkyoself/linkyoself/internal/app/model"
	"github.com/linkyoself/linkyoself/internal/app/repository"
)

// UserService covers profile editing, onboarding and account lookups.
type UserService interface {
	UpdateProfile(ctx context.Context, user *model.User, patch model.ProfilePatch) (*model.User, error)
	CompleteStep(ctx context.Context, user *model.User, step model.OnboardingStep, patch model.ProfilePatch) (*model.User, error)
	OnboardingStatus(user *model.User) model.OnboardingStatus
	CompleteOnboarding(ctx context.Context, user *model.User) (*model.User, error)
	SkipOnboarding(ctx context.Context, user *model.User) (*model.User, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
	ListUsers(ctx context.Context, requester *model.User, limit, offset int) ([]model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

type userService struct {
	users     repository.UserRepository
	usernames *UsernameIndex
}

// NewUserService returns a UserService. usernames may be nil.
func NewUserService(users repository.UserRepository, usernames *UsernameIndex) UserService {
	return &userService{users: users, usernames: usernames}
}

func (s *userService) UpdateProfile(ctx context.Context, user *model.User, patch model.ProfilePatch) (*model.User, error) {
	updated := *user
	patch.Apply(&updated)
	return s.save(ctx, "update profile", &updated)
}

// CompleteStep applies only the fields that belong to step.
func (s *userService) CompleteStep(ctx context.Context, user *model.User, step model.OnboardingStep, patch model.ProfilePatch) (*model.User, error) {
	if step < model.StepBasicInfo || step > model.StepAppearance {
		return nil, NewValidationError("step", fmt.Sprintf("unknown onboarding step %d", step))
	}
	updated := *user
	patch.Restrict(step).Apply(&updated)
	return s.save(ctx, fmt.Sprintf("complete step %d", step), &updated)
}

func (s *userService) OnboardingStatus(user *model.User) model.OnboardingStatus {
	return user.Onboarding()
}

func (s *userService) CompleteOnboarding(ctx context.Context, user *model.User) (*model.User, error) {
	updated := *user
	updated.OnboardingCompleted = true
	updated.ProfileCompleted = true
	return s.save(ctx, "complete onboarding", &updated)
}

// SkipOnboarding closes onboarding without marking the profile complete.
func (s *userService) SkipOnboarding(ctx context.Context, user *model.User) (*model.User, error) {
	updated := *user
	updated.OnboardingCompleted = true
	return s.save(ctx, "skip onboarding", &updated)
}

func (s *userService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return false, NewValidationError("username", "username is required")
	}
	// A negative answer counts only once the index has caught up with the store.
	if err := s.usernames.Sync(ctx, s.users); err == nil && !s.usernames.MayContain(username) {
		return true, nil
	}
	return s.absent(s.users.GetByUsername(ctx, username))
}

func (s *userService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return false, NewValidationError("email", "email is required")
	}
	return s.absent(s.users.GetByEmail(ctx, email))
}

func (s *userService) absent(_ *model.User, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return true, nil
	}
	return false, fmt.Errorf("check availability: %w", err)
}

// ListUsers is restricted to administrators.
func (s *userService) ListUsers(ctx context.Context, requester *model.User, limit, offset int) ([]model.User, error) {
	if requester == nil || !requester.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("get user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *userService) save(ctx context.Context, op string, user *model.User) (*model.User, error) {
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}
