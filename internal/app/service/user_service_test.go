package service

import (
	"context"
	"errors"
	"testing"

	"github.com/linkyoself/linkyoself/internal/app/model"
)

func strPtr(s string) *string { return &s }

func newUserFixture(t *testing.T) (UserService, *memUserRepository, *model.User) {
	t.Helper()
	users := newMemUserRepository()
	alice := &model.User{
		Username:       "alice",
		Email:          "alice@example.com",
		Role:           model.RoleUser,
		ThemeColor:     model.DefaultThemeColor,
		BackgroundType: model.DefaultBackgroundType,
	}
	if err := users.Create(context.Background(), alice); err != nil {
		t.Fatalf("create user: %v", err)
	}
	index := NewUsernameIndex(100, 0.01)
	if err := index.Load(context.Background(), users); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return NewUserService(users, index), users, alice
}

func TestUserService_CompleteStepRestrictsFields(t *testing.T) {
	svc, users, alice := newUserFixture(t)
	ctx := context.Background()

	patch := model.ProfilePatch{
		DisplayName: strPtr("Alice"),
		PageTitle:   strPtr("should be ignored"),
	}
	updated, err := svc.CompleteStep(ctx, alice, model.StepBasicInfo, patch)
	if err != nil {
		t.Fatalf("CompleteStep: %v", err)
	}
	if updated.DisplayName == nil || *updated.DisplayName != "Alice" {
		t.Fatalf("expected display name set, got %+v", updated.DisplayName)
	}
	if updated.PageTitle != nil {
		t.Fatalf("step 1 must not touch page title, got %q", *updated.PageTitle)
	}

	stored, _ := users.GetByID(ctx, alice.ID)
	if stored.DisplayName == nil || *stored.DisplayName != "Alice" {
		t.Fatal("expected change to be persisted")
	}
	if alice.DisplayName != nil {
		t.Fatal("caller's user must not be mutated")
	}

	if _, err := svc.CompleteStep(ctx, alice, model.StepFirstLinks, patch); err == nil {
		t.Fatal("expected error for step 5")
	}
}

func TestUserService_OnboardingStatus(t *testing.T) {
	svc, _, alice := newUserFixture(t)
	ctx := context.Background()

	status := svc.OnboardingStatus(alice)
	if status.Step != model.StepBasicInfo || len(status.CompletedSteps) != 0 || !status.CanSkip {
		t.Fatalf("unexpected initial status %+v", status)
	}

	updated, err := svc.CompleteStep(ctx, alice, model.StepPageSettings, model.ProfilePatch{Website: strPtr("https://alice.dev")})
	if err != nil {
		t.Fatalf("CompleteStep: %v", err)
	}
	status = svc.OnboardingStatus(updated)
	if status.Step != model.StepSocialLinks || status.NextStepTitle != "Add Social Links" {
		t.Fatalf("unexpected status after step 2 %+v", status)
	}
	if status.ProfileCompletionPercentage != 14 {
		t.Fatalf("expected 14%% completion, got %d", status.ProfileCompletionPercentage)
	}
}

func TestUserService_CompleteAndSkipOnboarding(t *testing.T) {
	svc, _, alice := newUserFixture(t)
	ctx := context.Background()

	skipped, err := svc.SkipOnboarding(ctx, alice)
	if err != nil {
		t.Fatalf("SkipOnboarding: %v", err)
	}
	if !skipped.OnboardingCompleted || skipped.ProfileCompleted {
		t.Fatalf("skip must only close onboarding, got %+v", skipped)
	}

	done, err := svc.CompleteOnboarding(ctx, alice)
	if err != nil {
		t.Fatalf("CompleteOnboarding: %v", err)
	}
	if !done.OnboardingCompleted || !done.ProfileCompleted {
		t.Fatalf("complete must set both flags, got %+v", done)
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, _, alice := newUserFixture(t)

	updated, err := svc.UpdateProfile(context.Background(), alice, model.ProfilePatch{
		Bio:        strPtr("hello"),
		ThemeColor: strPtr("#000000"),
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if *updated.Bio != "hello" || updated.ThemeColor != "#000000" || updated.BackgroundType != model.DefaultBackgroundType {
		t.Fatalf("unexpected profile %+v", updated)
	}

	ghost := &model.User{ID: 99}
	if _, err := svc.UpdateProfile(context.Background(), ghost, model.ProfilePatch{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_Availability(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() (bool, error)
		want bool
	}{
		{"taken username", func() (bool, error) { return svc.UsernameAvailable(ctx, "ALICE") }, false},
		{"free username", func() (bool, error) { return svc.UsernameAvailable(ctx, "zed_the_free") }, true},
		{"taken email", func() (bool, error) { return svc.EmailAvailable(ctx, " Alice@Example.com") }, false},
		{"free email", func() (bool, error) { return svc.EmailAvailable(ctx, "new@example.com") }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.call()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	var verr *ValidationError
	if _, err := svc.UsernameAvailable(ctx, "  "); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUserService_ListUsersRequiresAdmin(t *testing.T) {
	svc, _, alice := newUserFixture(t)
	ctx := context.Background()

	if _, err := svc.ListUsers(ctx, alice, 10, 0); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	admin := &model.User{ID: 100, Role: model.RoleAdmin}
	users, err := svc.ListUsers(ctx, admin, 10, 0)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].Username != "alice" {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestUserService_GetUser(t *testing.T) {
	svc, _, alice := newUserFixture(t)

	got, err := svc.GetUser(context.Background(), alice.ID)
	if err != nil || got.Username != "alice" {
		t.Fatalf("GetUser: %+v %v", got, err)
	}
	if _, err := svc.GetUser(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_UsernameStoredAfterLoadIsTaken(t *testing.T) {
	svc, users, _ := newUserFixture(t)
	ctx := context.Background()

	// Written straight to the store, as another replica would.
	if err := users.Create(ctx, &model.User{Username: "bob", Email: "bob@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	available, err := svc.UsernameAvailable(ctx, "Bob")
	if err != nil {
		t.Fatalf("UsernameAvailable: %v", err)
	}
	if available {
		t.Fatal("a username stored after the index was loaded must be reported taken")
	}
}
