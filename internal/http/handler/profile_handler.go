package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/linkyoself/linkyoself/internal/app/model"
	"github.com/linkyoself/linkyoself/internal/app/service"
	"github.com/linkyoself/linkyoself/internal/http/middleware"
	"github.com/linkyoself/linkyoself/internal/http/response"
)

// ProfileHandler serves the profile and onboarding endpoints.
type ProfileHandler struct {
	users service.UserService
}

func NewProfileHandler(users service.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

func (h *ProfileHandler) Register(router fiber.Router, requireAuth fiber.Handler) {
	profile := router.Group("/api/profile", requireAuth)
	{
		profile.Get("/me", h.Me)
		profile.Get("/onboarding-status", h.OnboardingStatus)
		profile.Post("/complete-step-1", h.completeStep(model.StepBasicInfo))
		profile.Post("/complete-step-2", h.completeStep(model.StepPageSettings))
		profile.Post("/complete-step-3", h.completeStep(model.StepSocialLinks))
		profile.Post("/complete-step-4", h.completeStep(model.StepAppearance))
		profile.Post("/complete-onboarding", h.CompleteOnboarding)
		profile.Post("/skip-onboarding", h.SkipOnboarding)
		profile.Put("/update", h.UpdateProfile)
	}
}

// profileRequest covers every editable profile field. Each onboarding step
// only keeps its own subset.
type profileRequest struct {
	DisplayName       *string `json:"display_name" validate:"omitempty,max=100"`
	Bio               *string `json:"bio" validate:"omitempty,max=500"`
	ProfileImageURL   *string `json:"profile_image_url" validate:"omitempty,max=255"`
	PageTitle         *string `json:"page_title" validate:"omitempty,max=100"`
	Website           *string `json:"website" validate:"omitempty,max=255"`
	TwitterUsername   *string `json:"twitter_username" validate:"omitempty,max=50"`
	InstagramUsername *string `json:"instagram_username" validate:"omitempty,max=50"`
	LinkedinUsername  *string `json:"linkedin_username" validate:"omitempty,max=100"`
	ThemeColor        *string `json:"theme_color" validate:"omitempty,hexcolor"`
	BackgroundType    *string `json:"background_type" validate:"omitempty,oneof=color gradient image"`
	BackgroundValue   *string `json:"background_value" validate:"omitempty,max=500"`
}

func (r profileRequest) patch() model.ProfilePatch {
	return model.ProfilePatch{
		DisplayName:       r.DisplayName,
		Bio:               r.Bio,
		ProfileImageURL:   r.ProfileImageURL,
		PageTitle:         r.PageTitle,
		Website:           r.Website,
		TwitterUsername:   r.TwitterUsername,
		InstagramUsername: r.InstagramUsername,
		LinkedinUsername:  r.LinkedinUsername,
		ThemeColor:        r.ThemeColor,
		BackgroundType:    r.BackgroundType,
		BackgroundValue:   r.BackgroundValue,
	}
}

// Me handles GET /api/profile/me
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	return response.OK(c, "Profile retrieved successfully", user)
}

// OnboardingStatus handles GET /api/profile/onboarding-status
func (h *ProfileHandler) OnboardingStatus(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}
	return response.OK(c, "Onboarding status retrieved", h.users.OnboardingStatus(user))
}

func (h *ProfileHandler) completeStep(step model.OnboardingStep) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			return service.ErrUnauthorized
		}

		var req profileRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		updated, err := h.users.CompleteStep(c.UserContext(), user, step, req.patch())
		if err != nil {
			return err
		}
		return response.OK(c, "Profile step completed successfully", updated)
	}
}

// CompleteOnboarding handles POST /api/profile/complete-onboarding
func (h *ProfileHandler) CompleteOnboarding(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}

	updated, err := h.users.CompleteOnboarding(c.UserContext(), user)
	if err != nil {
		return err
	}
	return response.OK(c, "Onboarding completed successfully", updated)
}

// SkipOnboarding handles POST /api/profile/skip-onboarding
func (h *ProfileHandler) SkipOnboarding(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}

	updated, err := h.users.SkipOnboarding(c.UserContext(), user)
	if err != nil {
		return err
	}
	return response.OK(c, "Onboarding skipped", updated)
}

// UpdateProfile handles PUT /api/profile/update
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return service.ErrUnauthorized
	}

	var req profileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	updated, err := h.users.UpdateProfile(c.UserContext(), user, req.patch())
	if err != nil {
		return err
	}
	return response.OK(c, "Profile updated successfully", updated)
}
