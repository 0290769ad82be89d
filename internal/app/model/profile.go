package model

// ProfilePatch carries the explicitly set profile fields of an update.
// Every onboarding step is a ProfilePatch restricted to its own fields.
type ProfilePatch struct {
	DisplayName       *string
	Bio               *string
	ProfileImageURL   *string
	PageTitle         *string
	Website           *string
	TwitterUsername   *string
	InstagramUsername *string
	LinkedinUsername  *string
	ThemeColor        *string
	BackgroundType    *string
	BackgroundValue   *string
}

// Apply merges the set fields of p into u.
func (p ProfilePatch) Apply(u *User) {
	if p.DisplayName != nil {
		u.DisplayName = p.DisplayName
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	if p.ProfileImageURL != nil {
		u.ProfileImageURL = p.ProfileImageURL
	}
	if p.PageTitle != nil {
		u.PageTitle = p.PageTitle
	}
	if p.Website != nil {
		u.Website = p.Website
	}
	if p.TwitterUsername != nil {
		u.TwitterUsername = p.TwitterUsername
	}
	if p.InstagramUsername != nil {
		u.InstagramUsername = p.InstagramUsername
	}
	if p.LinkedinUsername != nil {
		u.LinkedinUsername = p.LinkedinUsername
	}
	if p.ThemeColor != nil {
		u.ThemeColor = *p.ThemeColor
	}
	if p.BackgroundType != nil {
		u.BackgroundType = *p.BackgroundType
	}
	if p.BackgroundValue != nil {
		u.BackgroundValue = p.BackgroundValue
	}
}

// OnboardingStep is one of the guided profile-completion steps.
type OnboardingStep int

const (
	StepBasicInfo OnboardingStep = iota + 1
	StepPageSettings
	StepSocialLinks
	StepAppearance
	StepFirstLinks
)

var stepTitles = map[OnboardingStep]string{
	StepBasicInfo:    "Complete Your Profile",
	StepPageSettings: "Set Up Your Page",
	StepSocialLinks:  "Add Social Links",
	StepAppearance:   "Customize Appearance",
	StepFirstLinks:   "Add Your First Links",
}

// Title returns the display title of the step.
func (s OnboardingStep) Title() string {
	return stepTitles[s]
}

// Restrict drops every field of p that does not belong to step s.
func (p ProfilePatch) Restrict(s OnboardingStep) ProfilePatch {
	switch s {
	case StepBasicInfo:
		return ProfilePatch{DisplayName: p.DisplayName, Bio: p.Bio, ProfileImageURL: p.ProfileImageURL}
	case StepPageSettings:
		return ProfilePatch{PageTitle: p.PageTitle, Website: p.Website}
	case StepSocialLinks:
		return ProfilePatch{
			TwitterUsername:   p.TwitterUsername,
			InstagramUsername: p.InstagramUsername,
			LinkedinUsername:  p.LinkedinUsername,
		}
	case StepAppearance:
		return ProfilePatch{ThemeColor: p.ThemeColor, BackgroundType: p.BackgroundType, BackgroundValue: p.BackgroundValue}
	default:
		return ProfilePatch{}
	}
}

// OnboardingStatus summarises how far a user got through onboarding.
type OnboardingStatus struct {
	Step                        OnboardingStep   `json:"step"`
	CompletedSteps              []OnboardingStep `json:"completed_steps"`
	ProfileCompletionPercentage int              `json:"profile_completion_percentage"`
	NextStepTitle               string           `json:"next_step_title"`
	CanSkip                     bool             `json:"can_skip"`
}

func filled(s *string) bool {
	return s != nil && *s != ""
}

// StepDone reports whether the user has filled anything for step s.
func (u *User) StepDone(s OnboardingStep) bool {
	switch s {
	case StepBasicInfo:
		return filled(u.DisplayName) || filled(u.Bio) || filled(u.ProfileImageURL)
	case StepPageSettings:
		return filled(u.PageTitle) || filled(u.Website)
	case StepSocialLinks:
		return filled(u.TwitterUsername) || filled(u.InstagramUsername) || filled(u.LinkedinUsername)
	case StepAppearance:
		return u.ThemeColor != DefaultThemeColor || u.BackgroundType != DefaultBackgroundType
	default:
		return false
	}
}

// ProfileCompletion returns the share (0-100) of profile attributes filled in.
func (u *User) ProfileCompletion() int {
	checks := []bool{
		filled(u.DisplayName),
		filled(u.Bio),
		filled(u.ProfileImageURL),
		filled(u.PageTitle),
		filled(u.Website),
		filled(u.TwitterUsername) || filled(u.InstagramUsername) || filled(u.LinkedinUsername),
		u.StepDone(StepAppearance),
	}
	done := 0
	for _, ok := range checks {
		if ok {
			done++
		}
	}
	return done * 100 / len(checks)
}

// Onboarding computes the onboarding status. The next step follows the last
// completed one, so skipping a step does not send the user back to it.
func (u *User) Onboarding() OnboardingStatus {
	status := OnboardingStatus{
		Step:                        StepBasicInfo,
		CompletedSteps:              []OnboardingStep{},
		ProfileCompletionPercentage: u.ProfileCompletion(),
		CanSkip:                     true,
	}
	for s := StepBasicInfo; s <= StepAppearance; s++ {
		if u.StepDone(s) {
			status.CompletedSteps = append(status.CompletedSteps, s)
			status.Step = s + 1
		}
	}
	status.NextStepTitle = status.Step.Title()
	return status
}
