package model

import "testing"

func strPtr(s string) *string { return &s }

func newUser() *User {
	return &User{ThemeColor: DefaultThemeColor, BackgroundType: DefaultBackgroundType}
}

func TestOnboarding_FreshUser(t *testing.T) {
	status := newUser().Onboarding()
	if status.Step != StepBasicInfo {
		t.Fatalf("expected step 1, got %d", status.Step)
	}
	if len(status.CompletedSteps) != 0 {
		t.Fatalf("expected no completed steps, got %v", status.CompletedSteps)
	}
	if status.NextStepTitle != "Complete Your Profile" {
		t.Fatalf("unexpected title %q", status.NextStepTitle)
	}
	if status.ProfileCompletionPercentage != 0 {
		t.Fatalf("expected 0%%, got %d", status.ProfileCompletionPercentage)
	}
}

func TestOnboarding_AllSteps(t *testing.T) {
	u := newUser()
	ProfilePatch{
		DisplayName:     strPtr("Alice"),
		Bio:             strPtr("hi"),
		ProfileImageURL: strPtr("https://img.example.com/a.png"),
		PageTitle:       strPtr("Alice's links"),
		Website:         strPtr("https://alice.dev"),
		TwitterUsername: strPtr("alice"),
		ThemeColor:      strPtr("#000000"),
	}.Apply(u)

	status := u.Onboarding()
	if status.Step != StepFirstLinks {
		t.Fatalf("expected step 5, got %d", status.Step)
	}
	if len(status.CompletedSteps) != 4 {
		t.Fatalf("expected 4 completed steps, got %v", status.CompletedSteps)
	}
	if status.ProfileCompletionPercentage != 100 {
		t.Fatalf("expected 100%%, got %d", status.ProfileCompletionPercentage)
	}
}

func TestOnboarding_SkippedStepKeepsProgress(t *testing.T) {
	u := newUser()
	u.InstagramUsername = strPtr("alice")

	status := u.Onboarding()
	if status.Step != StepAppearance {
		t.Fatalf("expected step 4 after social links, got %d", status.Step)
	}
	if len(status.CompletedSteps) != 1 || status.CompletedSteps[0] != StepSocialLinks {
		t.Fatalf("unexpected completed steps %v", status.CompletedSteps)
	}
}

func TestProfilePatch_Restrict(t *testing.T) {
	p := ProfilePatch{
		DisplayName: strPtr("Alice"),
		PageTitle:   strPtr("page"),
		ThemeColor:  strPtr("#ffffff"),
	}

	step1 := p.Restrict(StepBasicInfo)
	if step1.DisplayName == nil || step1.PageTitle != nil || step1.ThemeColor != nil {
		t.Fatalf("step 1 restriction leaked fields: %+v", step1)
	}

	step4 := p.Restrict(StepAppearance)
	if step4.ThemeColor == nil || step4.DisplayName != nil {
		t.Fatalf("step 4 restriction wrong: %+v", step4)
	}
}

func TestLinkPatch_ApplyOnlySetFields(t *testing.T) {
	l := &Link{Title: "old", URL: "https://old.example.com", BorderRadius: 8, IsActive: true}
	inactive := false
	LinkPatch{Title: strPtr("new"), IsActive: &inactive}.Apply(l)

	if l.Title != "new" || l.IsActive {
		t.Fatalf("patch not applied: %+v", l)
	}
	if l.URL != "https://old.example.com" || l.BorderRadius != 8 {
		t.Fatalf("unset fields changed: %+v", l)
	}
	if !(LinkPatch{}).Empty() {
		t.Fatal("expected empty patch")
	}
}
