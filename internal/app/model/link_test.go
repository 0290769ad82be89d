package model

import "testing"

func TestLinkPatch_ApplyClearsNullableFields(t *testing.T) {
	l := &Link{
		Title:           "Blog",
		Description:     strPtr("old"),
		IconURL:         strPtr("https://example.com/i.png"),
		BackgroundColor: strPtr("#000000"),
		TextColor:       strPtr("#ffffff"),
	}

	LinkPatch{Clear: []LinkField{FieldDescription, FieldTextColor}}.Apply(l)

	if l.Description != nil || l.TextColor != nil {
		t.Fatalf("expected cleared fields, got description=%v text_color=%v", l.Description, l.TextColor)
	}
	if l.IconURL == nil || l.BackgroundColor == nil || l.Title != "Blog" {
		t.Fatalf("untouched fields changed: %+v", l)
	}
}

func TestLinkPatch_Columns(t *testing.T) {
	title := "New"
	active := false

	cols := LinkPatch{Title: &title, IsActive: &active, Clear: []LinkField{FieldIconURL}}.Columns()

	if len(cols) != 3 {
		t.Fatalf("expected 3 columns, got %v", cols)
	}
	if cols["title"] != "New" || cols["is_active"] != false {
		t.Fatalf("unexpected values %v", cols)
	}
	if v, ok := cols["icon_url"]; !ok || v != nil {
		t.Fatalf("expected icon_url to be written as null, got %v (present=%v)", v, ok)
	}
	if _, ok := cols["description"]; ok {
		t.Fatal("unset fields must not be written")
	}
}

func TestLinkPatch_Empty(t *testing.T) {
	if !(LinkPatch{}).Empty() {
		t.Fatal("zero patch must be empty")
	}
	if (LinkPatch{Clear: []LinkField{FieldDescription}}).Empty() {
		t.Fatal("a patch that clears a field is not empty")
	}
	if !(LinkPatch{Clear: []LinkField{"order_index"}}).Empty() {
		t.Fatal("unknown fields are ignored")
	}
}
