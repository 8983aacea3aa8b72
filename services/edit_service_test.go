package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"residency-application-api/models"
)

func TestApplyEditRequiresSummary(t *testing.T) {
	db := newTestDB(t)
	svc := NewEditService(db, nil)
	owner := createTestUser(t, db, models.RoleApplicant)
	staff := createTestUser(t, db, models.RoleStaff)
	application := createTestApplication(t, db, owner.UserID, models.StatusInReview, "statement")

	statement := "edited statement"
	_, err := svc.ApplyEdit(context.Background(), application.ApplicationID, staff.UserID, EditInput{
		PersonalStatement: &statement,
		EditSummary:       "   ",
		ExpectedVersion:   1,
	})
	if !errors.Is(err, ErrEmptyEditSummary) {
		t.Fatalf("expected ErrEmptyEditSummary, got %v", err)
	}

	// No EditRecord may exist after a rejected edit.
	var count int64
	if err := db.Model(&models.EditRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no edit records, got %d", count)
	}
}

func TestApplyEditCreatesRecordWithoutChangingStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewEditService(db, nil)
	owner := createTestUser(t, db, models.RoleApplicant)
	staff := createTestUser(t, db, models.RoleStaff)
	application := createTestApplication(t, db, owner.UserID, models.StatusSubmitted, "original statement")

	statement := "polished statement"
	edited, err := svc.ApplyEdit(context.Background(), application.ApplicationID, staff.UserID, EditInput{
		PersonalStatement: &statement,
		EditSummary:       "reworked the introduction",
		ExpectedVersion:   1,
	})
	if err != nil {
		t.Fatalf("ApplyEdit returned error: %v", err)
	}

	if edited.PersonalStatement != statement {
		t.Fatalf("statement not replaced: %q", edited.PersonalStatement)
	}
	if edited.Status != models.StatusSubmitted {
		t.Fatalf("ApplyEdit changed status to %q", edited.Status)
	}
	if edited.RowVersion != 2 {
		t.Fatalf("expected row version 2, got %d", edited.RowVersion)
	}

	records, err := svc.EditRecords(context.Background(), application.ApplicationID)
	if err != nil {
		t.Fatalf("EditRecords returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 edit record, got %d", len(records))
	}
	if records[0].EditorID != staff.UserID {
		t.Fatalf("record editor %s, want %s", records[0].EditorID, staff.UserID)
	}
	if records[0].EditedFields != "personal_statement" {
		t.Fatalf("unexpected edited fields: %q", records[0].EditedFields)
	}
}

func TestApplyEditReplacesExperiencesWholesale(t *testing.T) {
	db := newTestDB(t)
	svc := NewEditService(db, nil)
	owner := createTestUser(t, db, models.RoleApplicant)
	staff := createTestUser(t, db, models.RoleStaff)
	application := createTestApplication(t, db, owner.UserID, models.StatusInReview, "statement")

	// Seed two existing experiences.
	now := time.Now()
	for i, title := range []string{"ICU rotation", "Research assistant"} {
		experience := models.Experience{
			ExperienceID:  strings.Repeat("0", 8) + "-seed-" + title[:3],
			ApplicationID: application.ApplicationID,
			Title:         title,
			Organization:  "Old Hospital",
			StartDate:     now.AddDate(-2, 0, 0),
			DisplayOrder:  i,
			CreateAt:      &now,
			UpdateAt:      &now,
		}
		if err := db.Create(&experience).Error; err != nil {
			t.Fatalf("seed experience failed: %v", err)
		}
	}

	meaningful := "This rotation shaped my choice of specialty."
	edited, err := svc.ApplyEdit(context.Background(), application.ApplicationID, staff.UserID, EditInput{
		Experiences: []ExperienceInput{
			{
				Title:                 "Emergency medicine clerkship",
				Organization:          "County General",
				Description:           "Four-week clerkship in a level I trauma center.",
				IsMostMeaningful:      true,
				MeaningfulDescription: &meaningful,
				StartDate:             now.AddDate(-1, 0, 0),
			},
		},
		EditSummary:     "condensed the experience list",
		ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("ApplyEdit returned error: %v", err)
	}

	if len(edited.Experiences) != 1 {
		t.Fatalf("expected 1 experience after replacement, got %d", len(edited.Experiences))
	}
	if edited.Experiences[0].Title != "Emergency medicine clerkship" {
		t.Fatalf("unexpected surviving experience: %q", edited.Experiences[0].Title)
	}
	if edited.Experiences[0].DisplayOrder != 0 {
		t.Fatalf("expected display order 0, got %d", edited.Experiences[0].DisplayOrder)
	}

	records, err := svc.EditRecords(context.Background(), application.ApplicationID)
	if err != nil {
		t.Fatalf("EditRecords returned error: %v", err)
	}
	if len(records) != 1 || records[0].EditedFields != "experiences" {
		t.Fatalf("unexpected edit records: %+v", records)
	}
}

func TestApplyEditRejectedOutsideReview(t *testing.T) {
	db := newTestDB(t)
	svc := NewEditService(db, nil)
	owner := createTestUser(t, db, models.RoleApplicant)
	staff := createTestUser(t, db, models.RoleStaff)

	for _, status := range []models.ApplicationStatus{models.StatusDraft, models.StatusReviewed, models.StatusCompleted} {
		application := createTestApplication(t, db, owner.UserID, status, "statement")
		statement := "edited"
		_, err := svc.ApplyEdit(context.Background(), application.ApplicationID, staff.UserID, EditInput{
			PersonalStatement: &statement,
			EditSummary:       "attempted edit",
			ExpectedVersion:   1,
		})

		var invalidState *InvalidStateError
		if !errors.As(err, &invalidState) {
			t.Fatalf("edit in %s: expected InvalidStateError, got %v", status, err)
		}
	}
}

func TestApplyEditStaleVersion(t *testing.T) {
	db := newTestDB(t)
	svc := NewEditService(db, nil)
	owner := createTestUser(t, db, models.RoleApplicant)
	staff := createTestUser(t, db, models.RoleStaff)
	application := createTestApplication(t, db, owner.UserID, models.StatusInReview, "statement")

	first := "first editor's version"
	if _, err := svc.ApplyEdit(context.Background(), application.ApplicationID, staff.UserID, EditInput{
		PersonalStatement: &first,
		EditSummary:       "first pass",
		ExpectedVersion:   1,
	}); err != nil {
		t.Fatalf("first ApplyEdit returned error: %v", err)
	}

	second := "second editor's stale version"
	_, err := svc.ApplyEdit(context.Background(), application.ApplicationID, staff.UserID, EditInput{
		PersonalStatement: &second,
		EditSummary:       "second pass",
		ExpectedVersion:   1,
	})

	var stale *StaleVersionError
	if !errors.As(err, &stale) {
		t.Fatalf("expected StaleVersionError, got %v", err)
	}
}

func TestValidateExperiences(t *testing.T) {
	now := time.Now()
	earlier := now.AddDate(-1, 0, 0)
	meaningful := "meaningful"

	cases := []struct {
		name    string
		input   ExperienceInput
		wantErr bool
	}{
		{
			name:  "valid ongoing experience",
			input: ExperienceInput{Title: "Clerkship", Organization: "Hospital", StartDate: earlier},
		},
		{
			name:    "missing title",
			input:   ExperienceInput{Organization: "Hospital", StartDate: earlier},
			wantErr: true,
		},
		{
			name: "description too long",
			input: ExperienceInput{
				Title: "Clerkship", Organization: "Hospital", StartDate: earlier,
				Description: strings.Repeat("x", models.ExperienceDescriptionMax+1),
			},
			wantErr: true,
		},
		{
			name: "most meaningful without description",
			input: ExperienceInput{
				Title: "Clerkship", Organization: "Hospital", StartDate: earlier,
				IsMostMeaningful: true,
			},
			wantErr: true,
		},
		{
			name: "meaningful description without flag",
			input: ExperienceInput{
				Title: "Clerkship", Organization: "Hospital", StartDate: earlier,
				MeaningfulDescription: &meaningful,
			},
			wantErr: true,
		},
		{
			name: "end date before start date",
			input: ExperienceInput{
				Title: "Clerkship", Organization: "Hospital",
				StartDate: now, EndDate: &earlier,
			},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		err := ValidateExperiences([]ExperienceInput{tc.input})
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestEditRequestLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewEditService(db, nil)
	owner := createTestUser(t, db, models.RoleApplicant)
	staff := createTestUser(t, db, models.RoleStaff)
	application := createTestApplication(t, db, owner.UserID, models.StatusReviewed, "statement")

	request, err := svc.RequestEdit(context.Background(), application.ApplicationID, owner.UserID, "please soften the second paragraph")
	if err != nil {
		t.Fatalf("RequestEdit returned error: %v", err)
	}
	if request.Status != models.EditRequestOpen {
		t.Fatalf("expected open request, got %q", request.Status)
	}

	if _, err := svc.RequestEdit(context.Background(), application.ApplicationID, owner.UserID, ""); err == nil {
		t.Fatal("expected error for empty message")
	}

	requests, err := svc.EditRequests(context.Background(), application.ApplicationID)
	if err != nil {
		t.Fatalf("EditRequests returned error: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}

	resolved, err := svc.ResolveEditRequest(context.Background(), request.EditRequestID, staff.UserID)
	if err != nil {
		t.Fatalf("ResolveEditRequest returned error: %v", err)
	}
	if resolved.Status != models.EditRequestResolved || resolved.ResolvedBy == nil || *resolved.ResolvedBy != staff.UserID {
		t.Fatalf("unexpected resolved request: %+v", resolved)
	}

	// Resolving twice is a no-op.
	again, err := svc.ResolveEditRequest(context.Background(), request.EditRequestID, staff.UserID)
	if err != nil {
		t.Fatalf("second ResolveEditRequest returned error: %v", err)
	}
	if again.Status != models.EditRequestResolved {
		t.Fatalf("expected request to stay resolved, got %q", again.Status)
	}
}
