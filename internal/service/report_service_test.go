package service

import (
	"context"
	"testing"

	"voidline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReportValidation(t *testing.T) {
	svc := NewReportService(&stubReportRepo{}, neverModerator)

	report, err := svc.CreateReport(context.Background(), CreateReportInput{
		ReporterID: 1, TargetType: "post", TargetID: 10, Type: "spam", Reason: "bot ring",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, report.Status)

	tests := []struct {
		name  string
		input CreateReportInput
	}{
		{"unknown target type", CreateReportInput{ReporterID: 1, TargetType: "galaxy", TargetID: 10, Type: "spam"}},
		{"unknown report type", CreateReportInput{ReporterID: 1, TargetType: "post", TargetID: 10, Type: "vibes"}},
		{"missing target id", CreateReportInput{ReporterID: 1, TargetType: "post", Type: "spam"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateReport(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", appErrorCode(t, err))
		})
	}
}

func TestListReportsModeratorOnly(t *testing.T) {
	svc := NewReportService(&stubReportRepo{}, neverModerator)
	_, err := svc.ListReports(context.Background(), 1, "", 20, 0)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", appErrorCode(t, err))

	svc = NewReportService(&stubReportRepo{}, alwaysModerator)
	_, err = svc.ListReports(context.Background(), 1, "pending", 20, 0)
	require.NoError(t, err)

	_, err = svc.ListReports(context.Background(), 1, "simmering", 20, 0)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrorCode(t, err))
}

func TestReviewReportTransitions(t *testing.T) {
	var gotStatus models.ReportStatus
	var gotReviewer uint
	repo := &stubReportRepo{
		UpdateStatusFn: func(ctx context.Context, id uint, status models.ReportStatus, reviewerID uint) error {
			gotStatus = status
			gotReviewer = reviewerID
			return nil
		},
	}
	svc := NewReportService(repo, alwaysModerator)

	_, err := svc.ReviewReport(context.Background(), 7, 3, "resolved")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, gotStatus)
	assert.Equal(t, uint(7), gotReviewer)

	// Pending is the initial state, not a review outcome.
	_, err = svc.ReviewReport(context.Background(), 7, 3, "pending")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrorCode(t, err))

	svc = NewReportService(repo, neverModerator)
	_, err = svc.ReviewReport(context.Background(), 7, 3, "resolved")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", appErrorCode(t, err))
}
