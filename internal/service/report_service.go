package service

import (
	"context"

	"voidline/internal/models"
	"voidline/internal/repository"
)

// ReportService provides moderation report business logic. Filing is open to
// any authenticated identity; the review surface is moderator-only.
type ReportService struct {
	reportRepo  repository.ReportRepository
	isModerator func(ctx context.Context, userID uint) (bool, error)
}

type CreateReportInput struct {
	ReporterID uint
	TargetType string
	TargetID   uint
	Type       string
	Reason     string
}

func NewReportService(
	reportRepo repository.ReportRepository,
	isModerator func(ctx context.Context, userID uint) (bool, error),
) *ReportService {
	return &ReportService{
		reportRepo:  reportRepo,
		isModerator: isModerator,
	}
}

func (s *ReportService) CreateReport(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	targetType := models.ReportTargetType(in.TargetType)
	if !targetType.Valid() {
		return nil, models.NewValidationError("Invalid target_type")
	}
	reportType := models.ReportType(in.Type)
	if !reportType.Valid() {
		return nil, models.NewValidationError("Invalid report type")
	}
	if in.TargetID == 0 {
		return nil, models.NewValidationError("target_id is required")
	}

	report := &models.Report{
		ReporterID: in.ReporterID,
		TargetType: targetType,
		TargetID:   in.TargetID,
		Type:       reportType,
		Reason:     in.Reason,
		Status:     models.ReportStatusPending,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ListReports returns reports for triage, optionally filtered by status.
// Moderators only; the queue is not visible to ordinary accounts.
func (s *ReportService) ListReports(ctx context.Context, userID uint, status string, limit, offset int) ([]*models.Report, error) {
	if err := s.requireModerator(ctx, userID); err != nil {
		return nil, err
	}

	reportStatus := models.ReportStatus(status)
	if status != "" && !reportStatus.Valid() {
		return nil, models.NewValidationError("Invalid status filter")
	}
	return s.reportRepo.List(ctx, reportStatus, limit, offset)
}

func (s *ReportService) GetReport(ctx context.Context, userID, reportID uint) (*models.Report, error) {
	if err := s.requireModerator(ctx, userID); err != nil {
		return nil, err
	}
	return s.reportRepo.GetByID(ctx, reportID)
}

// ReviewReport transitions a report to resolved or dismissed and records the
// reviewing moderator.
func (s *ReportService) ReviewReport(ctx context.Context, reviewerID, reportID uint, status string) (*models.Report, error) {
	if err := s.requireModerator(ctx, reviewerID); err != nil {
		return nil, err
	}

	reportStatus := models.ReportStatus(status)
	if reportStatus != models.ReportStatusResolved && reportStatus != models.ReportStatusDismissed {
		return nil, models.NewValidationError("Status must be resolved or dismissed")
	}

	if err := s.reportRepo.UpdateStatus(ctx, reportID, reportStatus, reviewerID); err != nil {
		return nil, err
	}
	return s.reportRepo.GetByID(ctx, reportID)
}

func (s *ReportService) requireModerator(ctx context.Context, userID uint) error {
	mod, err := s.isModerator(ctx, userID)
	if err != nil {
		return err
	}
	if !mod {
		return models.NewForbiddenError("Moderator access required")
	}
	return nil
}
