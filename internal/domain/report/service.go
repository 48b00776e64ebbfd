package report

import (
	"context"
	"fmt"
	"time"

	"buildinspect/internal/domain"
	"buildinspect/internal/domain/identity"
	"buildinspect/internal/domain/inspection"
)

// Document is a report joined with the request it concludes.
type Document struct {
	ID                   int64               `json:"id"`
	RequestID            int64               `json:"request_id"`
	RequestStatus        inspection.Status   `json:"request_status"`
	OwnerUsername        string              `json:"owner_username"`
	OwnerEmail           string              `json:"owner_email"`
	Location             string              `json:"location"`
	InspectorID          *int64              `json:"inspector_id"`
	InspectionDate       time.Time           `json:"inspection_date"`
	StructuralEvaluation string              `json:"structural_evaluation"`
	ComplianceChecklist  string              `json:"compliance_checklist"`
	Decision             inspection.Decision `json:"decision"`
	Remarks              string              `json:"remarks"`
}

func NewDocument(rep *inspection.Report, req *inspection.Request) *Document {
	d := &Document{
		ID:                   rep.ID,
		RequestID:            rep.RequestID,
		InspectorID:          rep.InspectorID,
		InspectionDate:       rep.InspectionDate,
		StructuralEvaluation: rep.StructuralEvaluation,
		ComplianceChecklist:  rep.ComplianceChecklist,
		Decision:             rep.Decision,
		Remarks:              rep.Remarks,
	}
	if req != nil {
		d.RequestStatus = req.Status
		d.Location = req.Location
		if req.Owner != nil {
			d.OwnerUsername = req.Owner.Username
			d.OwnerEmail = req.Owner.Email
		}
	}
	return d
}

type ProfileResolver interface {
	Resolve(ctx context.Context, userID int64) (*identity.Profile, error)
}

type Service struct {
	repo     *inspection.Repository
	profiles ProfileResolver
}

func NewService(repo *inspection.Repository, profiles ProfileResolver) *Service {
	return &Service{repo: repo, profiles: profiles}
}

// Get returns the report if the caller owns the request, wrote the report or
// is an admin.
func (s *Service) Get(ctx context.Context, actorID, reportID int64) (*Document, error) {
	rep, err := s.repo.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	return s.authorize(ctx, actorID, rep)
}

func (s *Service) GetByRequest(ctx context.Context, actorID, requestID int64) (*Document, error) {
	rep, err := s.repo.GetReportByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.authorize(ctx, actorID, rep)
}

func (s *Service) authorize(ctx context.Context, actorID int64, rep *inspection.Report) (*Document, error) {
	actor, err := s.profiles.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	req, err := s.repo.GetByID(ctx, rep.RequestID)
	if err != nil {
		return nil, err
	}
	if !inspection.CanView(actor, req) {
		return nil, fmt.Errorf("report %d: %w", rep.ID, domain.ErrForbidden)
	}
	return NewDocument(rep, req), nil
}
