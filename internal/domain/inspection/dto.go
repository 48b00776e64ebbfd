package inspection

import "github.com/shopspring/decimal"

type CreateRequestBody struct {
	Type     string `json:"type" validate:"omitempty,oneof='New Construction' Reinspection"`
	Location string `json:"location" validate:"required,max=255"`
}

type SetFeeBody struct {
	Fee *decimal.Decimal `json:"fee" validate:"required"`
}

type AssignBody struct {
	InspectorID int64 `json:"inspector_id" validate:"required,gt=0"`
}

type DecisionBody struct {
	Decision             string `json:"decision" validate:"required,oneof=Approved Rejected"`
	StructuralEvaluation string `json:"structural_evaluation"`
	ComplianceChecklist  string `json:"compliance_checklist"`
	Remarks              string `json:"remarks"`
	Reason               string `json:"reason"`
}
