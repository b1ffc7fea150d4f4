package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

type RejectionReason string

const (
	RejectCodeNotFound      RejectionReason = "code not found"
	RejectCodeExpired       RejectionReason = "code expired"
	RejectMinimumOrder      RejectionReason = "minimum order not met"
	RejectNotApplicable     RejectionReason = "not applicable to selected items"
	RejectCollaboratorError RejectionReason = "discount unavailable"
)

type (
	DiscountRequest struct {
		Code               string
		SelectedItemIDs    []string
		SelectedProductIDs []string
		OrderTotal         decimal.Decimal
	}

	DiscountResult struct {
		DiscountAmount decimal.Decimal
		FinalTotal     decimal.Decimal
	}
)

// A DiscountRejectedError is returned by the discount collaborator
// when a code can not be applied.
type DiscountRejectedError struct {
	Reason RejectionReason
}

func (e *DiscountRejectedError) Error() string {
	return "discount rejected: " + string(e.Reason)
}

func NewDiscountRejected(reason RejectionReason) error {
	return &DiscountRejectedError{Reason: reason}
}

// AsDiscountRejection extracts the rejection reason from err.
func AsDiscountRejection(err error) (RejectionReason, bool) {
	var rejected *DiscountRejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason, true
	}
	return "", false
}
