package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	CheckAmountWithinLimits = "amount_within_limits"
	CheckUserAuthorized     = "user_authorized"
	CheckRiskAssessment     = "risk_assessment"
)

// SecurityValidation is the outcome of the pre-flight checks run on a transaction.
type SecurityValidation struct {
	Valid         bool            `json:"valid"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Checks        map[string]bool `json:"checks"`
	Timestamp     time.Time       `json:"timestamp"`
}

// FailedChecks lists the names of the checks that did not pass, in a stable order.
func (v *SecurityValidation) FailedChecks() []string {
	var failed []string
	for _, name := range []string{CheckAmountWithinLimits, CheckUserAuthorized, CheckRiskAssessment} {
		if passed, ok := v.Checks[name]; ok && !passed {
			failed = append(failed, name)
		}
	}
	return failed
}
