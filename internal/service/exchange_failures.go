package service

import (
	"strings"

	"asset-ledger/pkg/apperror"
)

// FailureClass tells the queue whether a saga failure is worth retrying.
type FailureClass int

const (
	FailureTransient FailureClass = iota
	FailurePermanent
)

func (c FailureClass) String() string {
	if c == FailurePermanent {
		return "permanent"
	}
	return "transient"
}

// Provider wordings that no retry can fix. Only consulted when the error
// carries no structured classification.
var permanentPatterns = []string{
	"channel not found",
	"no active withdrawal channel",
	"bank not found",
	"not allow-listed",
	"user not found",
	"kyc",
	"missing user",
	"invalid configuration",
	"unsupported country",
	"unsupported currency",
}

// ClassifyFailure decides retry-vs-stop for a saga error: structured codes
// first, then message patterns. Unknown errors are transient.
func ClassifyFailure(err error) FailureClass {
	if err == nil {
		return FailureTransient
	}

	switch apperror.Code(err) {
	case apperror.CodeInvalidRequest,
		apperror.CodeNotFound,
		apperror.CodeInsufficientBalance,
		apperror.CodeProviderPermanent:
		return FailurePermanent
	case apperror.CodeLockTimeout, apperror.CodeUnavailable, apperror.CodeInternal:
		return FailureTransient
	}

	msg := strings.ToLower(err.Error())
	for _, p := range permanentPatterns {
		if strings.Contains(msg, p) {
			return FailurePermanent
		}
	}
	return FailureTransient
}

// failureReason is the text stored on failed records.
func failureReason(err error) string {
	reason := err.Error()
	if appErr, ok := apperror.As(err); ok {
		reason = appErr.Message
		if appErr.Err != nil {
			reason += ": " + appErr.Err.Error()
		}
	}
	if strings.Contains(strings.ToLower(reason), "insufficient balance") && !strings.HasPrefix(reason, "Insufficient balance") {
		reason = "Insufficient balance: " + reason
	}
	return reason
}
