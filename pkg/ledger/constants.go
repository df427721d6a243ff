package ledger

const (
	operationRecord    = "record"
	operationPost      = "post_pending"
	operationWithdraw  = "withdraw"
	operationApprove   = "approve"
	operationReject    = "reject"
	operationReconcile = "reconcile"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	referenceTypeWithdrawal = "withdrawal"

	descriptionWithdrawalRequest  = "withdrawal request"
	descriptionWithdrawalApproval = "withdrawal approved"
	descriptionWithdrawalRejected = "withdrawal rejected"
)
