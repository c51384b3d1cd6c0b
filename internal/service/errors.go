package service

import "errors"

var (
	// ErrInvalidActionType 未知的行为类型（调用方错误，不重试）
	ErrInvalidActionType = errors.New("invalid action type")
	// ErrDuplicateClaim 同一小时桶内重复提交相同内容
	ErrDuplicateClaim = errors.New("duplicate claim: a similar claim was already submitted for this hour")
	// ErrEvidenceUpload 证据上传失败（基础设施错误，可由调用方重试）
	ErrEvidenceUpload = errors.New("evidence upload failed")
	// ErrUnauthorized 无审核权限
	ErrUnauthorized = errors.New("unauthorized: only reviewers can vote")
	// ErrAlreadyVoted 同一审核人重复投票
	ErrAlreadyVoted = errors.New("reviewer has already voted on this claim")
	// ErrClaimNotPending 声明已是终态
	ErrClaimNotPending = errors.New("claim is not pending")

	ErrClaimNotFound       = errors.New("claim not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRewardUnavailable   = errors.New("reward unavailable")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrInvalidInput        = errors.New("invalid input")
)
