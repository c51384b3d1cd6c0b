package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/d60-Lab/green-credits/internal/model"
	"github.com/d60-Lab/green-credits/internal/repository"
	"github.com/d60-Lab/green-credits/internal/similarity"
	"github.com/d60-Lab/green-credits/internal/storage"
	"github.com/d60-Lab/green-credits/pkg/logger"
)

// TimeBucketLayout 小时桶格式（UTC）
const TimeBucketLayout = "2006-01-02T15"

const defaultUploadTimeout = 30 * time.Second

var validate = validator.New()

// Evidence 随声明上传的证据文件
type Evidence struct {
	Data     []byte
	Filename string
	MimeType string
}

// SubmitInput 提交声明参数
type SubmitInput struct {
	UserID      string   `validate:"required"`
	ActionCode  string   `validate:"required"`
	Description string   `validate:"required,max=4000"`
	OccurredAt  time.Time
	Amount      *float64 `validate:"omitempty,gte=0"`
	Evidence    *Evidence
}

// IndexNotifier wakes the similarity index worker. Notify must not block.
type IndexNotifier interface {
	Notify()
}

// ClaimService 声明提交与查询
type ClaimService struct {
	actionTypes   repository.ActionTypeRepository
	claims        repository.ClaimRepository
	outbox        repository.OutboxRepository
	uploader      storage.Uploader
	hints         HintGenerator
	similar       similarity.Store
	notifier      IndexNotifier
	clock         clockwork.Clock
	uploadTimeout time.Duration
}

type ClaimServiceOption func(*ClaimService)

func WithClaimClock(c clockwork.Clock) ClaimServiceOption {
	return func(s *ClaimService) { s.clock = c }
}

func WithUploadTimeout(d time.Duration) ClaimServiceOption {
	return func(s *ClaimService) {
		if d > 0 {
			s.uploadTimeout = d
		}
	}
}

func WithIndexNotifier(n IndexNotifier) ClaimServiceOption {
	return func(s *ClaimService) { s.notifier = n }
}

func NewClaimService(
	actionTypes repository.ActionTypeRepository,
	claims repository.ClaimRepository,
	outbox repository.OutboxRepository,
	uploader storage.Uploader,
	hints HintGenerator,
	similar similarity.Store,
	opts ...ClaimServiceOption,
) *ClaimService {
	s := &ClaimService{
		actionTypes:   actionTypes,
		claims:        claims,
		outbox:        outbox,
		uploader:      uploader,
		hints:         hints,
		similar:       similar,
		clock:         clockwork.NewRealClock(),
		uploadTimeout: defaultUploadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TimeBucket truncates t to its UTC hour.
func TimeBucket(t time.Time) string {
	return t.UTC().Format(TimeBucketLayout)
}

// Fingerprint hashes the fields that identify "the same claim" within an hour.
func Fingerprint(actionCode, bucket, description string, evidence *Evidence) string {
	size, name := 0, ""
	if evidence != nil {
		size, name = len(evidence.Data), evidence.Filename
	}
	h := sha256.New()
	h.Write([]byte(actionCode))
	h.Write([]byte{'|'})
	h.Write([]byte(bucket))
	h.Write([]byte{'|'})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(description))))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.Itoa(size)))
	h.Write([]byte{'|'})
	h.Write([]byte(name))
	return hex.EncodeToString(h.Sum(nil))
}

// Submit validates and persists a new PENDING/T1 claim.
func (s *ClaimService) Submit(ctx context.Context, in SubmitInput) (*model.Claim, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.OccurredAt.IsZero() {
		return nil, fmt.Errorf("%w: occurred_at is required", ErrInvalidInput)
	}

	at, err := s.actionTypes.GetByCode(ctx, in.ActionCode)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidActionType
	}
	if err != nil {
		return nil, err
	}

	bucket := TimeBucket(in.OccurredAt)
	fp := Fingerprint(at.Code, bucket, in.Description, in.Evidence)

	if _, err := s.claims.FindDuplicate(ctx, in.UserID, bucket, fp); err == nil {
		return nil, ErrDuplicateClaim
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var evidenceURL *string
	if in.Evidence != nil && len(in.Evidence.Data) > 0 {
		url, err := s.upload(ctx, in.Evidence)
		if err != nil {
			return nil, err
		}
		evidenceURL = &url
	}

	hint := s.analyze(at.Code, in.Description, in.OccurredAt)
	description := in.Description
	if in.Amount != nil {
		// 收据金额存入 hint，审核通过时由积分计算读取
		if hint == nil {
			hint = &model.HintReport{Warnings: []string{}}
		}
		hint.ReceiptAmount = *in.Amount
		if *in.Amount > 0 {
			description = fmt.Sprintf("[Receipt: $%s] %s", strconv.FormatFloat(*in.Amount, 'f', -1, 64), in.Description)
		}
	}

	now := s.clock.Now().UTC()
	claim := &model.Claim{
		ID:           uuid.New().String(),
		UserID:       in.UserID,
		ActionTypeID: at.ID,
		Description:  description,
		OccurredAt:   in.OccurredAt.UTC(),
		EvidenceURL:  evidenceURL,
		Fingerprint:  fp,
		TimeBucket:   bucket,
		Status:       model.ClaimStatusPending,
		Tier:         model.TierT1,
		SubmittedAt:  now,
		UpdatedAt:    now,
	}
	if hint != nil {
		h := datatypes.NewJSONType(*hint)
		claim.Hint = &h
	}

	if err := s.claims.Create(ctx, claim); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// 并发提交：唯一索引兜底
			return nil, ErrDuplicateClaim
		}
		return nil, fmt.Errorf("create claim: %w", err)
	}
	claim.ActionType = at

	s.enqueueIndex(ctx, claim.ID)
	return claim, nil
}

func (s *ClaimService) upload(ctx context.Context, ev *Evidence) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("%w: no storage configured", ErrEvidenceUpload)
	}
	uctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	url, err := s.uploader.Upload(uctx, ev.Data, ev.Filename, ev.MimeType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEvidenceUpload, err)
	}
	return url, nil
}

// analyze never fails the submission; a broken generator just means no hint.
func (s *ClaimService) analyze(actionCode, description string, occurredAt time.Time) (report *model.HintReport) {
	if s.hints == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("hint generator panicked", zap.Any("panic", r))
			report = nil
		}
	}()
	h, err := s.hints.Analyze(actionCode, description, occurredAt)
	if err != nil {
		logger.Warn("hint generator failed", zap.Error(err))
		return nil
	}
	return &h
}

func (s *ClaimService) enqueueIndex(ctx context.Context, claimID string) {
	if s.outbox == nil {
		return
	}
	if err := s.outbox.Enqueue(ctx, claimID); err != nil {
		logger.Warn("enqueue similarity index failed", zap.String("claim_id", claimID), zap.Error(err))
		return
	}
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

// Get 返回声明及其投票
func (s *ClaimService) Get(ctx context.Context, id string) (*model.Claim, error) {
	c, err := s.claims.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrClaimNotFound
	}
	return c, err
}

// ListByUser 用户自己的声明，最新在前
func (s *ClaimService) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Claim, error) {
	return s.claims.ListByUser(ctx, userID, offset, normalizeLimit(limit))
}

// ListPending 审核队列，最早提交在前
func (s *ClaimService) ListPending(ctx context.Context, offset, limit int) ([]*model.Claim, error) {
	return s.claims.ListPending(ctx, offset, normalizeLimit(limit))
}

// ListActionTypes 行为类型目录
func (s *ClaimService) ListActionTypes(ctx context.Context) ([]*model.ActionType, error) {
	return s.actionTypes.List(ctx)
}

// SimilarClaims returns indexed claims resembling the given one. Search is
// advisory, so store failures produce an empty result.
func (s *ClaimService) SimilarClaims(ctx context.Context, id string, limit int) ([]similarity.Match, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.similar == nil {
		return []similarity.Match{}, nil
	}
	matches, err := s.similar.Search(ctx, IndexText(c), normalizeLimit(limit), c.ID)
	if err != nil {
		logger.Warn("similarity search failed", zap.String("claim_id", id), zap.Error(err))
		return []similarity.Match{}, nil
	}
	return matches, nil
}

// IndexText is the text a claim is indexed and searched by.
func IndexText(c *model.Claim) string {
	if c.ActionType == nil {
		return c.Description
	}
	return c.ActionType.Title + " " + c.Description
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 100:
		return 100
	default:
		return limit
	}
}
