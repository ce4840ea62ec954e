package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"structcheck/internal/check/kind"
	"structcheck/internal/check/model"
	"structcheck/internal/check/verdict"
	"structcheck/internal/common/mq"
	appErr "structcheck/pkg/errors"
	"structcheck/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultSlotWait = 2 * time.Second

// StatusStore keeps the latest verdict of every check.
type StatusStore interface {
	Get(ctx context.Context, checkID string) (verdict.Verdict, error)
	Save(ctx context.Context, v verdict.Verdict) error
	Claim(ctx context.Context, checkID string) (bool, error)
	Release(ctx context.Context, checkID string) error
}

// FinalStatusPublisher announces terminal verdicts.
type FinalStatusPublisher interface {
	PublishFinalStatus(ctx context.Context, v verdict.Verdict) error
}

// CheckPublisher enqueues asynchronous checks.
type CheckPublisher interface {
	PublishCheck(ctx context.Context, msg model.CheckMessage) error
}

// SourceStore keeps source snapshots of asynchronous checks.
type SourceStore interface {
	Put(ctx context.Context, k kind.Kind, checkID, source string) (string, string, error)
	Get(ctx context.Context, key, hash string) (string, error)
}

// CodeStore persists the latest code per login and kind.
type CodeStore interface {
	Latest(ctx context.Context, login string, k kind.Kind) (model.StructureInfo, error)
	Save(ctx context.Context, login string, k kind.Kind, code string) (model.StructureInfo, error)
}

// Config configures the check service. Publisher, source and code stores
// are optional; the features depending on them report ServiceUnavailable.
type Config struct {
	Checker         *Checker
	StatusRepo      StatusStore
	StatusPublisher FinalStatusPublisher
	CheckPublisher  CheckPublisher
	Sources         SourceStore
	Codes           CodeStore

	PoolSize       int
	SlotWait       time.Duration
	StatusTimeout  time.Duration
	StorageTimeout time.Duration
	CodeTimeout    time.Duration
}

// Service runs checks synchronously or from the queue.
type Service struct {
	checker         *Checker
	statusRepo      StatusStore
	statusPublisher FinalStatusPublisher
	checkPublisher  CheckPublisher
	sources         SourceStore
	codes           CodeStore

	slotWait       time.Duration
	statusTimeout  time.Duration
	storageTimeout time.Duration
	codeTimeout    time.Duration
	sem            chan struct{}
}

// NewService creates a new check service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Checker == nil {
		return nil, fmt.Errorf("checker is required")
	}
	if cfg.StatusRepo == nil {
		return nil, fmt.Errorf("status repository is required")
	}
	if cfg.CheckPublisher != nil && cfg.Sources == nil {
		return nil, fmt.Errorf("source store is required for asynchronous checks")
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	slotWait := cfg.SlotWait
	if slotWait <= 0 {
		slotWait = defaultSlotWait
	}
	return &Service{
		checker:         cfg.Checker,
		statusRepo:      cfg.StatusRepo,
		statusPublisher: cfg.StatusPublisher,
		checkPublisher:  cfg.CheckPublisher,
		sources:         cfg.Sources,
		codes:           cfg.Codes,
		slotWait:        slotWait,
		statusTimeout:   cfg.StatusTimeout,
		storageTimeout:  cfg.StorageTimeout,
		codeTimeout:     cfg.CodeTimeout,
		sem:             make(chan struct{}, poolSize),
	}, nil
}

// Check runs a check synchronously and returns its verdict. The code is
// stored for the login when one is given.
func (s *Service) Check(ctx context.Context, req model.CheckRequest) (verdict.Verdict, error) {
	if err := validateRequest(req); err != nil {
		return verdict.Verdict{}, err
	}
	checkID := uuid.NewString()
	ctx = logger.WithLogin(logger.WithCheckID(ctx, checkID), req.Login)
	s.saveCode(ctx, req)

	if err := s.acquireSlot(ctx); err != nil {
		return verdict.Verdict{}, err
	}
	defer s.releaseSlot()

	out := s.checker.Run(ctx, Request{CheckID: checkID, Kind: req.Kind, Source: req.Code})
	if err := s.saveStatus(ctx, out.Verdict); err != nil {
		logger.Warn(ctx, "store verdict failed", zap.Error(err))
	}
	return out.Verdict, nil
}

// Submit stores the source and enqueues an asynchronous check. The returned
// id can be polled with Status.
func (s *Service) Submit(ctx context.Context, req model.CheckRequest) (string, error) {
	if s.checkPublisher == nil {
		return "", appErr.New(appErr.ServiceUnavailable).WithMessage("asynchronous checks are not configured")
	}
	if err := validateRequest(req); err != nil {
		return "", err
	}
	checkID := uuid.NewString()
	ctx = logger.WithLogin(logger.WithCheckID(ctx, checkID), req.Login)
	s.saveCode(ctx, req)

	if err := s.saveStatus(ctx, verdict.Pending(checkID, req.Kind, verdict.StatusPreparing)); err != nil {
		return "", err
	}

	ctxStorage, cancel := withTimeout(ctx, s.storageTimeout)
	key, hash, err := s.sources.Put(ctxStorage, req.Kind, checkID, req.Code)
	cancel()
	if err != nil {
		return "", s.failSubmission(ctx, checkID, req.Kind, err)
	}

	msg := model.CheckMessage{
		CheckID:    checkID,
		Kind:       req.Kind,
		Login:      req.Login,
		SourceKey:  key,
		SourceHash: hash,
		CreatedAt:  time.Now().Unix(),
	}
	if err := s.checkPublisher.PublishCheck(ctx, msg); err != nil {
		return "", s.failSubmission(ctx, checkID, req.Kind, err)
	}
	logger.Info(ctx, "check submitted", zap.String("kind", req.Kind.String()), zap.String("source_key", key))
	return checkID, nil
}

// HandleMessage processes one queued check.
func (s *Service) HandleMessage(ctx context.Context, msg *mq.Message) error {
	if msg == nil {
		return appErr.New(appErr.InvalidParams).WithMessage("message is nil")
	}
	if s.sources == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("source store is not configured")
	}
	var payload model.CheckMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		logger.Warn(ctx, "drop undecodable check message", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}
	if payload.CheckID == "" || payload.SourceKey == "" || !payload.Kind.Valid() {
		logger.Warn(ctx, "drop invalid check message", zap.String("message_id", msg.ID))
		return nil
	}
	ctx = logger.WithLogin(logger.WithCheckID(ctx, payload.CheckID), payload.Login)

	claimed, err := s.statusRepo.Claim(ctx, payload.CheckID)
	if err != nil {
		return err
	}
	if !claimed {
		logger.Info(ctx, "check already claimed")
		return nil
	}

	if err := s.acquireSlot(ctx); err != nil {
		s.release(ctx, payload.CheckID)
		return err
	}
	defer s.releaseSlot()

	ctxStorage, cancel := withTimeout(ctx, s.storageTimeout)
	source, err := s.sources.Get(ctxStorage, payload.SourceKey, payload.SourceHash)
	cancel()
	if err != nil {
		return s.handleFailure(ctx, payload, err)
	}

	progress := func(ctx context.Context, status verdict.Status) {
		if err := s.saveStatus(ctx, verdict.Pending(payload.CheckID, payload.Kind, status)); err != nil {
			logger.Warn(ctx, "store progress failed", zap.String("status", string(status)), zap.Error(err))
		}
	}
	out := s.checker.Run(ctx, Request{
		CheckID:  payload.CheckID,
		Kind:     payload.Kind,
		Source:   source,
		Progress: progress,
	})
	return s.finish(ctx, out.Verdict)
}

// Status returns the latest verdict of a check.
func (s *Service) Status(ctx context.Context, checkID string) (verdict.Verdict, error) {
	if strings.TrimSpace(checkID) == "" {
		return verdict.Verdict{}, appErr.ValidationError("check_id", "required")
	}
	ctxStatus, cancel := withTimeout(ctx, s.statusTimeout)
	defer cancel()
	return s.statusRepo.Get(ctxStatus, checkID)
}

// LatestCode returns the code last saved by login for k.
func (s *Service) LatestCode(ctx context.Context, login string, k kind.Kind) (model.StructureInfo, error) {
	if s.codes == nil {
		return model.StructureInfo{}, appErr.New(appErr.ServiceUnavailable).WithMessage("code storage is not configured")
	}
	if strings.TrimSpace(login) == "" {
		return model.StructureInfo{}, appErr.ValidationError("login", "required")
	}
	if !k.Valid() {
		return model.StructureInfo{}, appErr.Newf(appErr.StructureNotSupported, "structure %q is not supported", k)
	}
	ctxCode, cancel := withTimeout(ctx, s.codeTimeout)
	defer cancel()
	return s.codes.Latest(ctxCode, login, k)
}

func validateRequest(req model.CheckRequest) error {
	if !req.Kind.Valid() {
		return appErr.Newf(appErr.StructureNotSupported, "structure %q is not supported", req.Kind)
	}
	if strings.TrimSpace(req.Code) == "" {
		return appErr.ValidationError("code", "required")
	}
	return nil
}

func (s *Service) saveCode(ctx context.Context, req model.CheckRequest) {
	if s.codes == nil || req.Login == "" {
		return
	}
	ctxCode, cancel := withTimeout(ctx, s.codeTimeout)
	defer cancel()
	if _, err := s.codes.Save(ctxCode, req.Login, req.Kind, req.Code); err != nil {
		logger.Warn(ctx, "save code failed", zap.Error(err))
	}
}

func (s *Service) finish(ctx context.Context, v verdict.Verdict) error {
	if err := s.saveStatus(ctx, v); err != nil {
		return err
	}
	if s.statusPublisher == nil {
		return nil
	}
	if err := s.statusPublisher.PublishFinalStatus(ctx, v); err != nil {
		logger.Warn(ctx, "publish final status failed", zap.Error(err))
	}
	return nil
}

// handleFailure finalizes a check that could not run. Bad input is not
// retried; other failures release the claim and return the error so the
// message is redelivered.
func (s *Service) handleFailure(ctx context.Context, payload model.CheckMessage, err error) error {
	code := appErr.GetCode(err)
	logger.Error(ctx, "check could not run", zap.Int("error_code", int(code)), zap.Error(err))
	if code == appErr.InvalidParams || code == appErr.CodeTooLarge {
		failed := verdict.Assemble(verdict.Input{CheckID: payload.CheckID, Kind: payload.Kind, Err: err})
		if saveErr := s.finish(ctx, failed); saveErr != nil {
			logger.Warn(ctx, "update failure status failed", zap.Error(saveErr))
		}
		return nil
	}
	s.release(ctx, payload.CheckID)
	return err
}

func (s *Service) failSubmission(ctx context.Context, checkID string, k kind.Kind, err error) error {
	failed := verdict.Assemble(verdict.Input{CheckID: checkID, Kind: k, Err: err})
	if saveErr := s.saveStatus(ctx, failed); saveErr != nil {
		logger.Warn(ctx, "update failure status failed", zap.Error(saveErr))
	}
	return err
}

func (s *Service) release(ctx context.Context, checkID string) {
	if err := s.statusRepo.Release(ctx, checkID); err != nil {
		logger.Warn(ctx, "release claim failed", zap.Error(err))
	}
}

func (s *Service) saveStatus(ctx context.Context, v verdict.Verdict) error {
	ctxStatus, cancel := withTimeout(ctx, s.statusTimeout)
	defer cancel()
	return s.statusRepo.Save(ctxStatus, v)
}

func (s *Service) acquireSlot(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.slotWait):
		slotRejections.Inc()
		logger.Warn(ctx, "worker pool is full")
		return appErr.New(appErr.CheckQueueFull).WithMessage("worker pool is full")
	}
}

func (s *Service) releaseSlot() {
	select {
	case <-s.sem:
	default:
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
