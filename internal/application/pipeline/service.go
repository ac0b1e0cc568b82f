package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/bryanwahyu/medverify/internal/application"
	compsvc "github.com/bryanwahyu/medverify/internal/application/compliance"
	hallsvc "github.com/bryanwahyu/medverify/internal/application/hallucination"
	"github.com/bryanwahyu/medverify/internal/application/risk"
	"github.com/bryanwahyu/medverify/internal/application/verifier"
	"github.com/bryanwahyu/medverify/internal/domain/citations"
	"github.com/bryanwahyu/medverify/internal/domain/reports"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
	"github.com/bryanwahyu/medverify/internal/middleware"
)

// ErrNothingToVerify: exchange datang tanpa response, tidak ada yang bisa dicek.
var ErrNothingToVerify = errors.New("pipeline: exchange has no response to verify")

// ErrSkippedRole: hanya respons assistant yang diverifikasi.
var ErrSkippedRole = errors.New("pipeline: only assistant responses are verified")

// Params wires the pipeline. Archive, Artifacts and Notifier are optional.
type Params struct {
	Repo      reports.Repository
	Archive   reports.Archive
	Artifacts reports.ArtifactStore
	Notifier  reports.Notifier

	Extractor     *citations.Extractor
	Verifier      *verifier.Service
	Hallucination *hallsvc.Service
	Compliance    *compsvc.Service

	Clock  application.Clock
	Logger *slog.Logger

	// MaxConcurrent bounds simultaneous verification runs.
	MaxConcurrent int64
	// RunTimeout bounds one full run end to end.
	RunTimeout time.Duration
}

// Service owns the per-exchange verification lifecycle. Ingestion is async:
// the caller gets "pending" immediately and the run happens in the background.
// Runs are single-flight per exchange id, so re-ingesting an id that is
// already being verified joins the in-flight run instead of starting another.
type Service struct {
	repo      reports.Repository
	archive   reports.Archive
	artifacts reports.ArtifactStore
	notifier  reports.Notifier

	extractor     *citations.Extractor
	verifier      *verifier.Service
	hallucination *hallsvc.Service
	compliance    *compsvc.Service

	clock  application.Clock
	logger *slog.Logger

	runTimeout time.Duration
	flight     singleflight.Group
	sem        *semaphore.Weighted
	wg         sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc
}

func New(p Params) *Service {
	if p.Clock == nil {
		p.Clock = application.SystemClock{}
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.MaxConcurrent <= 0 {
		p.MaxConcurrent = 4
	}
	if p.RunTimeout <= 0 {
		p.RunTimeout = 60 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		repo:          p.Repo,
		archive:       p.Archive,
		artifacts:     p.Artifacts,
		notifier:      p.Notifier,
		extractor:     p.Extractor,
		verifier:      p.Verifier,
		hallucination: p.Hallucination,
		compliance:    p.Compliance,
		clock:         p.Clock,
		logger:        p.Logger,
		runTimeout:    p.RunTimeout,
		sem:           semaphore.NewWeighted(p.MaxConcurrent),
		baseCtx:       ctx,
		cancel:        cancel,
	}
}

// Ingest registers an exchange and queues its verification run. Re-ingesting
// a known id is a no-op: the current status is returned unchanged.
func (s *Service) Ingest(ctx context.Context, ex verification.Exchange) (verification.Status, error) {
	if strings.TrimSpace(ex.Response) == "" {
		return "", ErrNothingToVerify
	}
	if ex.Role != "" && ex.Role != verification.RoleAssistant {
		return "", ErrSkippedRole
	}

	if existing, err := s.repo.Find(ctx, ex.TenantID, ex.ID); err == nil {
		return existing.Status, nil
	} else if !errors.Is(err, reports.ErrNotFound) {
		return "", err
	}

	now := s.clock.Now()
	rec := &reports.Record{
		ExchangeID: ex.ID,
		TenantID:   ex.TenantID,
		Exchange:   ex,
		Status:     verification.StatusPending,
		Runs:       1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return "", err
	}
	s.trigger(ex)
	return verification.StatusPending, nil
}

// Reverify resets a known exchange to pending and queues a fresh run. Unlike
// ingestion this is an explicit reset, so it bypasses the merge order.
func (s *Service) Reverify(ctx context.Context, tenantID string, id verification.ExchangeID) (verification.Status, error) {
	rec, err := s.repo.Find(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	rec.Status = verification.StatusPending
	rec.Runs++
	rec.LastError = ""
	rec.UpdatedAt = s.clock.Now()
	if err := s.repo.Save(ctx, rec); err != nil {
		return "", err
	}
	s.trigger(rec.Exchange)
	return verification.StatusPending, nil
}

// GetReport fetches the current record for an exchange.
func (s *Service) GetReport(ctx context.Context, tenantID string, id verification.ExchangeID) (*reports.Record, error) {
	return s.repo.Find(ctx, tenantID, id)
}

// Latest lists the most recently updated records for a tenant.
func (s *Service) Latest(ctx context.Context, tenantID string, limit int) ([]*reports.Record, error) {
	return s.repo.Latest(ctx, tenantID, limit)
}

// Close stops accepting runs and waits for in-flight ones to settle.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) trigger(ex verification.Exchange) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		key := ex.TenantID + "/" + string(ex.ID)
		_, _, _ = s.flight.Do(key, func() (any, error) {
			s.run(ex)
			return nil, nil
		})
	}()
}

func (s *Service) run(ex verification.Exchange) {
	if err := s.sem.Acquire(s.baseCtx, 1); err != nil {
		s.resetToPending(ex) // shutdown before the run started
		return
	}
	defer s.sem.Release(1)

	middleware.IncrementVerifications()
	middleware.IncrementVerificationsRunning()
	defer middleware.DecrementVerificationsRunning()

	ctx, cancelRun := context.WithTimeout(s.baseCtx, s.runTimeout)
	defer cancelRun()

	s.updateStatus(ctx, ex, verification.StatusVerifying)

	report := &reports.Report{
		ReportID:  uuid.NewString(),
		Timestamp: s.clock.Now(),
		InputSummary: reports.InputSummary{
			PromptLength: len(ex.Prompt),
			OutputLength: len(ex.Response),
			HasDocuments: ex.HasDocuments(),
		},
	}

	cits := s.extractor.Extract(ex.Response)
	citVerdicts := s.verifier.VerifyAll(ctx, cits)

	hall := s.hallucination.Analyze(ctx, ex, citVerdicts)
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		report.Analysis.HallucinationAnalysis = reports.HallucinationSection{
			Status: reports.SectionFailed, Error: "verification timed out",
		}
		hall = nil
	} else {
		report.Analysis.HallucinationAnalysis = reports.HallucinationSection{
			Status: reports.SectionCompleted, Detail: hall,
		}
	}

	comp := s.compliance.Analyze(ctx, ex)
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		report.Analysis.ComplianceAnalysis = reports.ComplianceSection{
			Status: reports.SectionFailed, Error: "verification timed out",
		}
		comp = nil
	} else {
		report.Analysis.ComplianceAnalysis = reports.ComplianceSection{
			Status: reports.SectionCompleted, Detail: comp,
		}
	}

	// Shutdown mid-run: leave the record at pending for the next start.
	if s.baseCtx.Err() != nil {
		s.resetToPending(ex)
		return
	}

	verdict := risk.Combine(hall, comp)
	report.Analysis.CombinedAssessment = &verdict

	final := verification.StatusVerified
	lastError := ""
	switch {
	case hall == nil && comp == nil:
		final = verification.StatusFailed
		lastError = "verification timed out"
		middleware.IncrementVerificationsFailed()
	case verdict.OverallRiskLevel.Rank() >= verification.RiskHigh.Rank():
		final = verification.StatusWarning
		middleware.IncrementWarnings()
	}
	report.Status = final

	s.finish(ex, report, &verdict, final, lastError)
}

// updateStatus applies the merge order so a stale update never regresses a
// record that moved on.
func (s *Service) updateStatus(ctx context.Context, ex verification.Exchange, next verification.Status) {
	rec, err := s.repo.Find(ctx, ex.TenantID, ex.ID)
	if err != nil {
		s.logger.Error("status update lookup failed", "exchange_id", ex.ID, "error", err)
		return
	}
	merged := verification.Merge(rec.Status, next)
	if merged == rec.Status {
		return
	}
	rec.Status = merged
	rec.UpdatedAt = s.clock.Now()
	if err := s.repo.Save(ctx, rec); err != nil {
		s.logger.Error("status update save failed", "exchange_id", ex.ID, "error", err)
	}
}

func (s *Service) resetToPending(ex verification.Exchange) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec, err := s.repo.Find(ctx, ex.TenantID, ex.ID)
	if err != nil {
		return
	}
	if rec.Status.Terminal() {
		return
	}
	rec.Status = verification.StatusPending
	rec.UpdatedAt = s.clock.Now()
	if err := s.repo.Save(ctx, rec); err != nil {
		s.logger.Error("pending reset failed", "exchange_id", ex.ID, "error", err)
	}
}

func (s *Service) finish(ex verification.Exchange, report *reports.Report, verdict *verification.RiskVerdict, final verification.Status, lastError string) {
	// The run ctx may already be dead; persisting the outcome gets its own.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec, err := s.repo.Find(ctx, ex.TenantID, ex.ID)
	if err != nil {
		s.logger.Error("finish lookup failed", "exchange_id", ex.ID, "error", err)
		return
	}
	rec.Status = verification.Merge(rec.Status, final)
	rec.Verdict = verdict
	rec.Report = report
	rec.LastError = lastError
	rec.UpdatedAt = s.clock.Now()
	if err := s.repo.Save(ctx, rec); err != nil {
		s.logger.Error("finish save failed", "exchange_id", ex.ID, "error", err)
		return
	}

	s.logger.Info("verification finished",
		"exchange_id", ex.ID, "tenant_id", ex.TenantID,
		"status", rec.Status, "overall_risk", verdict.OverallRiskLevel)

	if s.archive != nil {
		if err := s.archive.Archive(ctx, rec); err != nil {
			s.logger.Warn("archive failed", "exchange_id", ex.ID, "error", err)
		}
	}
	if s.artifacts != nil {
		key := fmt.Sprintf("%s/%s/%s.json", ex.TenantID, ex.ID, report.ReportID)
		if _, err := s.artifacts.PutJSON(ctx, key, report); err != nil {
			s.logger.Warn("report export failed", "exchange_id", ex.ID, "error", err)
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, rec)
	}
}
