package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vantage-books/vantage/internal/accounts"
	"github.com/vantage-books/vantage/internal/platform/db"
	"github.com/vantage-books/vantage/internal/shared"
)

const maxPostAttempts = 3

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, companyID, entryID int64) (Entry, error)
	ListByCompany(ctx context.Context, companyID int64) ([]Entry, error)
}

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts successful postings per entry type.
type MetricsPort interface {
	CountPosting(entryType string)
}

// Service validates and persists journal entries. Post is the single point
// where account balances change.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	metrics MetricsPort
	now     func() time.Time
}

// NewService constructs the poster.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithMetrics attaches a posting counter.
func (s *Service) WithMetrics(m MetricsPort) {
	s.metrics = m
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Post validates the input, applies balance deltas to every referenced
// account and persists entry, lines and balances as one atomic unit.
// Nothing is persisted on any failure. Serialization conflicts are retried
// with fresh reads up to maxPostAttempts before surfacing ErrConflict.
func (s *Service) Post(ctx context.Context, in PostingInput) (Entry, error) {
	if err := in.Validate(); err != nil {
		return Entry{}, err
	}
	var entry Entry
	var err error
	for attempt := 0; attempt < maxPostAttempts; attempt++ {
		entry, err = s.postOnce(ctx, in)
		if err == nil || !db.IsRetryable(err) {
			break
		}
	}
	if err != nil {
		if db.IsRetryable(err) {
			return Entry{}, ErrConflict
		}
		return Entry{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "journal.post",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"company_id": entry.CompanyID,
				"type":       string(entry.Type),
				"reference":  entry.ReferenceNo,
				"source_id":  entry.SourceID.String(),
			},
			At: s.now(),
		})
	}
	return entry, nil
}

func (s *Service) postOnce(ctx context.Context, in PostingInput) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		e, err := s.PostTx(ctx, tx, in)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// PostTx runs the posting algorithm against an already-open transaction.
// Document services use it to persist a document and its journal entry as
// one atomic unit. The input must have passed Validate; callers own retry
// and commit.
func (s *Service) PostTx(ctx context.Context, tx TxRepository, in PostingInput) (Entry, error) {
	ok, err := tx.CompanyExists(ctx, in.CompanyID)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, ErrCompanyNotFound
	}

	// Lock every touched account in deterministic (code) order so two
	// concurrent postings over the same set cannot deadlock.
	codes := make([]string, 0, len(in.Lines))
	seen := make(map[string]bool, len(in.Lines))
	for _, line := range in.Lines {
		if !seen[line.AccountCode] {
			seen[line.AccountCode] = true
			codes = append(codes, line.AccountCode)
		}
	}
	sort.Strings(codes)

	locked := make(map[string]*accounts.Account, len(codes))
	for _, code := range codes {
		acc, err := tx.GetAccountForUpdate(ctx, in.CompanyID, code)
		if err != nil {
			return Entry{}, err
		}
		a := acc
		locked[code] = &a
	}

	// Apply deltas line by line, in input order, rejecting the whole
	// posting if an intermediate balance goes negative on a
	// non-liability account.
	for _, line := range in.Lines {
		acc := locked[line.AccountCode]
		delta := line.Amount
		if acc.Type.DebitNormal() != line.Debit {
			delta = delta.Neg()
		}
		acc.Balance = acc.Balance.Add(delta)
		if acc.Balance.IsNegative() && acc.Type.Category() != accounts.CategoryLiability {
			return Entry{}, &NegativeBalanceError{AccountCode: acc.Code, Balance: acc.Balance}
		}
	}

	inserted, err := tx.InsertEntry(ctx, in)
	if err != nil {
		return Entry{}, err
	}
	lines, err := tx.InsertLines(ctx, inserted.ID, in.Lines, locked)
	if err != nil {
		return Entry{}, err
	}
	for _, code := range codes {
		acc := locked[code]
		if err := tx.UpdateAccountBalance(ctx, acc.ID, acc.Balance, acc.Version); err != nil {
			return Entry{}, err
		}
	}
	inserted.Lines = lines
	if s.metrics != nil {
		s.metrics.CountPosting(string(in.Type))
	}
	return inserted, nil
}

// Get loads one entry with its lines.
func (s *Service) Get(ctx context.Context, companyID, entryID int64) (Entry, error) {
	return s.repo.Get(ctx, companyID, entryID)
}

// ListByCompany returns the company's entries, newest first.
func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]Entry, error) {
	return s.repo.ListByCompany(ctx, companyID)
}
