package aging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RepositoryPort abstracts snapshot storage.
type RepositoryPort interface {
	Insert(ctx context.Context, snap Snapshot) (Snapshot, error)
	LatestByCompany(ctx context.Context, companyID int64, side Side) ([]Snapshot, error)
	ListByParty(ctx context.Context, companyID int64, side Side, partyID int64) ([]Snapshot, error)
	CompaniesWithSnapshots(ctx context.Context) ([]int64, error)
}

// Service records snapshots and serves aged-balance reports. Reads are
// cached in redis and deduplicated with singleflight so a burst of report
// requests hits storage once.
type Service struct {
	repo   RepositoryPort
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewService builds the recorder. cache may be nil, which disables caching.
func NewService(repo RepositoryPort, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Record classifies and stores one snapshot, then invalidates the cached
// report for that side.
func (s *Service) Record(ctx context.Context, in SnapshotInput) (Snapshot, error) {
	if err := in.Validate(); err != nil {
		return Snapshot{}, err
	}
	today := s.now()
	snap := Snapshot{
		CompanyID:  in.CompanyID,
		Side:       in.Side,
		PartyID:    in.PartyID,
		PartyName:  in.PartyName,
		DocumentNo: in.DocumentNo,
		Amount:     in.Amount,
		IssueDate:  in.IssueDate,
		DueDate:    in.DueDate,
		Bucket:     ComputeBucket(today, in.IssueDate, in.DueDate),
		RecordedAt: today,
	}
	stored, err := s.repo.Insert(ctx, snap)
	if err != nil {
		return Snapshot{}, err
	}
	s.invalidate(ctx, in.CompanyID, in.Side)
	return stored, nil
}

// AgedBalances returns one row per party with open balances split by
// bucket. Buckets are recomputed from the latest snapshot per document so
// a stale snapshot still lands in the right band.
func (s *Service) AgedBalances(ctx context.Context, companyID int64, side Side) ([]AgedRow, error) {
	if side != SidePayable && side != SideReceivable {
		return nil, ErrInvalidSide
	}
	key := cacheKey(companyID, side)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var rows []AgedRow
			if err := json.Unmarshal(cached, &rows); err == nil {
				return rows, nil
			}
		}
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		rows, err := s.compute(ctx, companyID, side)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if payload, err := json.Marshal(rows); err == nil {
				if err := s.cache.Set(ctx, key, payload, s.ttl).Err(); err != nil && s.logger != nil {
					s.logger.Warn("aging cache write failed", "key", key, "error", err)
				}
			}
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]AgedRow), nil
}

// History returns every snapshot taken for one party, newest first.
func (s *Service) History(ctx context.Context, companyID int64, side Side, partyID int64) ([]Snapshot, error) {
	if side != SidePayable && side != SideReceivable {
		return nil, ErrInvalidSide
	}
	return s.repo.ListByParty(ctx, companyID, side, partyID)
}

func (s *Service) compute(ctx context.Context, companyID int64, side Side) ([]AgedRow, error) {
	snaps, err := s.repo.LatestByCompany(ctx, companyID, side)
	if err != nil {
		return nil, err
	}
	today := s.now()
	byParty := map[int64]*AgedRow{}
	order := []int64{}
	for _, snap := range snaps {
		row, ok := byParty[snap.PartyID]
		if !ok {
			row = &AgedRow{PartyID: snap.PartyID, PartyName: snap.PartyName}
			byParty[snap.PartyID] = row
			order = append(order, snap.PartyID)
		}
		switch ComputeBucket(today, snap.IssueDate, snap.DueDate) {
		case BucketCurrent:
			row.Current = row.Current.Add(snap.Amount)
		case BucketThirty:
			row.Thirty = row.Thirty.Add(snap.Amount)
		case BucketSixty:
			row.Sixty = row.Sixty.Add(snap.Amount)
		case BucketNinety:
			row.Ninety = row.Ninety.Add(snap.Amount)
		}
		row.Total = row.Total.Add(snap.Amount)
	}
	rows := make([]AgedRow, 0, len(order))
	for _, id := range order {
		rows = append(rows, *byParty[id])
	}
	return rows, nil
}

// RefreshAll recomputes and re-caches the report for every company that
// has snapshots. Buckets drift as days pass even without new documents,
// so the worker runs this on a schedule.
func (s *Service) RefreshAll(ctx context.Context) error {
	companies, err := s.repo.CompaniesWithSnapshots(ctx)
	if err != nil {
		return err
	}
	for _, companyID := range companies {
		for _, side := range []Side{SidePayable, SideReceivable} {
			s.invalidate(ctx, companyID, side)
			if _, err := s.AgedBalances(ctx, companyID, side); err != nil {
				return fmt.Errorf("refresh company %d %s: %w", companyID, side, err)
			}
		}
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, companyID int64, side Side) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(companyID, side)).Err(); err != nil && s.logger != nil {
		s.logger.Warn("aging cache invalidate failed", "company_id", companyID, "error", err)
	}
}

func cacheKey(companyID int64, side Side) string {
	return fmt.Sprintf("aging:%d:%s", companyID, side)
}
