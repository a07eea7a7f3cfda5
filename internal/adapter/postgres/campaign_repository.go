package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"promofeed/internal/core/domain"
	"promofeed/internal/core/port"
)

const uniqueViolation = "23505"

const campaignColumns = `id, source_name, title, description, target_url, category, channel,
	valid_from, valid_until, fingerprint, quality_score, feed_tier, overridden,
	first_seen, last_seen, update_count, status, created_at, updated_at`

// CampaignRepository implements port.CampaignRepository on PostgreSQL
// using pgxpool. The (source_name, fingerprint) pair carries a partial
// unique index over active rows, which is what makes the insert-or-merge
// critical section hold under concurrent writers.
type CampaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository returns a new repository instance.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

// UpsertByFingerprint inserts or merges under the fingerprint
// uniqueness constraint. Losing the insert race raises a unique
// violation, which is retried as a merge against the now-existing row;
// duplication is a liveness concern, never a caller-visible failure.
func (r *CampaignRepository) UpsertByFingerprint(ctx context.Context, c domain.Campaign, now time.Time) (domain.Campaign, bool, error) {
	for attempt := 0; attempt < 3; attempt++ {
		rec, created, err := r.tryUpsert(ctx, c, now)
		if errors.Is(err, port.ErrFingerprintConflict) {
			continue
		}
		return rec, created, err
	}
	return domain.Campaign{}, false, fmt.Errorf("upsert of fingerprint %s did not settle", c.Fingerprint)
}

func (r *CampaignRepository) tryUpsert(ctx context.Context, c domain.Campaign, now time.Time) (rec domain.Campaign, created bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Campaign{}, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	// Lock the existing active row, if any, for the merge.
	row := tx.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns
		WHERE source_name = $1 AND fingerprint = $2 AND status = $3 FOR UPDATE`,
		c.SourceName, c.Fingerprint, domain.StatusActive)
	existing, scanErr := scanCampaign(row)
	switch {
	case scanErr == nil:
		merged := existing.Merge(c, now)
		merged.UpdatedAt = now
		_, err = tx.Exec(ctx, `UPDATE campaigns SET title=$2, description=$3, target_url=$4,
			category=$5, channel=$6, valid_until=$7, quality_score=$8, last_seen=$9,
			update_count=$10, updated_at=$11 WHERE id=$1`,
			merged.ID, merged.Title, merged.Description, merged.TargetURL, merged.Category,
			merged.Channel, nullTime(merged.ValidUntil), merged.QualityScore, merged.LastSeen,
			merged.UpdateCount, merged.UpdatedAt)
		return merged, false, err
	case errors.Is(scanErr, pgx.ErrNoRows):
		c.FirstSeen = now
		c.LastSeen = now
		c.UpdateCount = 0
		c.Status = domain.StatusActive
		c.CreatedAt = now
		c.UpdatedAt = now
		err = tx.QueryRow(ctx, `INSERT INTO campaigns (source_name, title, description, target_url,
			category, channel, valid_from, valid_until, fingerprint, quality_score, feed_tier,
			overridden, first_seen, last_seen, update_count, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18) RETURNING id`,
			c.SourceName, c.Title, c.Description, c.TargetURL, c.Category, c.Channel,
			nullTime(c.ValidFrom), nullTime(c.ValidUntil), c.Fingerprint, c.QualityScore,
			string(c.Tier), c.Overridden, c.FirstSeen, c.LastSeen, c.UpdateCount, c.Status,
			c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			err = port.ErrFingerprintConflict
			return domain.Campaign{}, false, err
		}
		return c, true, err
	default:
		err = scanErr
		return domain.Campaign{}, false, err
	}
}

// GetCampaign returns a campaign by id, or port.ErrNotFound.
func (r *CampaignRepository) GetCampaign(ctx context.Context, id int64) (domain.Campaign, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	c, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Campaign{}, fmt.Errorf("campaign %d: %w", id, port.ErrNotFound)
	}
	return c, err
}

// ListCampaigns returns campaigns matching the filter, newest first.
func (r *CampaignRepository) ListCampaigns(ctx context.Context, f port.CampaignFilter) ([]domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	var args []any
	if f.Tier != "" {
		args = append(args, string(f.Tier))
		query += fmt.Sprintf(" AND feed_tier = $%d", len(args))
	}
	if f.Source != "" {
		args = append(args, f.Source)
		query += fmt.Sprintf(" AND source_name = $%d", len(args))
	}
	if f.Scope != "" {
		args = append(args, f.Scope)
		query += fmt.Sprintf(" AND source_name IN (SELECT canonical_name FROM sources WHERE $%d = ANY(scopes))", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Campaign, error) {
		return scanCampaign(row)
	})
}

// SwapTier moves a campaign between tiers as a compare-and-swap. Zero
// rows affected means a concurrent evaluation already moved it, or an
// admin pinned the tier in the meantime; pinned records never move here.
func (r *CampaignRepository) SwapTier(ctx context.Context, id int64, from, to domain.FeedTier) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE campaigns SET feed_tier = $3, updated_at = now()
		WHERE id = $1 AND feed_tier = $2 AND overridden = false`, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetOverride pins or clears a tier override.
func (r *CampaignRepository) SetOverride(ctx context.Context, id int64, tier domain.FeedTier, pinned bool) error {
	var tag pgconn.CommandTag
	var err error
	if pinned {
		tag, err = r.pool.Exec(ctx, `UPDATE campaigns SET feed_tier = $2, overridden = true,
			updated_at = now() WHERE id = $1`, id, string(tier))
	} else {
		tag, err = r.pool.Exec(ctx, `UPDATE campaigns SET overridden = false,
			updated_at = now() WHERE id = $1`, id)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("campaign %d: %w", id, port.ErrNotFound)
	}
	return nil
}

// ExpireLapsed marks lapsed active campaigns expired.
func (r *CampaignRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE campaigns SET status = $1, updated_at = $2
		WHERE status = $3 AND valid_until IS NOT NULL AND valid_until < $2`,
		domain.StatusExpired, now, domain.StatusActive)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// AppendAudit appends an audit entry. The table is insert-only; ids
// give the per-campaign causal order.
func (r *CampaignRepository) AppendAudit(ctx context.Context, e domain.AuditLogEntry) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO audit_log (campaign_id, actor, prior_tier, new_tier, reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.CampaignID, e.Actor, string(e.PriorTier), string(e.NewTier), e.Reason, e.CreatedAt)
	return err
}

// ListAudit returns a campaign's audit entries in causal order.
func (r *CampaignRepository) ListAudit(ctx context.Context, campaignID int64) ([]domain.AuditLogEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, campaign_id, actor, prior_tier, new_tier, reason, created_at
		FROM audit_log WHERE campaign_id = $1 ORDER BY id`, campaignID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AuditLogEntry, error) {
		var e domain.AuditLogEntry
		var prior, next string
		err := row.Scan(&e.ID, &e.CampaignID, &e.Actor, &prior, &next, &e.Reason, &e.CreatedAt)
		e.PriorTier = domain.FeedTier(prior)
		e.NewTier = domain.FeedTier(next)
		return e, err
	})
}

// CreateSuggestion stores a new pending suggestion.
func (r *CampaignRepository) CreateSuggestion(ctx context.Context, s domain.AdminSuggestion) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO suggestions (id, campaign_id, proposed_tier, reason, proposed_by, state, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.CampaignID, string(s.ProposedTier), s.Reason, s.ProposedBy, s.State, s.CreatedAt)
	return err
}

// GetSuggestion returns a suggestion by id, or port.ErrNotFound.
func (r *CampaignRepository) GetSuggestion(ctx context.Context, id string) (domain.AdminSuggestion, error) {
	var s domain.AdminSuggestion
	var tier string
	var resolvedAt *time.Time
	err := r.pool.QueryRow(ctx, `SELECT id, campaign_id, proposed_tier, reason, proposed_by, state, created_at, resolved_at
		FROM suggestions WHERE id = $1`, id).
		Scan(&s.ID, &s.CampaignID, &tier, &s.Reason, &s.ProposedBy, &s.State, &s.CreatedAt, &resolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AdminSuggestion{}, fmt.Errorf("suggestion %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		return domain.AdminSuggestion{}, err
	}
	s.ProposedTier = domain.FeedTier(tier)
	if resolvedAt != nil {
		s.ResolvedAt = *resolvedAt
	}
	return s, nil
}

// ListSuggestions returns suggestions, optionally filtered by state.
func (r *CampaignRepository) ListSuggestions(ctx context.Context, state string) ([]domain.AdminSuggestion, error) {
	query := `SELECT id, campaign_id, proposed_tier, reason, proposed_by, state, created_at, resolved_at
		FROM suggestions`
	var args []any
	if state != "" {
		query += ` WHERE state = $1`
		args = append(args, state)
	}
	query += ` ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AdminSuggestion, error) {
		var s domain.AdminSuggestion
		var tier string
		var resolvedAt *time.Time
		err := row.Scan(&s.ID, &s.CampaignID, &tier, &s.Reason, &s.ProposedBy, &s.State, &s.CreatedAt, &resolvedAt)
		s.ProposedTier = domain.FeedTier(tier)
		if resolvedAt != nil {
			s.ResolvedAt = *resolvedAt
		}
		return s, err
	})
}

// ResolveSuggestion transitions a pending suggestion exactly once. The
// state guard in the WHERE clause is what makes double resolution fail
// instead of silently rewriting history.
func (r *CampaignRepository) ResolveSuggestion(ctx context.Context, id string, state string, resolvedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE suggestions SET state = $2, resolved_at = $3
		WHERE id = $1 AND state = $4`, id, state, resolvedAt, domain.SuggestionPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var current string
	err = r.pool.QueryRow(ctx, `SELECT state FROM suggestions WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("suggestion %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("suggestion %s already %s: %w", id, current, port.ErrInvalidState)
}

// UpsertSource creates or updates a source and replaces its alias set.
func (r *CampaignRepository) UpsertSource(ctx context.Context, s domain.Source) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()
	_, err = tx.Exec(ctx, `INSERT INTO sources (canonical_name, hidden, scopes)
		VALUES ($1,$2,$3)
		ON CONFLICT (canonical_name) DO UPDATE SET hidden = EXCLUDED.hidden, scopes = EXCLUDED.scopes`,
		s.CanonicalName, s.Hidden, s.Scopes)
	if err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM source_aliases WHERE canonical_name = $1`, s.CanonicalName); err != nil {
		return err
	}
	for _, alias := range s.Aliases {
		key := domain.NormalizeKey(alias)
		if key == "" {
			continue
		}
		_, err = tx.Exec(ctx, `INSERT INTO source_aliases (alias_key, alias, canonical_name)
			VALUES ($1,$2,$3) ON CONFLICT (alias_key) DO UPDATE SET alias = EXCLUDED.alias, canonical_name = EXCLUDED.canonical_name`,
			key, alias, s.CanonicalName)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListSources returns all sources with their alias sets.
func (r *CampaignRepository) ListSources(ctx context.Context) ([]domain.Source, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.canonical_name, s.hidden, s.scopes, a.alias
		FROM sources s LEFT JOIN source_aliases a ON a.canonical_name = s.canonical_name
		ORDER BY s.canonical_name, a.alias`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Source
	byName := make(map[string]int)
	for rows.Next() {
		var name string
		var hidden bool
		var scopes []string
		var alias *string
		if err = rows.Scan(&name, &hidden, &scopes, &alias); err != nil {
			return nil, err
		}
		i, ok := byName[name]
		if !ok {
			out = append(out, domain.Source{CanonicalName: name, Hidden: hidden, Scopes: scopes})
			i = len(out) - 1
			byName[name] = i
		}
		if alias != nil {
			out[i].Aliases = append(out[i].Aliases, *alias)
		}
	}
	return out, rows.Err()
}

func scanCampaign(row pgx.Row) (domain.Campaign, error) {
	var c domain.Campaign
	var validFrom, validUntil *time.Time
	var tier string
	err := row.Scan(&c.ID, &c.SourceName, &c.Title, &c.Description, &c.TargetURL, &c.Category,
		&c.Channel, &validFrom, &validUntil, &c.Fingerprint, &c.QualityScore, &tier,
		&c.Overridden, &c.FirstSeen, &c.LastSeen, &c.UpdateCount, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Campaign{}, err
	}
	if validFrom != nil {
		c.ValidFrom = *validFrom
	}
	if validUntil != nil {
		c.ValidUntil = *validUntil
	}
	c.Tier = domain.FeedTier(tier)
	return c, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
