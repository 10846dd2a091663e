// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// QueryOptions filters observation queries.
type QueryOptions struct {
	// Series restricts results to one series. Empty matches all.
	Series string

	// From and To bound the date range, inclusive. Zero means unbounded.
	From time.Time
	To   time.Time

	// Limit caps the result count. Zero uses the store default.
	Limit int
}

// Query returns observations ordered by series then date.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]types.Observation, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT series, date, value FROM observations WHERE 1=1`)
	if opts.Series != "" {
		qb.WriteString(` AND series = ?`)
		args = append(args, opts.Series)
	}
	if !opts.From.IsZero() {
		qb.WriteString(` AND date >= ?`)
		args = append(args, opts.From.Format(dateLayout))
	}
	if !opts.To.IsZero() {
		qb.WriteString(` AND date <= ?`)
		args = append(args, opts.To.Format(dateLayout))
	}
	qb.WriteString(` ORDER BY series, date LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var out []types.Observation
	for rows.Next() {
		var (
			obs  types.Observation
			date string
		)
		if err := rows.Scan(&obs.Series, &date, &obs.Value); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		if obs.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("observation date %q: %w", date, err)
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}
