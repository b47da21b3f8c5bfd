package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexel-search/caselaw-pipeline/internal/caselaw"
)

// WriteAppeals resolves each reference's human-readable case names to ids and
// inserts the resolved pairs. A reference with either side unresolved is
// dropped entirely; an appeal row never carries a null side.
func (s *Store) WriteAppeals(ctx context.Context, refs []caselaw.AppealRef) error {
	if len(refs) == 0 {
		return nil
	}

	var rows [][]any
	for _, ref := range refs {
		orig, err := s.GetCaseByName(ctx, ref.OrigName)
		if err != nil {
			return fmt.Errorf("resolve appeal orig %q: %w", ref.OrigName, err)
		}
		appeal, err := s.GetCaseByName(ctx, ref.AppealName)
		if err != nil {
			return fmt.Errorf("resolve appeal case %q: %w", ref.AppealName, err)
		}
		if orig == nil || appeal == nil {
			s.logger.Debug("dropping unresolved appeal",
				zap.String("orig", ref.OrigName),
				zap.String("appeal", ref.AppealName))
			continue
		}
		rows = append(rows, []any{orig.ID, appeal.ID})
	}
	if len(rows) == 0 {
		return nil
	}

	return s.batchInsertCheck(ctx, batchSpec{
		table:   "appeals",
		cols:    []string{"orig_case_id", "appeal_case_id"},
		keyCols: []string{"orig_case_id", "appeal_case_id"},
		rows:    rows,
	}, defaultChunkSize)
}

// GetAppeals returns every stored appeal pair.
func (s *Store) GetAppeals(ctx context.Context) ([]caselaw.Appeal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, orig_case_id, appeal_case_id FROM appeals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query appeals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var appeals []caselaw.Appeal
	for rows.Next() {
		var a caselaw.Appeal
		if err := rows.Scan(&a.ID, &a.OrigCaseID, &a.AppealCaseID); err != nil {
			return nil, fmt.Errorf("scan appeal: %w", err)
		}
		appeals = append(appeals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appeals: %w", err)
	}
	return appeals, nil
}
