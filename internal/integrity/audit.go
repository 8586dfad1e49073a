package integrity

import (
	"context"

	"sazon/internal/models"
)

// AuditCheck is one invariant and the number of rows breaking it.
type AuditCheck struct {
	Name       string `json:"name"`
	Violations int64  `json:"violations"`
}

type AuditReport struct {
	Checks []AuditCheck `json:"checks"`
}

func (r *AuditReport) Total() int64 {
	var total int64
	for _, c := range r.Checks {
		total += c.Violations
	}
	return total
}

// Clean reports whether no check found a violation.
func (r *AuditReport) Clean() bool {
	return r.Total() == 0
}

// Failed returns the checks with violations.
func (r *AuditReport) Failed() []AuditCheck {
	var out []AuditCheck
	for _, c := range r.Checks {
		if c.Violations > 0 {
			out = append(out, c)
		}
	}
	return out
}

type auditQuery struct {
	name string
	sql  string
}

// Each query counts offending rows; all must return zero on a healthy store.
var auditQueries = []auditQuery{
	{"posts_without_author", `SELECT COUNT(*) FROM posts p LEFT JOIN users u ON u.id = p.author_id WHERE u.id IS NULL`},
	{"comments_without_author", `SELECT COUNT(*) FROM comments c LEFT JOIN users u ON u.id = c.author_id WHERE u.id IS NULL`},
	{"comments_target_not_exclusive", `SELECT COUNT(*) FROM comments WHERE (post_id IS NULL) = (parent_id IS NULL)`},
	{"comments_without_post", `SELECT COUNT(*) FROM comments c LEFT JOIN posts p ON p.id = c.post_id WHERE c.post_id IS NOT NULL AND p.id IS NULL`},
	{"comments_without_parent", `SELECT COUNT(*) FROM comments c LEFT JOIN comments pc ON pc.id = c.parent_id WHERE c.parent_id IS NOT NULL AND pc.id IS NULL`},
	{"comments_self_parent", `SELECT COUNT(*) FROM comments WHERE parent_id = id`},
	{"reactions_without_user", `SELECT COUNT(*) FROM reactions r LEFT JOIN users u ON u.id = r.user_id WHERE u.id IS NULL`},
	{"reactions_target_not_exclusive", `SELECT COUNT(*) FROM reactions WHERE (post_id IS NULL) = (comment_id IS NULL)`},
	{"reactions_without_post", `SELECT COUNT(*) FROM reactions r LEFT JOIN posts p ON p.id = r.post_id WHERE r.post_id IS NOT NULL AND p.id IS NULL`},
	{"reactions_without_comment", `SELECT COUNT(*) FROM reactions r LEFT JOIN comments c ON c.id = r.comment_id WHERE r.comment_id IS NOT NULL AND c.id IS NULL`},
	{"reactions_duplicated", `SELECT COALESCE(SUM(n - 1), 0) FROM (SELECT COUNT(*) AS n FROM reactions GROUP BY user_id, post_id, comment_id HAVING COUNT(*) > 1) d`},
	{"media_without_post", `SELECT COUNT(*) FROM media m LEFT JOIN posts p ON p.id = m.post_id WHERE p.id IS NULL`},
	{"favorites_without_user", `SELECT COUNT(*) FROM favorites f LEFT JOIN users u ON u.id = f.user_id WHERE u.id IS NULL`},
	{"favorites_without_post", `SELECT COUNT(*) FROM favorites f LEFT JOIN posts p ON p.id = f.post_id WHERE p.id IS NULL`},
}

// Audit counts rows that break a referential or uniqueness invariant. It
// only reads.
func (e *Engine) Audit(ctx context.Context) (*AuditReport, error) {
	report := &AuditReport{Checks: make([]AuditCheck, 0, len(auditQueries))}
	err := e.do(ctx, "audit", nil, func(ctx context.Context) error {
		db := e.db.WithContext(ctx)
		for _, q := range auditQueries {
			var n int64
			if err := db.Raw(q.sql).Scan(&n).Error; err != nil {
				return models.NewInternalError(err)
			}
			report.Checks = append(report.Checks, AuditCheck{Name: q.name, Violations: n})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
