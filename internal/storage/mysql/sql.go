package mysql

const insertApprovalSQL = `
INSERT INTO approval_audit
  (review_id, approved, outcome, detail, recorded_at)
VALUES
  (?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP(3)))
`

// Newest first; aligns with idx_audit_review (review_id, recorded_at).
const listApprovalsSQL = `
SELECT review_id, approved, outcome, detail, recorded_at
FROM approval_audit
WHERE review_id = ?
ORDER BY recorded_at DESC, id DESC
LIMIT ?
`
