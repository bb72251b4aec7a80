package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/internal/store"
	"github.com/DSAshv/urbanAssist/pkg/geo"
)

type complaintsRepo struct {
	q querier
}

const complaintColumns = `id, code, title, description, category, status, priority,
	longitude, latitude, address, images, user_id, assigned_department, assigned_to,
	resolution_text, resolved_by, resolved_at, created_at, updated_at`

// sortableColumns is the allowlist for client-supplied sort keys. Anything
// else falls back to created_at.
var sortableColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
	"category":  "category",
	"status":    "status",
	"priority":  "priority",
}

func scanComplaint(row interface{ Scan(...any) error }) (domain.Complaint, error) {
	var (
		c              domain.Complaint
		images         string
		assignedTo     sql.NullString
		resolutionText sql.NullString
		resolvedBy     sql.NullString
		resolvedAt     sql.NullTime
	)

	err := row.Scan(
		&c.ID, &c.Code, &c.Title, &c.Description, &c.Category, &c.Status, &c.Priority,
		&c.Location.Longitude, &c.Location.Latitude, &c.Location.Address,
		&images, &c.UserID, &c.AssignedDepartment, &assignedTo,
		&resolutionText, &resolvedBy, &resolvedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Complaint{}, err
	}

	c.Images = splitList(images)
	c.AssignedTo = mapNullString(assignedTo)
	if resolvedAt.Valid {
		c.Resolution = &domain.Resolution{
			Text:       mapNullString(resolutionText),
			ResolvedBy: mapNullString(resolvedBy),
			ResolvedAt: resolvedAt.Time,
		}
	}
	return c, nil
}

func (r *complaintsRepo) CreateComplaint(ctx context.Context, c domain.Complaint) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO complaints (
			id, code, title, description, category, status, priority,
			longitude, latitude, address, images, user_id, assigned_department
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Code, c.Title, c.Description, c.Category, c.Status, c.Priority,
		c.Location.Longitude, c.Location.Latitude, c.Location.Address,
		joinList(c.Images), c.UserID, c.AssignedDepartment,
	)
	return mapConstraint(err)
}

func (r *complaintsRepo) GetComplaintByID(ctx context.Context, id string) (domain.Complaint, error) {
	c, err := scanComplaint(r.q.QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = ?`, id))
	if err != nil {
		return domain.Complaint{}, mapNotFound(err)
	}
	return c, nil
}

func (r *complaintsRepo) ListComplaints(ctx context.Context, f store.ComplaintFilter) ([]domain.Complaint, int, error) {
	where, args := buildFilter(f)

	var total int
	if err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM complaints`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortableColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if f.SortAsc {
		dir = "ASC"
	}

	page := max(f.Page, 1)
	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(
		`SELECT %s FROM complaints%s ORDER BY %s %s, id %s LIMIT ? OFFSET ?`,
		complaintColumns, where, col, dir, dir,
	)
	rows, err := r.q.QueryContext(ctx, query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	complaints, err := collectComplaints(rows)
	if err != nil {
		return nil, 0, err
	}
	return complaints, total, nil
}

func buildFilter(f store.ComplaintFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		clauses = append(clauses, "priority = ?")
		args = append(args, f.Priority)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *complaintsRepo) ListWithinBox(ctx context.Context, box geo.Box, limit int) ([]domain.Complaint, error) {
	// A wrapped box covers two longitude intervals, one on each side of the
	// antimeridian.
	lonCond := "longitude BETWEEN ? AND ?"
	if box.Wraps() {
		lonCond = "(longitude >= ? OR longitude <= ?)"
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT `+complaintColumns+` FROM complaints
		WHERE latitude BETWEEN ? AND ? AND `+lonCond+`
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectComplaints(rows)
}

func collectComplaints(rows *sql.Rows) ([]domain.Complaint, error) {
	var complaints []domain.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}

func (r *complaintsRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE complaints SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *complaintsRepo) SetResolution(ctx context.Context, id string, res domain.Resolution) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE complaints SET
			resolution_text = ?,
			resolved_by = ?,
			resolved_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		res.Text, res.ResolvedBy, res.ResolvedAt, id,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *complaintsRepo) UpdateAssignment(ctx context.Context, id string, department string, assignedTo string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE complaints SET
			assigned_department = ?,
			assigned_to = COALESCE(?, assigned_to),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		department, mapStringNull(assignedTo), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *complaintsRepo) AddComment(ctx context.Context, c domain.Comment) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO complaint_comments (id, complaint_id, author_id, body)
		VALUES (?, ?, ?, ?)`,
		c.ID, c.ComplaintID, c.AuthorID, c.Body,
	)
	return err
}

func (r *complaintsRepo) ListComments(ctx context.Context, complaintID string) ([]domain.CommentWithAuthor, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT c.id, c.complaint_id, c.author_id, c.body, c.created_at,
			u.first_name, u.last_name, u.role
		FROM complaint_comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.complaint_id = ?
		ORDER BY c.created_at ASC, c.id ASC`,
		complaintID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.CommentWithAuthor
	for rows.Next() {
		var cwa domain.CommentWithAuthor
		err := rows.Scan(
			&cwa.ID, &cwa.ComplaintID, &cwa.AuthorID, &cwa.Body, &cwa.CreatedAt,
			&cwa.Author.FirstName, &cwa.Author.LastName, &cwa.Author.Role,
		)
		if err != nil {
			return nil, err
		}
		cwa.Author.ID = cwa.AuthorID
		comments = append(comments, cwa)
	}
	return comments, rows.Err()
}

func (r *complaintsRepo) CountBy(ctx context.Context, dim store.StatsDimension) (map[string]int, error) {
	var col string
	switch dim {
	case store.StatsByStatus:
		col = "status"
	case store.StatsByCategory:
		col = "category"
	case store.StatsByPriority:
		col = "priority"
	case store.StatsByDepartment:
		col = "assigned_department"
	default:
		return nil, fmt.Errorf("sqlite: unknown stats dimension %q", dim)
	}

	rows, err := r.q.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM complaints GROUP BY %s`, col, col))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

func (r *complaintsRepo) ResolutionTimeStats(ctx context.Context) (store.ResolutionStats, error) {
	var (
		stats store.ResolutionStats
		avg   sql.NullFloat64
		min   sql.NullFloat64
		max   sql.NullFloat64
	)

	// julianday differences are fractional days, which is the unit the
	// dashboard reports.
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*),
			AVG(julianday(resolved_at) - julianday(created_at)),
			MIN(julianday(resolved_at) - julianday(created_at)),
			MAX(julianday(resolved_at) - julianday(created_at))
		FROM complaints
		WHERE status = 'resolved' AND resolved_at IS NOT NULL`,
	).Scan(&stats.Count, &avg, &min, &max)
	if err != nil {
		return store.ResolutionStats{}, err
	}

	stats.AvgDays = avg.Float64
	stats.MinDays = min.Float64
	stats.MaxDays = max.Float64
	return stats, nil
}
