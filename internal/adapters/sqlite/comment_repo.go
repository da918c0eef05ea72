package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/secondary"
)

// CommentRepository implements secondary.CommentRepository with SQLite.
type CommentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new SQLite comment repository.
func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create persists a comment and sets its ID.
func (r *CommentRepository) Create(ctx context.Context, comment *secondary.CommentRecord) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO step_instance_comments (step_instance_id, body, author) VALUES (?, ?, ?)",
		comment.StepInstanceID, comment.Body, comment.Author,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", dberr.Classify(err, "comment", dberr.OpCreate))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read comment id: %w", err)
	}
	comment.ID = id
	return nil
}

const commentSelect = "SELECT id, step_instance_id, body, author, created_at, updated_at FROM step_instance_comments"

func scanComment(scan func(...any) error) (*secondary.CommentRecord, error) {
	var createdAt, updatedAt sql.NullTime
	record := &secondary.CommentRecord{}
	if err := scan(&record.ID, &record.StepInstanceID, &record.Body, &record.Author, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	record.CreatedAt = formatTime(createdAt)
	record.UpdatedAt = formatTime(updatedAt)
	return record, nil
}

// GetByID retrieves a comment by its ID.
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*secondary.CommentRecord, error) {
	record, err := scanComment(r.db.QueryRowContext(ctx, commentSelect+" WHERE id = ?", id).Scan)
	if err == sql.ErrNoRows {
		return nil, dberr.NotFound("comment", fmt.Sprint(id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return record, nil
}

// ListByStep returns comments newest first. limit <= 0 returns all.
func (r *CommentRepository) ListByStep(ctx context.Context, stepInstanceID string, limit int) ([]*secondary.CommentRecord, error) {
	return listCommentsByStep(ctx, r.db, stepInstanceID, limit)
}

// Ties on created_at (same second) fall back to insertion order.
func listCommentsByStep(ctx context.Context, db *sql.DB, stepInstanceID string, limit int) ([]*secondary.CommentRecord, error) {
	query := commentSelect + " WHERE step_instance_id = ? ORDER BY created_at DESC, id DESC"
	args := []any{stepInstanceID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*secondary.CommentRecord
	for rows.Next() {
		record, err := scanComment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, record)
	}
	return comments, rows.Err()
}

// Update replaces the body of a comment.
func (r *CommentRepository) Update(ctx context.Context, id int64, body string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE step_instance_comments SET body = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", body, id)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", dberr.Classify(err, "comment", dberr.OpUpdate))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound("comment", fmt.Sprint(id))
	}
	return nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM step_instance_comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return dberr.NotFound("comment", fmt.Sprint(id))
	}
	return nil
}

var _ secondary.CommentRepository = (*CommentRepository)(nil)
