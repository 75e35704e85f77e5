package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/constants"
	"github.com/adelaunay/paperbase/internal/common"
	"github.com/adelaunay/paperbase/internal/entity"
)

// DocumentResult is the final pipeline output written in one atomic update.
type DocumentResult struct {
	Content  string
	Category *string
	Issuer   *string
	DocDate  *string
	Amount   *string
	Summary  *string
	Sources  []string
}

// DocumentRepository persists document rows and their pipeline lifecycle.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	List(ctx context.Context, status constants.DocStatus, limit int) ([]entity.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocStatus) error
	SaveResult(ctx context.Context, id uuid.UUID, res DocumentResult) error
	MarkUnprocessed(ctx context.Context, id uuid.UUID, errorMessage string) error
}

type documentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `id, filename, media_type, status, content,
	category, issuer, doc_date, amount, summary,
	sources, error_message, created_at, updated_at`

func (r *documentRepository) Create(ctx context.Context, doc *entity.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = constants.DocStatusPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, media_type, status, content, sources, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID.String(), doc.Filename, doc.MediaType, string(doc.Status),
		doc.Content, joinSources(doc.Sources), doc.ErrorMessage,
		formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt),
	)
	if err != nil {
		return common.NewAppError("DOC_CREATE", "failed to insert document", err)
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id.String())
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.NewAppError("DOC_GET", "failed to load document", err)
	}
	return doc, nil
}

// List returns documents newest first. An empty status matches everything;
// limit <= 0 means no limit.
func (r *documentRepository) List(ctx context.Context, status constants.DocStatus, limit int) ([]entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.NewAppError("DOC_LIST", "failed to list documents", err)
	}
	defer rows.Close()

	var docs []entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, common.NewAppError("DOC_LIST", "failed to scan document", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("DOC_LIST", "row iteration failed", err)
	}
	return docs, nil
}

func (r *documentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), formatTime(time.Now()), id.String())
	if err != nil {
		return common.NewAppError("DOC_STATUS", "failed to update status", err)
	}
	return requireOneRow(res, id)
}

func (r *documentRepository) SaveResult(ctx context.Context, id uuid.UUID, result DocumentResult) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE documents SET
			status = $1, content = $2,
			category = $3, issuer = $4, doc_date = $5, amount = $6, summary = $7,
			sources = $8, error_message = '', updated_at = $9
		WHERE id = $10`,
		string(constants.DocStatusProcessed), result.Content,
		result.Category, result.Issuer, result.DocDate, result.Amount, result.Summary,
		joinSources(result.Sources), formatTime(time.Now()), id.String(),
	)
	if err != nil {
		return common.NewAppError("DOC_SAVE", "failed to save result", err)
	}
	return requireOneRow(res, id)
}

func (r *documentRepository) MarkUnprocessed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`,
		string(constants.DocStatusUnprocessed), errorMessage, formatTime(time.Now()), id.String())
	if err != nil {
		return common.NewAppError("DOC_FAIL", "failed to mark unprocessed", err)
	}
	return requireOneRow(res, id)
}

func requireOneRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil // driver cannot report; assume the update landed
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var (
		doc       entity.Document
		idStr     string
		status    string
		sources   string
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&idStr, &doc.Filename, &doc.MediaType, &status, &doc.Content,
		&doc.Category, &doc.Issuer, &doc.DocDate, &doc.Amount, &doc.Summary,
		&sources, &doc.ErrorMessage, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse document id %q: %w", idStr, err)
	}
	doc.ID = id
	doc.Status = constants.DocStatus(status)
	doc.Sources = splitSources(sources)
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)
	return &doc, nil
}
