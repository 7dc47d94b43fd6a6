package persistence

import (
	"context"

	"github.com/vialuz/sac-dashboard/modules/sac/domain/entities/upload"
	"github.com/vialuz/sac-dashboard/modules/sac/infrastructure/persistence/models"
	"github.com/vialuz/sac-dashboard/pkg/composables"
)

const (
	insertUploadQuery = `
		INSERT INTO uploads (
			id, filename, file_hash, status,
			imported_count, duplicate_count, error_text,
			created_at, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	updateUploadQuery = `
		UPDATE uploads SET
			status = $2,
			imported_count = $3,
			duplicate_count = $4,
			error_text = $5,
			processed_at = $6
		WHERE id = $1`
	existsUploadByHashQuery = `
		SELECT EXISTS (
			SELECT 1 FROM uploads
			WHERE file_hash = $1 AND status IN ('success', 'warning')
		)`
	selectRecentUploadsQuery = `
		SELECT id, filename, file_hash, status,
			imported_count, duplicate_count, error_text,
			created_at, processed_at
		FROM uploads
		ORDER BY created_at DESC
		LIMIT $1`
)

type PgUploadRepository struct{}

func NewUploadRepository() upload.Repository {
	return &PgUploadRepository{}
}

func (r *PgUploadRepository) Create(ctx context.Context, u *upload.Upload) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := ToDBUpload(u)
	_, err = tx.Exec(ctx, insertUploadQuery,
		row.ID,
		row.Filename,
		row.FileHash,
		row.Status,
		row.ImportedCount,
		row.DuplicateCount,
		row.ErrorText,
		row.CreatedAt,
		row.ProcessedAt,
	)
	return err
}

func (r *PgUploadRepository) Update(ctx context.Context, u *upload.Upload) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := ToDBUpload(u)
	_, err = tx.Exec(ctx, updateUploadQuery,
		row.ID,
		row.Status,
		row.ImportedCount,
		row.DuplicateCount,
		row.ErrorText,
		row.ProcessedAt,
	)
	return err
}

func (r *PgUploadRepository) ExistsByHash(ctx context.Context, fileHash string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, existsUploadByHashQuery, fileHash).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgUploadRepository) GetRecent(ctx context.Context, limit int) ([]*upload.Upload, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := tx.Query(ctx, selectRecentUploadsQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []*upload.Upload
	for rows.Next() {
		var row models.Upload
		if err := rows.Scan(
			&row.ID,
			&row.Filename,
			&row.FileHash,
			&row.Status,
			&row.ImportedCount,
			&row.DuplicateCount,
			&row.ErrorText,
			&row.CreatedAt,
			&row.ProcessedAt,
		); err != nil {
			return nil, err
		}
		u, err := ToDomainUpload(&row)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}
