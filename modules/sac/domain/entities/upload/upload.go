package upload

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusWarning    Status = "warning"
	StatusError      Status = "error"
	StatusDuplicate  Status = "duplicate"
)

// IsTerminal reports whether the status may no longer change.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusWarning, StatusError, StatusDuplicate:
		return true
	}
	return false
}

// ResolveStatus applies the outcome decision table:
// rows imported and no errors -> success; imported with errors -> warning;
// nothing imported but duplicates found cleanly -> duplicate; else error.
func ResolveStatus(imported, duplicates, errors int) Status {
	switch {
	case imported == 0 && duplicates > 0 && errors == 0:
		return StatusDuplicate
	case imported > 0 && errors == 0:
		return StatusSuccess
	case imported > 0:
		return StatusWarning
	default:
		return StatusError
	}
}

// Upload is the append-only audit record of one submitted file.
type Upload struct {
	id             uuid.UUID
	filename       string
	fileHash       string
	status         Status
	importedCount  int
	duplicateCount int
	errorText      *string
	createdAt      time.Time
	processedAt    *time.Time
}

type Option func(*Upload)

func WithID(id uuid.UUID) Option {
	return func(u *Upload) {
		u.id = id
	}
}

func WithStatus(s Status) Option {
	return func(u *Upload) {
		u.status = s
	}
}

func WithCounts(imported, duplicates int) Option {
	return func(u *Upload) {
		u.importedCount = imported
		u.duplicateCount = duplicates
	}
}

func WithErrorText(text *string) Option {
	return func(u *Upload) {
		u.errorText = text
	}
}

func WithCreatedAt(t time.Time) Option {
	return func(u *Upload) {
		u.createdAt = t
	}
}

func WithProcessedAt(t *time.Time) Option {
	return func(u *Upload) {
		u.processedAt = t
	}
}

func New(filename, fileHash string, opts ...Option) *Upload {
	u := &Upload{
		id:        uuid.New(),
		filename:  filename,
		fileHash:  fileHash,
		status:    StatusPending,
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Upload) ID() uuid.UUID {
	return u.id
}

func (u *Upload) Filename() string {
	return u.filename
}

func (u *Upload) FileHash() string {
	return u.fileHash
}

func (u *Upload) Status() Status {
	return u.status
}

func (u *Upload) ImportedCount() int {
	return u.importedCount
}

func (u *Upload) DuplicateCount() int {
	return u.duplicateCount
}

func (u *Upload) ErrorText() *string {
	return u.errorText
}

func (u *Upload) CreatedAt() time.Time {
	return u.createdAt
}

func (u *Upload) ProcessedAt() *time.Time {
	return u.processedAt
}

// Finish moves the record to a terminal state. Once terminal the record is
// immutable; later calls are ignored.
func (u *Upload) Finish(status Status, imported, duplicates int, errorText *string) {
	if u.status.IsTerminal() {
		return
	}
	now := time.Now()
	u.status = status
	u.importedCount = imported
	u.duplicateCount = duplicates
	u.errorText = errorText
	u.processedAt = &now
}

func (u *Upload) MarkProcessing() {
	if u.status == StatusPending {
		u.status = StatusProcessing
	}
}

type Repository interface {
	Create(ctx context.Context, u *Upload) error
	Update(ctx context.Context, u *Upload) error
	// ExistsByHash checks the file-level duplicate guard: any upload with
	// the same content hash in a terminal non-error status blocks resubmission.
	ExistsByHash(ctx context.Context, fileHash string) (bool, error)
	GetRecent(ctx context.Context, limit int) ([]*Upload, error)
}
