package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"freightflow/internal/invoice"
	"freightflow/internal/repository"
	"freightflow/internal/storage"
)

var (
	ErrOwnerRequired = errors.New("owner is required")
	ErrReaderNil     = errors.New("reader is nil")
)

// UploadSummary reports the outcome of one CSV ingestion call.
type UploadSummary struct {
	FileURL  string               `json:"file_url"`
	Inserted int                  `json:"inserted"`
	Flagged  int                  `json:"flagged"`
	Skipped  []invoice.SkippedRow `json:"skipped,omitempty"`
}

// IngestService handles the full CSV ingestion path: durable file storage,
// parsing/flagging, and batch insertion.
type IngestService interface {
	// Upload stores the raw file, parses it into canonical records scoped
	// to owner, and inserts every valid row. A parse failure is fatal to
	// the call and inserts nothing; the raw file is then re-stored under a
	// failed/ prefix for later inspection.
	Upload(ctx context.Context, owner string, r io.Reader, filename string, size int64) (*UploadSummary, error)
}

type ingestService struct {
	store         storage.Storage
	repo          repository.InvoiceRepository
	loc           *time.Location
	presignExpiry time.Duration
	log           zerolog.Logger
	now           func() time.Time
}

// NewIngestService constructs an IngestService. loc is the owner timezone
// used for date normalization and the overdue clock.
func NewIngestService(store storage.Storage, repo repository.InvoiceRepository, loc *time.Location, presignExpiry time.Duration, log zerolog.Logger) IngestService {
	if loc == nil {
		loc = time.UTC
	}
	return &ingestService{
		store:         store,
		repo:          repo,
		loc:           loc,
		presignExpiry: presignExpiry,
		log:           log,
		now:           time.Now,
	}
}

func (s *ingestService) Upload(ctx context.Context, owner string, r io.Reader, filename string, size int64) (*UploadSummary, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrOwnerRequired
	}
	if r == nil {
		return nil, ErrReaderNil
	}

	// The file is both stored and parsed, so buffer it once.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	key := s.objectKey("invoices", owner, filename)
	if _, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: "text/csv",
		Metadata:    map[string]string{"original-filename": filename},
	}); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	fileURL, err := s.store.PresignGet(ctx, key, s.presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	res, err := invoice.ParseCSV(bytes.NewReader(data), invoice.ParseContext{
		Owner:    owner,
		Location: s.loc,
		Now:      s.now(),
		FileURL:  fileURL,
	})
	if err != nil {
		// Keep the unparseable file around for inspection.
		failedKey := s.objectKey("failed", owner, filename)
		if _, putErr := s.store.Put(ctx, failedKey, bytes.NewReader(data), storage.PutObjectOptions{
			Size:        int64(len(data)),
			ContentType: "text/csv",
		}); putErr != nil {
			s.log.Error().Err(putErr).Str("key", failedKey).Msg("failed to archive unparseable csv")
		}
		return nil, fmt.Errorf("csv parsing failed: %w", err)
	}

	if err := s.repo.InsertBatch(ctx, res.Records); err != nil {
		return nil, fmt.Errorf("insert invoices: %w", err)
	}

	flagged := 0
	for i := range res.Records {
		if res.Records[i].Flagged() {
			flagged++
		}
	}

	s.log.Info().
		Str("owner", owner).
		Int("inserted", len(res.Records)).
		Int("flagged", flagged).
		Int("skipped", len(res.Skipped)).
		Msg("csv ingested")

	return &UploadSummary{
		FileURL:  fileURL,
		Inserted: len(res.Records),
		Flagged:  flagged,
		Skipped:  res.Skipped,
	}, nil
}

// objectKey builds an owner-partitioned storage key, such as
// invoices/broker_example_com/1719415800000_loads.csv.
func (s *ingestService) objectKey(prefix, owner, filename string) string {
	safeOwner := strings.NewReplacer("@", "_", ".", "_", "/", "_").Replace(owner)
	name := path.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == "/" {
		name = "upload.csv"
	}
	return path.Join(prefix, safeOwner, fmt.Sprintf("%d_%s", s.now().UnixMilli(), name))
}
