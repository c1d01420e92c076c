// services/dedup.go
package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"mime/multipart"

	"task-reward-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HashLedger is the global evidence-hash store. Lookup and Record are two
// separate round trips on purpose: two concurrent submissions of the same
// bytes can both pass the check before either writes. That narrow race is
// an accepted tradeoff for these non-financial point awards — the unique
// index on hash_value turns a concurrent double-write into a storage error
// rather than silent duplication.
type HashLedger interface {
	Lookup(hash string) (*models.EvidenceHash, error) // nil, nil when absent
	Record(rec *models.EvidenceHash) error
}

type gormHashLedger struct {
	db *gorm.DB
}

func (l gormHashLedger) Lookup(hash string) (*models.EvidenceHash, error) {
	var rec models.EvidenceHash
	err := l.db.Where("hash_value = ?", hash).First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (l gormHashLedger) Record(rec *models.EvidenceHash) error {
	return l.db.Create(rec).Error
}

// DedupResult partitions uploaded files into duplicates and valid files.
type DedupResult struct {
	Duplicates []string                // filenames whose content was already used
	Matches    []models.EvidenceHash   // original ledger entries for the duplicates
	ValidFiles []*multipart.FileHeader // files that passed the check
	Hashes     map[string]string       // filename → digest, for files that passed
}

// EvidenceDedupService rejects resubmission of previously used evidence
// files across the entire user base, not just per-user.
type EvidenceDedupService struct {
	Ledger HashLedger
}

func NewEvidenceDedupService(db *gorm.DB) *EvidenceDedupService {
	return &EvidenceDedupService{Ledger: gormHashLedger{db: db}}
}

// CheckDuplicates hashes each file and looks the digest up in the global
// ledger. Storage errors propagate; the caller decides whether that means
// "proceed with caution" or "abort".
func (s *EvidenceDedupService) CheckDuplicates(files []*multipart.FileHeader, userID string) (*DedupResult, error) {
	result := &DedupResult{Hashes: make(map[string]string)}
	seen := make(map[string]string) // digest → filename, catches dupes within one batch

	for _, f := range files {
		hash := s.hashFile(f)

		if prior, ok := seen[hash]; ok {
			result.Duplicates = append(result.Duplicates, f.Filename)
			result.Matches = append(result.Matches, models.EvidenceHash{
				HashValue:      hash,
				ExternalUserID: userID,
				FileURL:        prior,
			})
			continue
		}

		match, err := s.Ledger.Lookup(hash)
		if err != nil {
			return nil, fmt.Errorf("evidence hash lookup failed for %s: %w", f.Filename, err)
		}
		if match != nil {
			result.Duplicates = append(result.Duplicates, f.Filename)
			result.Matches = append(result.Matches, *match)
			continue
		}

		result.ValidFiles = append(result.ValidFiles, f)
		result.Hashes[f.Filename] = hash
		seen[hash] = f.Filename
	}

	return result, nil
}

// StoreUsage registers the digests of accepted files in the global ledger.
// Called only after the owning submission row exists, so a failed submission
// never leaves orphaned ledger entries.
func (s *EvidenceDedupService) StoreUsage(hashes map[string]string, urls map[string]string, userID, taskID, submissionID string) error {
	for name, hash := range hashes {
		rec := &models.EvidenceHash{
			ID:             uuid.NewString(),
			HashValue:      hash,
			ExternalUserID: userID,
			TaskID:         taskID,
			SubmissionID:   submissionID,
			FileURL:        urls[name],
		}
		if err := s.Ledger.Record(rec); err != nil {
			return fmt.Errorf("failed to record evidence hash for %s: %w", name, err)
		}
	}
	return nil
}

// hashFile computes SHA-256 over the full file content. If the content
// cannot be read, it degrades to a metadata fingerprint instead of aborting
// the whole submission.
func (s *EvidenceDedupService) hashFile(f *multipart.FileHeader) string {
	file, err := f.Open()
	if err != nil {
		log.Printf("[DEDUP] cannot open %s, using fallback fingerprint: %v", f.Filename, err)
		return FallbackFingerprint(f.Filename, f.Size, f.Header.Get("Last-Modified"))
	}
	defer file.Close()

	hash, err := HashFileContent(file)
	if err != nil {
		log.Printf("[DEDUP] cannot read %s, using fallback fingerprint: %v", f.Filename, err)
		return FallbackFingerprint(f.Filename, f.Size, f.Header.Get("Last-Modified"))
	}
	return hash
}

// HashFileContent returns the hex SHA-256 digest of everything in r.
func HashFileContent(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FallbackFingerprint builds a weak but stable identifier from file metadata.
// Same filename/size/modified triple → same fingerprint. The "meta:" prefix
// keeps fallback entries distinguishable from real content digests in the
// ledger.
func FallbackFingerprint(name string, size int64, modified string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", name, size, modified)))
	return "meta:" + hex.EncodeToString(sum[:])
}
