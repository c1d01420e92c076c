package services

import (
	"bytes"
	"mime/multipart"
	"strings"
	"testing"

	"task-reward-system/models"
)

// memLedger is an in-memory HashLedger for tests.
type memLedger struct {
	records map[string]*models.EvidenceHash
}

func newMemLedger() *memLedger {
	return &memLedger{records: make(map[string]*models.EvidenceHash)}
}

func (m *memLedger) Lookup(hash string) (*models.EvidenceHash, error) {
	return m.records[hash], nil
}

func (m *memLedger) Record(rec *models.EvidenceHash) error {
	m.records[rec.HashValue] = rec
	return nil
}

// makeFileHeader builds a real multipart.FileHeader whose Open() serves the
// given content, by round-tripping through an actual multipart form.
func makeFileHeader(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("evidence_files", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })

	headers := form.File["evidence_files"]
	if len(headers) != 1 {
		t.Fatalf("expected 1 file header, got %d", len(headers))
	}
	return headers[0]
}

func TestHashFileContentStable(t *testing.T) {
	first, err := HashFileContent(strings.NewReader("screenshot bytes"))
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	second, err := HashFileContent(strings.NewReader("screenshot bytes"))
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if first != second {
		t.Fatalf("same content produced different digests: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64-char hex digest, got %d chars", len(first))
	}

	other, _ := HashFileContent(strings.NewReader("different bytes"))
	if other == first {
		t.Fatal("different content must not collide")
	}
}

func TestFallbackFingerprint(t *testing.T) {
	a := FallbackFingerprint("proof.png", 1024, "Mon, 02 Jan 2006")
	b := FallbackFingerprint("proof.png", 1024, "Mon, 02 Jan 2006")
	if a != b {
		t.Fatal("fallback fingerprint must be stable for identical metadata")
	}
	if !strings.HasPrefix(a, "meta:") {
		t.Fatalf("fallback fingerprint must carry meta: prefix, got %s", a)
	}

	c := FallbackFingerprint("proof.png", 2048, "Mon, 02 Jan 2006")
	if c == a {
		t.Fatal("size change must change the fingerprint")
	}
}

func TestCheckDuplicatesFreshFilesPass(t *testing.T) {
	svc := &EvidenceDedupService{Ledger: newMemLedger()}

	files := []*multipart.FileHeader{
		makeFileHeader(t, "one.png", "first screenshot"),
		makeFileHeader(t, "two.png", "second screenshot"),
	}

	result, err := svc.CheckDuplicates(files, "user-1")
	if err != nil {
		t.Fatalf("CheckDuplicates: %v", err)
	}
	if len(result.Duplicates) != 0 {
		t.Fatalf("fresh files flagged as duplicates: %v", result.Duplicates)
	}
	if len(result.ValidFiles) != 2 || len(result.Hashes) != 2 {
		t.Fatalf("expected 2 valid files with hashes, got %d files / %d hashes",
			len(result.ValidFiles), len(result.Hashes))
	}
}

func TestCheckDuplicatesRejectsReusedContent(t *testing.T) {
	ledger := newMemLedger()
	svc := &EvidenceDedupService{Ledger: ledger}

	original := makeFileHeader(t, "original.png", "the same screenshot")
	first, err := svc.CheckDuplicates([]*multipart.FileHeader{original}, "user-1")
	if err != nil {
		t.Fatalf("CheckDuplicates: %v", err)
	}
	if err := svc.StoreUsage(first.Hashes, map[string]string{"original.png": "https://cdn/x.png"},
		"user-1", "task-1", "sub-1"); err != nil {
		t.Fatalf("StoreUsage: %v", err)
	}

	// Same bytes, different filename, different user — still a duplicate.
	recycled := makeFileHeader(t, "renamed.png", "the same screenshot")
	second, err := svc.CheckDuplicates([]*multipart.FileHeader{recycled}, "user-2")
	if err != nil {
		t.Fatalf("CheckDuplicates: %v", err)
	}

	if len(second.Duplicates) != 1 || second.Duplicates[0] != "renamed.png" {
		t.Fatalf("expected renamed.png flagged, got %v", second.Duplicates)
	}
	if len(second.Matches) != 1 || second.Matches[0].SubmissionID != "sub-1" {
		t.Fatalf("expected match pointing at sub-1, got %+v", second.Matches)
	}
	if second.Matches[0].ExternalUserID != "user-1" {
		t.Fatalf("match must identify the original owner, got %s", second.Matches[0].ExternalUserID)
	}
}

func TestCheckDuplicatesWithinOneBatch(t *testing.T) {
	svc := &EvidenceDedupService{Ledger: newMemLedger()}

	files := []*multipart.FileHeader{
		makeFileHeader(t, "a.png", "identical content"),
		makeFileHeader(t, "b.png", "identical content"),
	}

	result, err := svc.CheckDuplicates(files, "user-1")
	if err != nil {
		t.Fatalf("CheckDuplicates: %v", err)
	}
	if len(result.ValidFiles) != 1 {
		t.Fatalf("expected 1 valid file, got %d", len(result.ValidFiles))
	}
	if len(result.Duplicates) != 1 || result.Duplicates[0] != "b.png" {
		t.Fatalf("expected b.png flagged as in-batch duplicate, got %v", result.Duplicates)
	}
}

func TestStoreUsageRecordsEveryHash(t *testing.T) {
	ledger := newMemLedger()
	svc := &EvidenceDedupService{Ledger: ledger}

	hashes := map[string]string{
		"one.png": "aaaa",
		"two.png": "bbbb",
	}
	urls := map[string]string{
		"one.png": "https://cdn/one.png",
		"two.png": "https://cdn/two.png",
	}

	if err := svc.StoreUsage(hashes, urls, "user-1", "task-9", "sub-9"); err != nil {
		t.Fatalf("StoreUsage: %v", err)
	}

	for _, hash := range hashes {
		rec, _ := ledger.Lookup(hash)
		if rec == nil {
			t.Fatalf("hash %s not recorded", hash)
		}
		if rec.TaskID != "task-9" || rec.SubmissionID != "sub-9" {
			t.Fatalf("record carries wrong linkage: %+v", rec)
		}
	}
	rec, _ := ledger.Lookup("aaaa")
	if rec.FileURL != "https://cdn/one.png" {
		t.Fatalf("expected file URL preserved, got %s", rec.FileURL)
	}
}
