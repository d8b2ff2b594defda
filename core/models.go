package core

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so identical content
// always produces the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentID derives a stable identifier for a document from its source path.
// It is safe to use as a file name or storage key component.
func DocumentID(path string) string {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(path))
	return hex.EncodeToString(h.Sum(nil))
}

// fingerprintHead is how many leading bytes of a file participate in its
// fingerprint. Hashing the whole file would defeat streaming for very
// large documents.
const fingerprintHead = 1 << 16

// FingerprintFile computes a content fingerprint for checkpoint staleness
// detection. The fingerprint covers the file size and the first 64 KiB.
func FingerprintFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	h, _ := blake2b.New(16, nil)
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(info.Size()))
	h.Write(size[:])

	if _, err := io.CopyN(h, f, fingerprintHead); err != nil && err != io.EOF {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Extraction methods recorded on a PageText.
const (
	MethodPrimary   = "primary"
	MethodSecondary = "secondary"
	MethodOCR       = "ocr"
	MethodMerged    = "merged"
	MethodNone      = "none"
)

// Document describes one source document as discovered by the caller.
// Page count may be unknown (-1) until the document is opened.
type Document struct {
	Path      string
	Pages     int
	Encrypted bool
}

// TextBlock is a span of OCR output with a confidence score (0-100)
// and a bounding box in rendered-image coordinates.
type TextBlock struct {
	Text       string
	Confidence float64
	X0, Y0     float64
	X1, Y1     float64
}

// PageText is the canonical result of processing one page. It is immutable
// once produced and doubles as the output record handed to export and
// search collaborators.
type PageText struct {
	File          string
	Page          int
	Text          string
	Chars         int
	Method        string
	Blocks        []TextBlock
	OCRApplied    bool
	OCRConfidence float64
}

// Checkpoint records ingestion progress for one document. LastPage is the
// index of the last page whose PageText has been durably emitted; resume
// continues at LastPage+1.
type Checkpoint struct {
	DocPath     string    `json:"doc_path"`
	Fingerprint string    `json:"fingerprint"`
	LastPage    int       `json:"last_page"`
	BatchSize   int       `json:"batch_size"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chunk is a contiguous slice of a document's normalized text sized for
// embedding, carrying provenance back to its source page.
type Chunk struct {
	Id        ID                `json:"id"`
	File      string            `json:"file"`
	Page      int               `json:"page"`
	Section   string            `json:"section,omitempty"`
	Text      string            `json:"text"`
	StartChar int               `json:"start_char"`
	EndChar   int               `json:"end_char"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// IndexEntry binds a chunk to its embedding vector inside the vector index.
type IndexEntry struct {
	ChunkId ID        `json:"chunk_id"`
	Vector  []float32 `json:"-"`
	Chunk   Chunk     `json:"chunk"`
}

// SearchHit is a ranked query result.
type SearchHit struct {
	Entry        *IndexEntry
	Score        float32
	VectorScore  float32
	KeywordScore float32
}
