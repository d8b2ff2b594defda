package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	pageRecordPrefix = "pagerec"
)

// makePageRecordKey generates a composite key for one page's record.
// Format: prefix:docID:page, with the page number in BigEndian so
// lexicographic iteration visits pages in ascending order.
func makePageRecordKey(docID string, page int) []byte {
	prefix := makePageRecordPrefix(docID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(page))
	return buf
}

// makePageRecordPrefix generates the iteration prefix covering every page
// record of a document.
func makePageRecordPrefix(docID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", pageRecordPrefix, docID))
}

// makeCheckpointKey generates a key for a document's resume checkpoint.
func makeCheckpointKey(docID string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", docID))
}
