package extract

import "errors"

var (
	// ErrEncrypted marks a password-protected document. Encryption is not
	// fatal: pages of such a document skip the content-stream path and
	// degrade to the fallback extractor.
	ErrEncrypted = errors.New("document is encrypted")

	// ErrPageOutOfRange indicates a page index outside the document.
	ErrPageOutOfRange = errors.New("page out of range")
)
