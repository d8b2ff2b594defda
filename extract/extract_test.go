package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePDF builds a minimal uncompressed PDF with one page per entry in
// pageTexts and returns its path.
func writePDF(t *testing.T, dir string, pageTexts []string) string {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	var offsets []int
	addObj := func(body string) int {
		offsets = append(offsets, buf.Len())
		id := len(offsets)
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
		return id
	}

	n := len(pageTexts)
	fontID := 3 + 2*n
	kids := ""
	for i := range pageTexts {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}

	addObj("<< /Type /Catalog /Pages 2 0 R >>")
	addObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n))
	for i, text := range pageTexts {
		contentID := 4 + 2*i
		addObj(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>",
			contentID, fontID))
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		addObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}
	addObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefPos)

	path := filepath.Join(dir, "fixture.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestPDFSource_Open(t *testing.T) {
	source := NewPDFSource(nil)
	path := writePDF(t, t.TempDir(), []string{"page one", "page two", "page three"})

	doc, err := source.Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, 3, doc.Pages)
	assert.False(t, doc.Encrypted)
}

// encryptPDF writes a password-protected copy of the fixture. Object
// streams are disabled so page objects stay visible to the lexical page
// scan that encrypted files fall back to.
func encryptPDF(t *testing.T, path string) string {
	t.Helper()

	conf := model.NewDefaultConfiguration()
	conf.UserPW = "locked"
	conf.OwnerPW = "locked"
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	out := filepath.Join(filepath.Dir(path), "encrypted.pdf")
	require.NoError(t, api.EncryptFile(path, out, conf))
	return out
}

func TestPDFSource_OpenEncrypted(t *testing.T) {
	source := NewPDFSource(nil)
	plain := writePDF(t, t.TempDir(), []string{"page one", "page two"})
	path := encryptPDF(t, plain)

	doc, err := source.Open(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, doc.Encrypted)
	assert.Equal(t, 2, doc.Pages)
}

func TestPDFSource_ExtractPageEncrypted(t *testing.T) {
	source := NewPDFSource(nil)
	plain := writePDF(t, t.TempDir(), []string{"secret page"})
	path := encryptPDF(t, plain)
	ctx := context.Background()

	doc, err := source.Open(ctx, path)
	require.NoError(t, err)
	require.True(t, doc.Encrypted)

	// Without the password neither extraction path can read the page, so
	// it degrades to an empty record for the OCR stage to pick up.
	record, err := source.ExtractPage(ctx, path, 0)
	require.NoError(t, err)
	assert.Empty(t, record.Text)
	assert.Equal(t, "none", record.Method)
}

func TestIsEncryptionError(t *testing.T) {
	assert.True(t, isEncryptionError(errors.New("pdfcpu: please provide the correct password")))
	assert.True(t, isEncryptionError(errors.New("file is encrypted")))
	assert.False(t, isEncryptionError(errors.New("xref table corrupt")))
}

func TestPDFSource_OpenMissingFile(t *testing.T) {
	source := NewPDFSource(nil)

	_, err := source.Open(context.Background(), "/no/such/file.pdf")
	assert.Error(t, err)
}

func TestPDFSource_ExtractPage(t *testing.T) {
	source := NewPDFSource(nil)
	path := writePDF(t, t.TempDir(), []string{
		"Torque the #K-2041-7 fastener to 18 Nm.",
		"Second page body text.",
	})
	ctx := context.Background()

	record, err := source.ExtractPage(ctx, path, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, record.Page)
	assert.Contains(t, record.Text, "#K-2041-7")
	assert.NotEqual(t, "none", record.Method)
	assert.Positive(t, record.Chars)

	record, err = source.ExtractPage(ctx, path, 1)
	require.NoError(t, err)
	assert.Contains(t, record.Text, "Second page")
}

func TestPDFSource_ExtractPageNegative(t *testing.T) {
	source := NewPDFSource(nil)

	_, err := source.ExtractPage(context.Background(), "whatever.pdf", -1)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}

func TestPDFSource_PageFile(t *testing.T) {
	source := NewPDFSource(nil)
	dir := t.TempDir()
	path := writePDF(t, dir, []string{"alpha", "bravo"})
	ctx := context.Background()

	pagePath, err := source.PageFile(ctx, path, 1, dir)
	require.NoError(t, err)

	doc, err := source.Open(ctx, pagePath)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Pages)
}

func TestPDFSource_ContextCancelled(t *testing.T) {
	source := NewPDFSource(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.Open(ctx, "whatever.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}
