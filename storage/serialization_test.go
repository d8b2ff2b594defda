package storage

import (
	"testing"
	"time"

	"github.com/poiesic/narrator/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("manual.pdf:17")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestMarshalUnmarshalPageText(t *testing.T) {
	tests := []struct {
		name   string
		record *core.PageText
	}{
		{
			name: "extracted page",
			record: &core.PageText{
				File:   "/docs/manual.pdf",
				Page:   3,
				Text:   "Install the #K-2041-7 bracket before powering on.",
				Chars:  49,
				Method: core.MethodPrimary,
			},
		},
		{
			name: "OCR page with blocks",
			record: &core.PageText{
				File:   "/docs/scan.pdf",
				Page:   0,
				Text:   "WARNING HIGH VOLTAGE",
				Chars:  20,
				Method: core.MethodOCR,
				Blocks: []core.TextBlock{
					{Text: "WARNING", Confidence: 96.5, X0: 10, Y0: 20, X1: 110, Y1: 44},
					{Text: "HIGH VOLTAGE", Confidence: 88.1, X0: 10, Y0: 50, X1: 190, Y1: 74},
				},
				OCRApplied:    true,
				OCRConfidence: 92.3,
			},
		},
		{
			name: "empty page",
			record: &core.PageText{
				File:   "/docs/blank.pdf",
				Page:   12,
				Method: core.MethodNone,
			},
		},
		{
			name: "unicode text",
			record: &core.PageText{
				File:   "/docs/intl.pdf",
				Page:   1,
				Text:   "Schéma électrique 高圧注意",
				Chars:  24,
				Method: core.MethodMerged,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalPageText(tt.record)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalPageText(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.record.File, decoded.File)
			assert.Equal(t, tt.record.Page, decoded.Page)
			assert.Equal(t, tt.record.Text, decoded.Text)
			assert.Equal(t, tt.record.Chars, decoded.Chars)
			assert.Equal(t, tt.record.Method, decoded.Method)
			assert.Equal(t, tt.record.OCRApplied, decoded.OCRApplied)
			assert.Equal(t, tt.record.OCRConfidence, decoded.OCRConfidence)
			// Handle nil vs empty slice
			if len(tt.record.Blocks) == 0 {
				assert.Empty(t, decoded.Blocks)
			} else {
				assert.Equal(t, tt.record.Blocks, decoded.Blocks)
			}
		})
	}
}

func TestUnmarshalPageText_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"partial data", []byte{5, 'a', 'b'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalPageText(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestMarshalUnmarshalCheckpoint(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	original := &core.Checkpoint{
		DocPath:     "/docs/manual.pdf",
		Fingerprint: "9f86d081884c7d65",
		LastPage:    41,
		BatchSize:   8,
		UpdatedAt:   now,
	}

	data := MarshalCheckpoint(original)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalCheckpoint(data)
	require.NoError(t, err)
	require.NotNil(t, decoded)

	assert.Equal(t, original.DocPath, decoded.DocPath)
	assert.Equal(t, original.Fingerprint, decoded.Fingerprint)
	assert.Equal(t, original.LastPage, decoded.LastPage)
	assert.Equal(t, original.BatchSize, decoded.BatchSize)
	assert.True(t, original.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestUnmarshalCheckpoint_Invalid(t *testing.T) {
	_, err := UnmarshalCheckpoint([]byte{0xFF, 0xFF})
	assert.Error(t, err)
}
