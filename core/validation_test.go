package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPageText() *PageText {
	return &PageText{
		File:   "/data/doc.pdf",
		Page:   3,
		Text:   "some text",
		Chars:  9,
		Method: MethodPrimary,
	}
}

func TestValidatePageText(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PageText)
		wantErr error
	}{
		{name: "valid", mutate: func(pt *PageText) {}},
		{name: "empty text is legal", mutate: func(pt *PageText) {
			pt.Text = ""
			pt.Chars = 0
			pt.Method = MethodNone
		}},
		{name: "missing file", mutate: func(pt *PageText) { pt.File = "" }, wantErr: ErrEmptyFile},
		{name: "negative page", mutate: func(pt *PageText) { pt.Page = -1 }, wantErr: ErrNegativePage},
		{name: "unknown method", mutate: func(pt *PageText) { pt.Method = "psychic" }, wantErr: ErrUnknownMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt := validPageText()
			tt.mutate(pt)
			err := ValidatePageText(pt)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidPageText)
		})
	}
}

func TestValidatePageText_Nil(t *testing.T) {
	err := ValidatePageText(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPageText)
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   Chunk
		wantErr error
	}{
		{
			name:  "valid",
			chunk: Chunk{File: "/d.pdf", Text: "body", StartChar: 0, EndChar: 4},
		},
		{
			name:    "empty file",
			chunk:   Chunk{Text: "body", StartChar: 0, EndChar: 4},
			wantErr: ErrEmptyFile,
		},
		{
			name:    "empty text",
			chunk:   Chunk{File: "/d.pdf", StartChar: 0, EndChar: 4},
			wantErr: ErrEmptyChunkText,
		},
		{
			name:    "backward offsets",
			chunk:   Chunk{File: "/d.pdf", Text: "body", StartChar: 8, EndChar: 4},
			wantErr: ErrInvalidOffsets,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(&tt.chunk)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidChunk)
		})
	}
}

func TestValidateCheckpoint(t *testing.T) {
	cp := &Checkpoint{DocPath: "/d.pdf", LastPage: 9, BatchSize: 10}
	require.NoError(t, ValidateCheckpoint(cp))

	cp.BatchSize = 0
	assert.ErrorIs(t, ValidateCheckpoint(cp), ErrInvalidCheckpoint)

	cp.BatchSize = 10
	cp.LastPage = -1
	assert.ErrorIs(t, ValidateCheckpoint(cp), ErrNegativePage)

	cp.LastPage = 0
	cp.DocPath = ""
	assert.ErrorIs(t, ValidateCheckpoint(cp), ErrEmptyFile)
}

func TestValidateMethod(t *testing.T) {
	for _, m := range []string{MethodPrimary, MethodSecondary, MethodOCR, MethodMerged, MethodNone} {
		assert.NoError(t, ValidateMethod(m))
	}
	assert.ErrorIs(t, ValidateMethod("tealeaves"), ErrUnknownMethod)
}
