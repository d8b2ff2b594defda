package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/narrator/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine is a function-field test double for Engine.
type fakeEngine struct {
	RecognizeFunc func(ctx context.Context, imagePath string) (*Result, error)
}

func (f *fakeEngine) Recognize(ctx context.Context, imagePath string) (*Result, error) {
	return f.RecognizeFunc(ctx, imagePath)
}

// fakeRenderer is a function-field test double for Renderer.
type fakeRenderer struct {
	RenderFunc func(ctx context.Context, pdfPath string, page int, destDir string) (string, error)
}

func (f *fakeRenderer) RenderPage(ctx context.Context, pdfPath string, page int, destDir string) (string, error) {
	if f.RenderFunc != nil {
		return f.RenderFunc(ctx, pdfPath, page, destDir)
	}
	return destDir + "/fake.png", nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func record(text string) *core.PageText {
	return &core.PageText{
		File:   "/docs/scan.pdf",
		Page:   4,
		Text:   text,
		Chars:  len(text),
		Method: core.MethodPrimary,
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"off", ModeOff, false},
		{"auto", ModeAuto, false},
		{"force", ModeForce, false},
		{"AUTO", ModeAuto, false},
		{"aggressive", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, mode)
		})
	}
}

func TestProcessor_ShouldApply(t *testing.T) {
	longText := strings.Repeat("sufficient text on this page. ", 10)

	tests := []struct {
		name string
		mode Mode
		text string
		want bool
	}{
		{"off never applies", ModeOff, "", false},
		{"force always applies", ModeForce, longText, true},
		{"auto skips text-rich page", ModeAuto, longText, false},
		{"auto applies to sparse page", ModeAuto, "Fig. 3", true},
		{"auto applies to empty page", ModeAuto, "", true},
		{"auto ignores whitespace padding", ModeAuto, "   \n\t  ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Mode = tt.mode
			p := NewProcessor(cfg, &fakeEngine{}, &fakeRenderer{}, nil)
			assert.Equal(t, tt.want, p.ShouldApply(record(tt.text)))
		})
	}
}

func TestProcessor_ApplyReplacesEmptyExtraction(t *testing.T) {
	engine := &fakeEngine{
		RecognizeFunc: func(_ context.Context, _ string) (*Result, error) {
			return &Result{
				Text:       "WARNING HIGH VOLTAGE",
				Confidence: 93.5,
				Blocks: []core.TextBlock{
					{Text: "WARNING", Confidence: 95, X1: 100, Y1: 20},
					{Text: "HIGH", Confidence: 92, X0: 110, X1: 160, Y1: 20},
					{Text: "VOLTAGE", Confidence: 93.5, X0: 170, X1: 260, Y1: 20},
				},
			}, nil
		},
	}
	p := NewProcessor(testConfig(), engine, &fakeRenderer{}, nil)

	out, err := p.Apply(context.Background(), "/docs/scan.pdf", record(""))
	require.NoError(t, err)
	assert.Equal(t, "WARNING HIGH VOLTAGE", out.Text)
	assert.Equal(t, core.MethodOCR, out.Method)
	assert.True(t, out.OCRApplied)
	assert.InDelta(t, 93.5, out.OCRConfidence, 1e-9)
	assert.Len(t, out.Blocks, 3)
}

func TestProcessor_ApplyPrefersMuchLongerOCR(t *testing.T) {
	ocrText := strings.Repeat("recovered scanned sentence. ", 20)
	engine := &fakeEngine{
		RecognizeFunc: func(_ context.Context, _ string) (*Result, error) {
			return &Result{Text: ocrText, Confidence: 80}, nil
		},
	}
	p := NewProcessor(testConfig(), engine, &fakeRenderer{}, nil)

	out, err := p.Apply(context.Background(), "/docs/scan.pdf", record("Fig 3."))
	require.NoError(t, err)
	assert.Equal(t, ocrText, out.Text)
	assert.Equal(t, core.MethodOCR, out.Method)
}

func TestProcessor_ApplyMergesComparableTexts(t *testing.T) {
	engine := &fakeEngine{
		RecognizeFunc: func(_ context.Context, _ string) (*Result, error) {
			return &Result{Text: "caption text", Confidence: 88}, nil
		},
	}
	p := NewProcessor(testConfig(), engine, &fakeRenderer{}, nil)

	out, err := p.Apply(context.Background(), "/docs/scan.pdf", record("diagram label"))
	require.NoError(t, err)
	assert.Contains(t, out.Text, "diagram label")
	assert.Contains(t, out.Text, "[OCR Content]")
	assert.Contains(t, out.Text, "caption text")
	assert.Equal(t, core.MethodMerged, out.Method)
}

func TestProcessor_ApplyKeepsExtractedWhenOCREmpty(t *testing.T) {
	engine := &fakeEngine{
		RecognizeFunc: func(_ context.Context, _ string) (*Result, error) {
			return &Result{Text: "   "}, nil
		},
	}
	p := NewProcessor(testConfig(), engine, &fakeRenderer{}, nil)

	out, err := p.Apply(context.Background(), "/docs/scan.pdf", record("Fig 3."))
	require.NoError(t, err)
	assert.Equal(t, "Fig 3.", out.Text)
	assert.Equal(t, core.MethodPrimary, out.Method)
	assert.True(t, out.OCRApplied)
}

func TestProcessor_ApplyBlankPageStaysUnextracted(t *testing.T) {
	engine := &fakeEngine{
		RecognizeFunc: func(_ context.Context, _ string) (*Result, error) {
			return &Result{Text: ""}, nil
		},
	}
	p := NewProcessor(testConfig(), engine, &fakeRenderer{}, nil)

	// Nothing extracted and nothing recognized: the page must not be
	// recorded as OCR-extracted.
	blank := record("")
	blank.Method = core.MethodNone
	out, err := p.Apply(context.Background(), "/docs/scan.pdf", blank)
	require.NoError(t, err)
	assert.Empty(t, out.Text)
	assert.Equal(t, core.MethodNone, out.Method)
	assert.True(t, out.OCRApplied)
}

func TestProcessor_ApplyRetriesTransientFailure(t *testing.T) {
	attempts := 0
	engine := &fakeEngine{
		RecognizeFunc: func(_ context.Context, _ string) (*Result, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("tesseract hiccup")
			}
			return &Result{Text: "recovered", Confidence: 70}, nil
		},
	}
	p := NewProcessor(testConfig(), engine, &fakeRenderer{}, nil)

	out, err := p.Apply(context.Background(), "/docs/scan.pdf", record(""))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "recovered", out.Text)
}

func TestProcessor_ApplyKeepsRecordAfterPersistentFailure(t *testing.T) {
	engine := &fakeEngine{
		RecognizeFunc: func(_ context.Context, _ string) (*Result, error) {
			return nil, errors.New("tesseract broken")
		},
	}
	p := NewProcessor(testConfig(), engine, &fakeRenderer{}, nil)
	in := record("partial text")

	out, err := p.Apply(context.Background(), "/docs/scan.pdf", in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.False(t, out.OCRApplied)
}

func TestProcessor_ApplyRenderFailureAlsoRetried(t *testing.T) {
	renders := 0
	renderer := &fakeRenderer{
		RenderFunc: func(_ context.Context, _ string, _ int, destDir string) (string, error) {
			renders++
			return "", errors.New("no rasterizer")
		},
	}
	p := NewProcessor(testConfig(), &fakeEngine{}, renderer, nil)

	out, err := p.Apply(context.Background(), "/docs/scan.pdf", record("text"))
	require.NoError(t, err)
	assert.Equal(t, 3, renders)
	assert.False(t, out.OCRApplied)
}

func TestProcessor_ApplyContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewProcessor(testConfig(), &fakeEngine{}, &fakeRenderer{}, nil)

	_, err := p.Apply(ctx, "/docs/scan.pdf", record(""))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMergeTexts(t *testing.T) {
	tests := []struct {
		name       string
		extracted  string
		ocr        string
		wantText   string
		wantMethod string
	}{
		{"empty extracted", "", "ocr text", "ocr text", core.MethodOCR},
		{"empty ocr", "extracted", "", "extracted", ""},
		{"both empty", "", "", "", ""},
		{"blank ocr on empty extraction", "", "  \n ", "", ""},
		{"ocr much longer", "ab", "abcdefgh", "abcdefgh", core.MethodOCR},
		{"comparable lengths", "hello there", "hello thing", "hello there\n\n[OCR Content]\nhello thing", core.MethodMerged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, method := MergeTexts(tt.extracted, tt.ocr)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantMethod, method)
		})
	}
}
