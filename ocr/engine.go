package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/poiesic/narrator/core"
)

// Result is the output of recognizing one page image.
type Result struct {
	Text       string
	Blocks     []core.TextBlock
	Confidence float64 // mean word confidence, 0-100
}

// Engine recognizes text in a rendered page image.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) (*Result, error)
}

// TesseractEngine implements Engine on top of the Tesseract C API.
type TesseractEngine struct {
	languages []string
}

var _ Engine = (*TesseractEngine)(nil)

// NewTesseractEngine creates an engine for the given languages.
// Defaults to English when none are given.
func NewTesseractEngine(languages ...string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{languages: languages}
}

// Recognize runs word-level OCR over the image and assembles the page text
// from words with a valid confidence score.
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("setting OCR languages: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("setting OCR image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognizing image: %w", err)
	}

	result := &Result{}
	var words []string
	var confSum float64
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" || box.Confidence <= 0 {
			continue
		}
		result.Blocks = append(result.Blocks, core.TextBlock{
			Text:       word,
			Confidence: box.Confidence,
			X0:         float64(box.Box.Min.X),
			Y0:         float64(box.Box.Min.Y),
			X1:         float64(box.Box.Max.X),
			Y1:         float64(box.Box.Max.Y),
		})
		words = append(words, word)
		confSum += box.Confidence
	}

	result.Text = strings.Join(words, " ")
	if len(result.Blocks) > 0 {
		result.Confidence = confSum / float64(len(result.Blocks))
	}
	return result, nil
}
