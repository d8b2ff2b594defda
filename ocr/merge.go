package ocr

import (
	"strings"

	"github.com/poiesic/narrator/core"
)

// ocrPreferenceRatio is how much longer OCR output must be before it
// replaces extracted text outright instead of being appended to it.
const ocrPreferenceRatio = 1.5

// MergeTexts combines extracted and OCR text for one page. It returns the
// merged text and the extraction method to record, where an empty method
// means the extracted text won and the page's existing method stands.
func MergeTexts(extracted, ocrText string) (string, string) {
	// Empty OCR output never wins, even over an empty extraction; a blank
	// page stays recorded as blank rather than OCR-extracted.
	if strings.TrimSpace(ocrText) == "" {
		return extracted, ""
	}
	if strings.TrimSpace(extracted) == "" {
		return ocrText, core.MethodOCR
	}

	// Significantly longer OCR output means extraction only caught
	// fragments of the page.
	if float64(len(ocrText)) > float64(len(extracted))*ocrPreferenceRatio {
		return ocrText, core.MethodOCR
	}

	return extracted + "\n\n[OCR Content]\n" + ocrText, core.MethodMerged
}
