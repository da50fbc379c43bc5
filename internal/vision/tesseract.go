package vision

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Recognizer interface with local OCR. It returns
// raw recognized text only: amount extraction is left to the text pipeline,
// so Total stays nil and the Mode is not consulted.
type Tesseract struct {
	language string
}

// NewTesseract creates a local OCR Recognizer. An empty language defaults
// to English, which covers digits and latin-script receipts.
func NewTesseract(language string) (*Tesseract, error) {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language}, nil
}

// Scan runs OCR over the photo after light preprocessing: grayscale plus an
// upscale of small captures, which measurably improves digit recognition on
// phone photos of thermal-paper receipts.
func (t *Tesseract) Scan(imageData []byte, contentType string, _ Mode) (*ScanResult, error) {
	pngData, err := preparePNG(imageData, contentType)
	if err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decoding prepared image: %w", err)
	}

	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < 800 {
		gray = imaging.Resize(gray, 0, 1200, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encoding preprocessed image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return nil, fmt.Errorf("setting OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("loading image into OCR engine: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("running OCR: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("OCR produced no text")
	}

	return &ScanResult{Text: text}, nil
}

// Close releases OCR resources (clients are per-scan, so nothing to do).
func (t *Tesseract) Close() error {
	return nil
}
