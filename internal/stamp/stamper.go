// Package stamp embeds signature images and attestation text into PDF
// documents. Stamping is pure: the source bytes are never modified, a new
// byte stream is produced.
package stamp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"signflow/internal/config"
)

var (
	// ErrInvalidPDF means the source document could not be parsed as a PDF.
	ErrInvalidPDF = errors.New("invalid pdf")
	// ErrInvalidImage means the signature is not a decodable PNG.
	ErrInvalidImage = errors.New("invalid signature image")
)

// Attestation is the text drawn below the signature image.
type Attestation struct {
	Name  string
	Email string
	Date  string
}

// Placement positions the signature stamp. X and Y are PDF points from the
// bottom-left page corner; Page is a zero-based page index. A negative or
// out-of-range page falls back to the configured default page, clamped to
// the document's page range.
type Placement struct {
	X    float64
	Y    float64
	Page int
}

// Stamper produces a signed copy of a PDF document.
type Stamper interface {
	Stamp(ctx context.Context, src, signature []byte, att Attestation, pl Placement) ([]byte, error)
}

const (
	// attestationDrop is the vertical gap between the bottom of the
	// signature image anchor and the attestation text block.
	attestationDrop = 50
	attestationPts  = 12
)

// PDFStamper implements Stamper using pdfcpu watermarks: one image
// watermark for the signature PNG and one multi-line text watermark for the
// attestation.
type PDFStamper struct {
	conf        *pdfmodel.Configuration
	defaultPage int
	fieldWidth  float64
}

// NewPDFStamper creates a stamper with the given placement defaults.
func NewPDFStamper(cfg config.StampConfig) *PDFStamper {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	fieldWidth := cfg.FieldWidth
	if fieldWidth <= 0 {
		fieldWidth = 100
	}
	return &PDFStamper{
		conf:        conf,
		defaultPage: cfg.DefaultPage,
		fieldWidth:  fieldWidth,
	}
}

var _ Stamper = (*PDFStamper)(nil)

// Stamp embeds the signature image at the placement coordinates and draws
// the attestation lines below it. The signature is scaled to the configured
// field width; the aspect ratio of the PNG is preserved.
func (s *PDFStamper) Stamp(ctx context.Context, src, signature []byte, att Attestation, pl Placement) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	imgCfg, err := png.DecodeConfig(bytes.NewReader(signature))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if imgCfg.Width <= 0 {
		return nil, ErrInvalidImage
	}

	pageCount, err := api.PageCount(bytes.NewReader(src), s.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	page := pl.Page
	if page < 0 || page >= pageCount {
		page = s.defaultPage
	}
	if page < 0 || page >= pageCount {
		page = 0
	}
	// pdfcpu page selection is 1-based.
	selected := []string{strconv.Itoa(page + 1)}

	scale := s.fieldWidth / float64(imgCfg.Width)
	imgDesc := fmt.Sprintf("position:bl, offset:%.2f %.2f, scalefactor:%.4f abs, rotation:0", pl.X, pl.Y, scale)
	imgWM, err := api.ImageWatermarkForReader(bytes.NewReader(signature), imgDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	var stamped bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(src), &stamped, selected, imgWM, s.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	text := att.Name + "\n" + att.Email + "\n" + att.Date
	textDesc := fmt.Sprintf(
		"fontname:Helvetica, points:%d, fillcolor:#000000, aligntext:l, position:bl, offset:%.2f %.2f, scalefactor:1 abs, rotation:0",
		attestationPts, pl.X, pl.Y-attestationDrop,
	)
	textWM, err := api.TextWatermark(text, textDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("attestation watermark: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(stamped.Bytes()), &out, selected, textWM, s.conf); err != nil {
		return nil, fmt.Errorf("apply attestation: %w", err)
	}
	return out.Bytes(), nil
}
