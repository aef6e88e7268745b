package webapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/hashicorp/go-uuid"
	"github.com/labstack/echo/v4"
	"github.com/materials-commons/mcslides/pkg/clog"
	"github.com/materials-commons/mcslides/pkg/mcmodel"
	"github.com/materials-commons/mcslides/pkg/tusupload"
)

// Converter turns a stored upload into a registered presentation.
type Converter interface {
	Convert(ctx context.Context, inputPath, originalName string) (*mcmodel.Presentation, error)
}

// UploadClaimer hands over finished resumable uploads.
type UploadClaimer interface {
	Claim(ctx context.Context, uploadID, destDir string) (*tusupload.Claimed, error)
}

// ConvertController accepts presentations and converts them into slides.
type ConvertController struct {
	converter      Converter
	uploads        UploadClaimer
	uploadsDir     string
	maxUploadBytes int64
}

func NewConvertController(converter Converter, uploads UploadClaimer, uploadsDir string, maxUploadBytes int64) *ConvertController {
	return &ConvertController{
		converter:      converter,
		uploads:        uploads,
		uploadsDir:     uploadsDir,
		maxUploadBytes: maxUploadBytes,
	}
}

// ConvertResponse is returned for every finished conversion, real or degraded.
type ConvertResponse struct {
	ID           string                   `json:"id"`
	OriginalName string                   `json:"originalName"`
	SlideCount   int                      `json:"slideCount"`
	Slides       []string                 `json:"slides"`
	Status       mcmodel.ConversionStatus `json:"status"`
}

// Convert handles a multipart upload in the "presentation" field.
func (c *ConvertController) Convert(ctx echo.Context) error {
	fh, err := ctx.FormFile("presentation")
	switch {
	case isTooLarge(err):
		return errorResponse(ctx, http.StatusRequestEntityTooLarge, c.tooLargeMessage())
	case err != nil:
		return errorResponse(ctx, http.StatusBadRequest, "No file uploaded")
	}

	if fh.Size > c.maxUploadBytes {
		return errorResponse(ctx, http.StatusRequestEntityTooLarge, c.tooLargeMessage())
	}

	if !mcmodel.IsPresentationFile(fh.Filename) {
		return errorResponse(ctx, http.StatusBadRequest, "Only .ppt, .pptx and .key files are accepted")
	}

	inputPath, err := c.saveUpload(fh)
	if err != nil {
		clog.Global().Errorf("Unable to save upload %s: %s", fh.Filename, err)
		return errorResponse(ctx, http.StatusInternalServerError, "Failed to store upload")
	}

	return c.convert(ctx, inputPath, filepath.Base(fh.Filename))
}

// ConvertTusUpload converts an upload that finished over the tus endpoint.
func (c *ConvertController) ConvertTusUpload(ctx echo.Context) error {
	claimed, err := c.uploads.Claim(ctx.Request().Context(), ctx.Param("uploadID"), c.uploadsDir)
	switch {
	case errors.Is(err, tusupload.ErrUnknownUpload):
		return errorResponse(ctx, http.StatusNotFound, "No such upload")
	case errors.Is(err, tusupload.ErrIncompleteUpload):
		return errorResponse(ctx, http.StatusConflict, "Upload is not complete")
	case err != nil:
		clog.Global().Errorf("Unable to claim upload %s: %s", ctx.Param("uploadID"), err)
		return errorResponse(ctx, http.StatusInternalServerError, "Failed to claim upload")
	}

	if !mcmodel.IsPresentationFile(claimed.Filename) {
		_ = os.Remove(claimed.Path)
		return errorResponse(ctx, http.StatusBadRequest, "Only .ppt, .pptx and .key files are accepted")
	}

	return c.convert(ctx, claimed.Path, filepath.Base(claimed.Filename))
}

func (c *ConvertController) convert(ctx echo.Context, inputPath, originalName string) error {
	// Conversions run to completion even when the client disconnects.
	p, err := c.converter.Convert(context.WithoutCancel(ctx.Request().Context()), inputPath, originalName)
	if err != nil {
		clog.Global().Errorf("Conversion of %s failed: %s", originalName, err)
		return errorResponse(ctx, http.StatusInternalServerError, "Conversion failed")
	}

	return ctx.JSON(http.StatusOK, ConvertResponse{
		ID:           p.ID,
		OriginalName: p.OriginalName,
		SlideCount:   p.SlideCount,
		Slides:       p.Slides,
		Status:       p.Status,
	})
}

// saveUpload writes the upload under a unique, filesystem safe name.
func (c *ConvertController) saveUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(c.uploadsDir, 0755); err != nil {
		return "", err
	}

	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := slug.Make(strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename)))
	if name == "" {
		name = "presentation"
	}

	path := filepath.Join(c.uploadsDir, fmt.Sprintf("%s-%s%s", id, name, ext))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", err
	}

	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}

	return path, nil
}

func (c *ConvertController) tooLargeMessage() string {
	return fmt.Sprintf("File exceeds the %dMB upload limit", c.maxUploadBytes>>20)
}

func isTooLarge(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == http.StatusRequestEntityTooLarge {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}
