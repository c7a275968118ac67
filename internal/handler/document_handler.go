package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docqa/internal/extract"
	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/errcode"
	"github.com/xxxsen/docqa/internal/pkg/response"
)

type Ingester interface {
	Ingest(ctx context.Context, identifier string, data []byte) (*model.IngestResult, error)
}

type DocumentHandler struct {
	ingester Ingester
	maxBytes int64
}

func NewDocumentHandler(ingester Ingester, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{ingester: ingester, maxBytes: maxBytes}
}

type uploadResponse struct {
	Results []*model.IngestResult `json:"results"`
}

// Upload ingests every file under the "files" form field in order. The first
// failing file fails the request; files before it stay ingested.
func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "multipart form with files is required")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "files are required")
		return
	}
	results := make([]*model.IngestResult, 0, len(files))
	for _, file := range files {
		if file.Filename == "" {
			continue
		}
		if _, err := extract.KindFromIdentifier(file.Filename); err != nil {
			handleError(c, err)
			return
		}
		if h.maxBytes > 0 && file.Size > h.maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, errcode.ErrFileTooLarge,
				fmt.Sprintf("%s exceeds upload limit %s", file.Filename, formatUploadLimit(h.maxBytes)))
			return
		}
		data, err := readFormFile(file)
		if err != nil {
			response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to read file")
			return
		}
		res, err := h.ingester.Ingest(c.Request.Context(), file.Filename, data)
		if err != nil {
			handleError(c, err)
			return
		}
		results = append(results, res)
	}
	response.Success(c, uploadResponse{Results: results})
}

func readFormFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
