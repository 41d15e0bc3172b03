package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"tourbook/internal/apperr"

	"github.com/gin-gonic/gin"
)

// formFile reads one uploaded file; a missing file returns nil
func (h *Handler) formFile(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("%s could not be read", field))
	}
	return h.readFile(fh)
}

func (h *Handler) readFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > h.maxUpload {
		return nil, apperr.Validation(fmt.Sprintf("%s is larger than %d bytes", fh.Filename, h.maxUpload))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if int64(len(data)) > h.maxUpload {
		return nil, apperr.Validation(fmt.Sprintf("%s is larger than %d bytes", fh.Filename, h.maxUpload))
	}
	return data, nil
}
