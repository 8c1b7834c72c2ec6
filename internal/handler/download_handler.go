package handler

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
	"github.com/educhain-labs/educhain-api/pkg/response"
	"github.com/educhain-labs/educhain-api/pkg/storage"
)

// DownloadHandler serves stored files against signed tokens. The token is
// the only credential: links expire on their own and need no session.
type DownloadHandler struct {
	signer  *storage.SignedURLSigner
	storage *storage.LocalStorage
}

// NewDownloadHandler builds a new handler.
func NewDownloadHandler(signer *storage.SignedURLSigner, store *storage.LocalStorage) *DownloadHandler {
	return &DownloadHandler{signer: signer, storage: store}
}

// Download godoc
// @Summary Download a stored file using a signed token
// @Tags Files
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /files/download [get]
func (h *DownloadHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "download token is required"))
		return
	}

	fileID, relPath, _, err := h.signer.Parse(token)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrForbidden.Code, http.StatusForbidden, "invalid or expired download link"))
		return
	}

	file, err := h.storage.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat file"))
		return
	}

	mimeType := mime.TypeByExtension(filepath.Ext(relPath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s%s\"", fileID, filepath.Ext(relPath)))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), mimeType, file, nil)
}
