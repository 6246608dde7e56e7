package v1

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/bytes"

	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// ArchiveField is the multipart field carrying an archive to import.
const ArchiveField = "archive"

// ExportResponse describes a written archive.
type ExportResponse struct {
	Archive   string `json:"archive"`
	SizeBytes int64  `json:"size_bytes"`
	Size      string `json:"size"`
}

// Export handles POST /export. The archive is written to the configured
// export directory; with ?download=true it is also sent as an attachment.
func (c *Controller) Export(ctx echo.Context) error {
	path, err := c.service.ExportCollection(ctx.Request().Context(), "")
	if err != nil {
		return c.HandleError(ctx, err, "export failed", 0)
	}

	if boolQuery(ctx, "download") {
		return ctx.Attachment(path, filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return c.HandleError(ctx, err, "export failed", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusCreated, ExportResponse{
		Archive:   path,
		SizeBytes: info.Size(),
		Size:      bytes.Format(info.Size()),
	})
}

// Import handles POST /import with a multipart archive file. The import
// replaces the whole collection, so the form must carry confirm=true.
func (c *Controller) Import(ctx echo.Context) error {
	if !boolFormValue(ctx, "confirm") {
		return c.HandleError(ctx, nil, "import replaces the whole collection; resend with confirm=true", http.StatusBadRequest)
	}

	fh, err := ctx.FormFile(ArchiveField)
	if err != nil {
		return c.HandleError(ctx, err, "missing archive file", http.StatusBadRequest)
	}

	tmpPath, err := saveTemp(fh)
	if err != nil {
		return c.HandleError(ctx, err, "failed to receive archive", http.StatusInternalServerError)
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			GetLogger().Warn("failed to remove uploaded archive", logger.String("path", tmpPath), logger.Error(err))
		}
	}()

	result := c.service.ImportCollection(ctx.Request().Context(), tmpPath, "")
	if !result.Success {
		return ctx.JSON(http.StatusUnprocessableEntity, result)
	}
	return ctx.JSON(http.StatusOK, result)
}

func boolFormValue(ctx echo.Context, name string) bool {
	switch ctx.FormValue(name) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// saveTemp copies an uploaded file to a temporary file and returns its path.
func saveTemp(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "bonsai-import-*.zip")
	if err != nil {
		return "", errors.New(err).Component("api").Category(errors.CategoryFileIO).Build()
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", errors.New(err).Component("api").Category(errors.CategoryFileIO).Build()
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", errors.New(err).Component("api").Category(errors.CategoryFileIO).Build()
	}
	return dst.Name(), nil
}
