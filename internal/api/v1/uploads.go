package v1

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// PhotoField is the multipart field carrying photo files.
const PhotoField = "photos"

// isMultipart reports whether the request carries a multipart form.
func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// openUploads opens every file in the photos field. The returned closer
// must be called once the uploads have been consumed.
func openUploads(ctx echo.Context) ([]collection.Upload, func(), error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, func() {}, err
	}

	var (
		uploads []collection.Upload
		files   []io.Closer
	)
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	for _, fh := range form.File[PhotoField] {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, uploadError(err, fh)
		}
		files = append(files, f)
		uploads = append(uploads, collection.Upload{Name: fh.Filename, Reader: f})
	}
	return uploads, closeAll, nil
}

func uploadError(err error, fh *multipart.FileHeader) error {
	return errors.New(err).
		Component("api").
		Category(errors.CategoryFileIO).
		Context("file", fh.Filename).
		Build()
}

// updateRequestFromForm reads an UpdateRequest from multipart form values.
func updateRequestFromForm(ctx echo.Context) (UpdateRequest, error) {
	req := UpdateRequest{
		UpdateDate:       ctx.FormValue("update_date"),
		WorkPerformed:    ctx.FormValue("work_performed"),
		PhotoDescription: ctx.FormValue("photo_description"),
		ReminderDate:     ctx.FormValue("reminder_date"),
		ReminderMessage:  ctx.FormValue("reminder_message"),
	}
	if s := strings.TrimSpace(ctx.FormValue("girth")); s != "" {
		g, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return req, errors.Newf("invalid girth %q", s).
				Component("api").
				Category(errors.CategoryValidation).
				Build()
		}
		req.Girth = &g
	}
	return req, nil
}
