package echoapi

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	uploadsvc "github.com/intelliscript/intelliscript/services/uploads"
)

type uploadApi struct {
	uploader *uploadsvc.Client
}

func registerUploadAPI(g *echo.Group, auth []echo.MiddlewareFunc, uploader *uploadsvc.Client) {
	api := uploadApi{uploader: uploader}

	ug := g.Group("/uploads", auth...)
	ug.POST("", api.upload, adminMiddleware())
}

// upload forwards the `type` field and the `files` parts to the uploads endpoint and
// passes its answer back.
func (api *uploadApi) upload(ctx echo.Context) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form").SetInternal(err)
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return errMissingFiles
	}

	files := make([]uploadsvc.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadsvc.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Open:        openPart(fh),
		})
	}

	resp, err := api.uploader.Upload(ctx.Request().Context(), ctx.FormValue("type"), files)
	if err != nil {
		return errors.Wrap(err, "forwarding upload")
	}
	ct := resp.ContentType
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	return ctx.Blob(resp.StatusCode, ct, resp.Body)
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) { return fh.Open() }
}
