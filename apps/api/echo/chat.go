package echoapi

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/intelliscript/intelliscript/core/chat"
	exportsvc "github.com/intelliscript/intelliscript/services/export"
)

type chatApi struct {
	svc      *chat.Service
	renderer *chat.Renderer
	validate *validator.Validate
}

func registerChatAPI(
	g *echo.Group,
	auth []echo.MiddlewareFunc,
	svc *chat.Service,
	renderer *chat.Renderer,
	validate *validator.Validate,
) {
	api := chatApi{
		svc:      svc,
		renderer: renderer,
		validate: validate,
	}

	mg := g.Group("/chat/messages", auth...)
	mg.GET("", api.transcript)
	mg.POST("", api.send)
	mg.GET("/:id/attachments/:index", api.downloadAttachment)
	mg.GET("/:id/table.xlsx", api.exportTable)
}

// Handlers

func (api *chatApi) transcript(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	msgs, err := api.svc.Transcript(ctx.Request().Context(), sess)
	if err != nil {
		return errors.Wrap(err, "getting transcript")
	}
	return ctx.JSON(http.StatusOK, transcriptResponse{
		Messages: api.renderer.RenderAll(msgs),
		Awaiting: api.svc.IsAwaiting(sess),
	})
}

func (api *chatApi) send(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	var data sendMessageRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to sendMessageRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	ex, err := api.svc.Send(ctx.Request().Context(), sess, data.Query)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, sendMessageResponse{
		Messages: api.renderer.RenderAll(ex.Messages),
		Notice:   ex.Notice,
	})
}

func (api *chatApi) downloadAttachment(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return chat.ErrAttachmentNotFound
	}

	dl, err := api.svc.DownloadAttachment(ctx.Request().Context(), sess, ctx.Param("id"), index)
	if err != nil {
		return errors.Wrap(err, "downloading attachment")
	}
	defer func() { _ = dl.Body.Close() }()

	ct := dl.ContentType
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	setAttachmentHeader(ctx, dl.Filename)
	return ctx.Stream(http.StatusOK, ct, dl.Body)
}

func (api *chatApi) exportTable(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	msg, err := api.svc.Message(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting message")
	}
	tbl, ok := chat.ExtractTable(msg.Content)
	if !ok {
		return errNoTable
	}

	return sendXLSX(ctx, "table-"+msg.ID+".xlsx", "table", tbl)
}

var writeXLSX = exportsvc.WriteXLSX // mockable

// sendXLSX builds the whole workbook before responding, so a failed export still
// reaches the error handler with nothing written.
func sendXLSX(ctx echo.Context, filename, sheet string, tbl chat.Table) error {
	var buf bytes.Buffer
	if err := writeXLSX(&buf, sheet, tbl); err != nil {
		return errors.Wrap(err, "exporting table")
	}
	setAttachmentHeader(ctx, filename)
	return ctx.Blob(http.StatusOK, exportsvc.ContentTypeXLSX, buf.Bytes())
}

func setAttachmentHeader(ctx echo.Context, filename string) {
	if filename == "" {
		filename = "download"
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}
