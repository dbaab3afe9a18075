package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/intelliscript/intelliscript/core/chat"
)

type historyApi struct {
	svc *chat.Service
}

func registerHistoryAPI(g *echo.Group, auth []echo.MiddlewareFunc, svc *chat.Service) {
	api := historyApi{svc: svc}

	mw := make([]echo.MiddlewareFunc, 0, len(auth)+1)
	mw = append(mw, auth...)
	hg := g.Group("/admin/history", append(mw, adminMiddleware())...)
	hg.GET("", api.query)
	hg.GET("/chart", api.chart)
	hg.GET("/export.xlsx", api.export)
}

func (api *historyApi) filter(ctx echo.Context) ([]chat.HistoryEntry, error) {
	filter, err := bindHistoryFilter(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "binding to HistoryFilter")
	}
	entries, err := api.svc.History(ctx.Request().Context(), filter)
	return entries, errors.Wrap(err, "filtering history")
}

// Handlers

func (api *historyApi) query(ctx echo.Context) error {
	entries, err := api.filter(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *historyApi) chart(ctx echo.Context) error {
	entries, err := api.filter(ctx)
	if err != nil {
		return err
	}
	resp := historyChartResponse{Total: len(entries)}
	if chart, ok := chat.BuildBarChart(chat.HistoryTable(entries)); ok {
		resp.Chart = &chart
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *historyApi) export(ctx echo.Context) error {
	entries, err := api.filter(ctx)
	if err != nil {
		return err
	}
	filename := "chat-history-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
	return sendXLSX(ctx, filename, "chat history", chat.HistoryTable(entries))
}
