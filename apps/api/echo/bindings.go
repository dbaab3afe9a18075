package echoapi

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/intelliscript/intelliscript/core/chat"
	"github.com/intelliscript/intelliscript/core/session"
)

type (
	sessionRequest struct {
		session.NewSession
	}

	sessionResponse struct {
		Token   string          `json:"token"`
		Session session.Session `json:"session"`
	}

	sendMessageRequest struct {
		Query string `json:"query" validate:"notblank,max=4000"`
	}

	sendMessageResponse struct {
		Messages []chat.View `json:"messages"`
		Notice   string      `json:"notice,omitempty"`
	}

	transcriptResponse struct {
		Messages []chat.View `json:"messages"`
		Awaiting bool        `json:"awaiting"`
	}

	historyChartResponse struct {
		Total int            `json:"total"`
		Chart *chat.BarChart `json:"chart"`
	}
)

func (data *sessionRequest) Validate(validate *validator.Validate) error {
	data.Role = strings.ToLower(strings.TrimSpace(data.Role))
	return validate.Struct(data)
}

func (data *sendMessageRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(data)
}

// bindHistoryFilter reads the history filters from the query string.
func bindHistoryFilter(ctx echo.Context) (chat.HistoryFilter, error) {
	var filter chat.HistoryFilter
	if err := ctx.Bind(&filter); err != nil {
		return chat.HistoryFilter{}, err
	}
	filter.Clean()
	return filter, nil
}
