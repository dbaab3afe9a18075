package echoapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/intelliscript/intelliscript/core/chat"
	exportsvc "github.com/intelliscript/intelliscript/services/export"
)

func Test_sendXLSX(t *testing.T) {
	tbl := chat.Table{Headers: []string{"id", "status"}, Rows: [][]string{{"1", "open"}}}
	newContext := func() (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		return echo.New().NewContext(req, rec), rec
	}

	t.Run("workbook", func(t *testing.T) {
		ctx, rec := newContext()
		require.NoError(t, sendXLSX(ctx, "t.xlsx", "table", tbl))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, exportsvc.ContentTypeXLSX, rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, `attachment; filename=t.xlsx`, rec.Header().Get(echo.HeaderContentDisposition))

		f, err := excelize.OpenReader(rec.Body)
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		rows, err := f.GetRows("table")
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"id", "status"}, {"1", "open"}}, rows)
	})

	t.Run("failed export writes nothing", func(t *testing.T) {
		orig := writeXLSX
		defer func() { writeXLSX = orig }()
		writeXLSX = func(w io.Writer, _ string, _ chat.Table) error {
			_, _ = w.Write([]byte("PK partial"))
			return errors.New("disk full")
		}

		ctx, rec := newContext()
		err := sendXLSX(ctx, "t.xlsx", "table", tbl)
		assert.EqualError(t, err, "exporting table: disk full")
		assert.False(t, ctx.Response().Committed)
		assert.Empty(t, rec.Body.Bytes())
		assert.Empty(t, rec.Header().Get(echo.HeaderContentDisposition))
	})
}
