package slowquery

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startdusk/midgard/orm"
)

func TestSlowQuery(t *testing.T) {
	testCases := []struct {
		name      string
		threshold time.Duration
		delay     time.Duration
		wantLog   bool
	}{
		{
			name:      "slow",
			threshold: 10 * time.Millisecond,
			delay:     50 * time.Millisecond,
			wantLog:   true,
		},
		{
			name:      "fast",
			threshold: time.Hour,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			require.NoError(t, err)
			defer func() {
				_ = mockDB.Close()
			}()
			buf := &bytes.Buffer{}
			logger := slog.New(slog.NewJSONHandler(buf, nil))
			m := NewMiddlewareBuilder(tc.threshold).Logger(logger)
			db, err := orm.OpenDB(mockDB, orm.DBWithMiddlewares(m.Build()))
			require.NoError(t, err)

			mock.ExpectExec("DELETE FROM `users` WHERE `id` = ?").
				WithArgs(1).
				WillDelayFor(tc.delay).
				WillReturnResult(sqlmock.NewResult(0, 1))
			require.NoError(t, db.Table("users").Where("id", "=", 1).Delete(context.Background()).Err())

			if !tc.wantLog {
				assert.Zero(t, buf.Len())
				return
			}
			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "orm: slow query", entry["msg"])
			assert.Equal(t, "WARN", entry["level"])
			assert.Equal(t, "DELETE", entry["type"])
			assert.Equal(t, "DELETE FROM `users` WHERE `id` = ?", entry["sql"])
		})
	}
}

func TestSlowQuery_LogFunc(t *testing.T) {
	var query string
	m := NewMiddlewareBuilder(0).LogFunc(func(q string, args []any, duration time.Duration) {
		query = q
	})
	res := m.Build()(func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
		time.Sleep(time.Millisecond)
		return &orm.QueryResult{}
	})(context.Background(), &orm.QueryContext{Type: "RAW", Query: &orm.Query{SQL: "SELECT 1"}})
	assert.NoError(t, res.Err)
	assert.Equal(t, "SELECT 1", query)
}
