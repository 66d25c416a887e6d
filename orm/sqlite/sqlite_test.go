package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startdusk/midgard/orm"
)

func Test_IsUniqueViolation(t *testing.T) {
	db, err := Open("file:test_unique?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	assert.Equal(t, orm.DialectSQLite, db.Dialect())

	ctx := context.Background()
	require.NoError(t, orm.RawQuery(db, "CREATE TABLE tags (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE)").Exec(ctx).Err())
	require.NoError(t, db.Table("tags").Insert(ctx, map[string]any{"id": 1, "name": "go"}).Err())

	testCases := []struct {
		name string
		row  map[string]any
		want bool
	}{
		{
			name: "primary key",
			row:  map[string]any{"id": 1, "name": "rust"},
			want: true,
		},
		{
			name: "unique index",
			row:  map[string]any{"id": 2, "name": "go"},
			want: true,
		},
		{
			name: "not null",
			row:  map[string]any{"id": 3, "name": nil},
			want: false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := db.Table("tags").Insert(ctx, tc.row).Err()
			require.Error(t, err)
			assert.Equal(t, tc.want, IsUniqueViolation(err))
		})
	}

	assert.False(t, IsUniqueViolation(errors.New("UNIQUE constraint failed")))
	assert.False(t, IsUniqueViolation(nil))
}
