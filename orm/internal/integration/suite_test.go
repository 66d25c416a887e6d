//go:build integration

package integration

import (
	"context"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/startdusk/midgard/orm"
	"github.com/startdusk/midgard/orm/internal/test"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// Suite 每个数据库一份, 开始前重建表和数据
type Suite struct {
	suite.Suite

	driver string
	dsn    string

	db   *orm.DB
	blog *test.Blog
}

func (s *Suite) SetupSuite() {
	s.blog = test.NewBlog()
	dialect, err := orm.DialectByName(s.driver)
	require.NoError(s.T(), err)
	s.db, err = orm.Open(s.driver, s.dsn,
		orm.DBWithDialect(dialect),
		orm.DBWithRegistry(s.blog.Registry))
	require.NoError(s.T(), err)
}

// SetupTest 每个测试都从同一份数据开始
func (s *Suite) SetupTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, stmt := range test.Schema(s.driver) {
		require.NoError(s.T(), orm.RawQuery(s.db, stmt).Exec(ctx).Err(), stmt)
	}
}

func (s *Suite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
}
