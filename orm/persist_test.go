package orm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startdusk/midgard/orm"
	"github.com/startdusk/midgard/orm/internal/test"
)

func Test_Save_Insert(t *testing.T) {
	db, blog := newBlogDB(t)
	ctx := context.Background()

	e := orm.NewEntity(blog.Users)
	require.NoError(t, e.Fill(map[string]any{
		"name":     "Butch",
		"settings": map[string]any{"size": "big"},
	}))
	assert.False(t, e.Exists())
	require.NoError(t, orm.Save(ctx, db, e))

	assert.True(t, e.Exists())
	assert.Equal(t, int64(4), e.Key())
	assert.False(t, e.IsDirty())
	assert.Equal(t, "INSERT INTO `users` (`name`, `settings`) VALUES (?, ?) RETURNING `id`", queries(db)[0])

	// 存储形式是 JSON 文本
	row, err := db.Table("users").Where("id", "=", 4).First(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"size":"big"}`, row.Get("settings"))
}

func Test_Save_InsertWithKey(t *testing.T) {
	db, blog := newBlogDB(t)
	ctx := context.Background()

	team := orm.NewEntity(blog.Teams)
	require.NoError(t, team.Fill(map[string]any{"id": 10, "name": "green"}))
	require.NoError(t, orm.Save(ctx, db, team))
	assert.Equal(t, "INSERT INTO `teams` (`id`, `name`) VALUES (?, ?)", queries(db)[0])

	found, err := db.Model("teams").Find(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "green", found.Raw("name"))
}

func Test_Save_Update(t *testing.T) {
	db, _ := newBlogDB(t)
	ctx := context.Background()

	tom, err := db.Model("users").Find(ctx, 1)
	require.NoError(t, err)
	assert.False(t, tom.IsDirty())

	require.NoError(t, tom.Set("name", "Thomas"))
	assert.True(t, tom.IsDirty("name"))
	assert.False(t, tom.IsDirty("email"))
	assert.Equal(t, map[string]any{"name": "Thomas"}, tom.Dirty())

	db.FlushQueryLog()
	require.NoError(t, orm.Save(ctx, db, tom))
	assert.Equal(t, []string{"UPDATE `users` SET `name` = ? WHERE `id` = ?"}, queries(db))
	assert.False(t, tom.IsDirty())

	// 没有脏数据不执行语句
	db.FlushQueryLog()
	require.NoError(t, orm.Save(ctx, db, tom))
	assert.Empty(t, db.QueryLog())

	row, err := db.Table("users").Where("id", "=", 1).First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Thomas", row.Get("name"))
}

func Test_Delete(t *testing.T) {
	db, blog := newBlogDB(t)
	ctx := context.Background()

	spike, err := db.Model("users").Find(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, orm.Delete(ctx, db, spike))
	assert.False(t, spike.Exists())
	// 内存里的数据还在
	assert.Equal(t, "Spike", spike.Raw("name"))

	_, err = db.Model("users").Find(ctx, 3)
	assert.ErrorIs(t, err, orm.ErrNoRows)

	err = orm.Delete(ctx, db, orm.NewEntity(blog.Users))
	assert.ErrorIs(t, err, orm.ErrNoPrimaryKey)
}

func Test_Save_DoTx(t *testing.T) {
	db, blog := newBlogDB(t)
	ctx := context.Background()

	bizErr := errors.New("biz error")
	err := db.DoTx(ctx, func(ctx context.Context, tx *orm.Tx) error {
		e := orm.NewEntity(blog.Teams)
		if err := e.Set("name", "green"); err != nil {
			return err
		}
		if err := orm.Save(ctx, tx, e); err != nil {
			return err
		}
		cnt, err := tx.Table("teams").Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), cnt)
		return bizErr
	}, nil)
	assert.ErrorIs(t, err, bizErr)

	cnt, err := db.Table("teams").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)
}

func Test_Link(t *testing.T) {
	db, blog := newBlogDB(t)
	ctx := context.Background()

	spike, err := db.Model("users").Including("teams").Find(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, spike.Many("teams").Len())

	red, err := db.Model("teams").Find(ctx, 1)
	require.NoError(t, err)

	// 实体和键都可以
	require.NoError(t, orm.Link(ctx, db, spike, "teams", red, 2))
	// 已经加载的关联失效
	assert.False(t, spike.RelationLoaded("teams"))

	// 重复关联是幂等的
	require.NoError(t, orm.Link(ctx, db, spike, "teams", 1))
	cnt, err := db.Table("team_user").Where("user_id", "=", 3).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)

	require.NoError(t, orm.NewHydrator(db).Load(ctx, orm.NewResultSet(spike), orm.Include("teams")))
	assert.ElementsMatch(t, []any{"red", "blue"}, names(t, spike.Many("teams"), "name"))

	err = orm.Link(ctx, db, spike, "posts", 1)
	assert.ErrorIs(t, err, orm.ErrNotManyToMany)
	err = orm.Link(ctx, db, spike, "nope", 1)
	assert.ErrorIs(t, err, orm.ErrUnknownRelation)
	err = orm.Link(ctx, db, orm.NewEntity(blog.Users), "teams", 1)
	assert.ErrorIs(t, err, orm.ErrNoPrimaryKey)
}

// 检查的时候不存在, 插入的时候已经被别人插入了
func Test_Link_UniqueViolation(t *testing.T) {
	blind := func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			if qc.Type == "SELECT" && qc.Table == "team_user" {
				return &orm.QueryResult{Result: orm.NewResultSet[orm.Result]()}
			}
			return next(ctx, qc)
		}
	}
	db, _ := newBlogDB(t, orm.DBWithMiddlewares(blind))
	ctx := context.Background()

	tom, err := db.Model("users").Find(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, orm.Link(ctx, db, tom, "teams", 1))

	err = orm.RawQuery(db, "INSERT INTO team_user (team_id, user_id) VALUES (?, ?)", 1, 1).Exec(ctx).Err()
	assert.Error(t, err)
}

func Test_Unlink(t *testing.T) {
	db, _ := newBlogDB(t)
	ctx := context.Background()

	tom, err := db.Model("users").Find(ctx, 1)
	require.NoError(t, err)

	n, err := orm.Unlink(ctx, db, tom, "teams", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// 不存在的关联
	n, err = orm.Unlink(ctx, db, tom, "teams", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	// 全部删除, 不影响别的用户
	n, err = orm.Unlink(ctx, db, tom, "teams")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	cnt, err := db.Table("team_user").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
}

func Test_Save_FillStruct(t *testing.T) {
	db, blog := newBlogDB(t)
	ctx := context.Background()

	e := orm.NewEntity(blog.Users)
	require.NoError(t, e.FillStruct(test.User{Name: "Butch"}))
	require.NoError(t, orm.Save(ctx, db, e))
	// ID 是零值, 由数据库生成
	assert.Equal(t, int64(4), e.Key())

	row, err := db.Table("users").Where("id", "=", 4).First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Butch", row.Get("name"))
	assert.Nil(t, row.Get("email"))
	assert.Nil(t, row.Get("settings"))
}
