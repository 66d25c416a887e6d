package orm_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startdusk/midgard/orm"
	"github.com/startdusk/midgard/orm/internal/test"
	"github.com/startdusk/midgard/orm/sqlite"
)

// newBlogDB 每个测试一个独立的内存库, 只有一个连接
func newBlogDB(t *testing.T, opts ...orm.DBOption) (*orm.DB, *test.Blog) {
	blog := test.NewBlog()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	sqlDB, err := sql.Open(sqlite.DriverName, dsn)
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	opts = append(append(sqlite.Options(), orm.DBWithRegistry(blog.Registry), orm.DBWithQueryLog()), opts...)
	db, err := orm.OpenDB(sqlDB, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	for _, stmt := range test.Schema(sqlite.DriverName) {
		require.NoError(t, orm.RawQuery(db, stmt).Exec(ctx).Err())
	}
	db.FlushQueryLog()
	return db, blog
}

func names(t *testing.T, c *orm.Collection, col string) []any {
	require.NotNil(t, c)
	res := make([]any, 0, c.Len())
	for _, e := range c.All() {
		res = append(res, e.Raw(col))
	}
	return res
}

func queries(db *orm.DB) []string {
	entries := db.QueryLog()
	res := make([]string, 0, len(entries))
	for _, e := range entries {
		res = append(res, e.SQL)
	}
	return res
}

func Test_Hydrator_HasMany(t *testing.T) {
	db, _ := newBlogDB(t)

	users, err := db.Model("users").OrderBy("id").Including("posts").All(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, users.Len())

	// 三个用户, 一次查用户, 一次查文章
	assert.Equal(t, []string{
		"SELECT * FROM `users` ORDER BY `id` ASC",
		"SELECT * FROM `posts` WHERE `user_id` IN (?, ?, ?)",
	}, queries(db))

	assert.Equal(t, []any{"hello", "draft"}, names(t, users.At(0).Many("posts"), "title"))
	assert.Equal(t, []any{"cheese"}, names(t, users.At(1).Many("posts"), "title"))

	// 没有文章也是空集合, 不是 nil
	spike := users.At(2)
	assert.True(t, spike.RelationLoaded("posts"))
	require.NotNil(t, spike.Many("posts"))
	assert.Equal(t, 0, spike.Many("posts").Len())
}

func Test_Hydrator_EmptyBatch(t *testing.T) {
	db, _ := newBlogDB(t)

	users, err := db.Model("users").
		Where("id", ">", 100).
		Including("posts", "posts.comments", "teams").
		All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, users.Len())
	assert.Len(t, db.QueryLog(), 1)
}

func Test_Hydrator_Nested(t *testing.T) {
	db, _ := newBlogDB(t)

	// posts.comments 隐含了 posts
	users, err := db.Model("users").OrderBy("id").Including("posts.comments").All(context.Background())
	require.NoError(t, err)
	assert.Len(t, db.QueryLog(), 3)

	tomPosts := users.At(0).Many("posts")
	require.Equal(t, 2, tomPosts.Len())
	assert.Equal(t, []any{"nice", "meh"}, names(t, tomPosts.At(0).Many("comments"), "body"))
	assert.Equal(t, 0, tomPosts.At(1).Many("comments").Len())

	jerryPosts := users.At(1).Many("posts")
	assert.Equal(t, []any{"yum"}, names(t, jerryPosts.At(0).Many("comments"), "body"))
}

func Test_Hydrator_Constraint(t *testing.T) {
	db, _ := newBlogDB(t)

	users, err := db.Model("users").
		OrderBy("id").
		IncludingWith("posts", func(q *orm.Builder) {
			q.Where("published", "=", 1)
		}).
		All(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM `posts` WHERE `user_id` IN (?, ?, ?) AND (`published` = ?)", queries(db)[1])
	assert.Equal(t, []any{"hello"}, names(t, users.At(0).Many("posts"), "title"))
	assert.Equal(t, []any{"cheese"}, names(t, users.At(1).Many("posts"), "title"))
}

// 约束只选了部分列, 分组和下一层关联要用的键会自动补上
func Test_Hydrator_ConstraintSelect(t *testing.T) {
	ctx := context.Background()

	t.Run("has many", func(t *testing.T) {
		db, _ := newBlogDB(t)
		users, err := db.Model("users").
			OrderBy("id").
			IncludingWith("posts", func(q *orm.Builder) { q.Select("id", "title") }).
			All(ctx)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `id`, `title`, `user_id` FROM `posts` WHERE `user_id` IN (?, ?, ?)", queries(db)[1])
		assert.Equal(t, []any{"hello", "draft"}, names(t, users.At(0).Many("posts"), "title"))
		assert.Equal(t, []any{"cheese"}, names(t, users.At(1).Many("posts"), "title"))
	})

	t.Run("nested", func(t *testing.T) {
		db, _ := newBlogDB(t)
		users, err := db.Model("users").
			Where("id", "=", 1).
			IncludingWith("posts", func(q *orm.Builder) { q.Select("title") }).
			Including("posts.comments").
			All(ctx)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `title`, `user_id`, `id` FROM `posts` WHERE `user_id` IN (?)", queries(db)[1])
		posts := users.At(0).Many("posts")
		require.Equal(t, 2, posts.Len())
		assert.Equal(t, []any{"nice", "meh"}, names(t, posts.At(0).Many("comments"), "body"))
	})

	t.Run("belongs to", func(t *testing.T) {
		db, _ := newBlogDB(t)
		posts, err := db.Model("posts").
			OrderBy("id").
			IncludingWith("author", func(q *orm.Builder) { q.Select("name") }).
			All(ctx)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `name`, `id` FROM `users` WHERE `id` IN (?, ?)", queries(db)[1])
		assert.Equal(t, "Tom", posts.At(0).One("author").Raw("name"))
		assert.Equal(t, "Jerry", posts.At(2).One("author").Raw("name"))
	})

	t.Run("aliased key", func(t *testing.T) {
		db, _ := newBlogDB(t)
		_, err := db.Model("users").
			IncludingWith("posts", func(q *orm.Builder) { q.Select("posts.user_id", "title") }).
			All(ctx)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `posts`.`user_id`, `title` FROM `posts` WHERE `user_id` IN (?, ?, ?)", queries(db)[1])
	})
}

// 一条查询服务整批父实体, 分页没法落到每个父实体上
func Test_Hydrator_ConstraintPaging(t *testing.T) {
	db, _ := newBlogDB(t)
	_, err := db.Model("users").
		IncludingWith("posts", func(q *orm.Builder) { q.OrderByDesc("id").Limit(1) }).
		All(context.Background())
	assert.ErrorIs(t, err, orm.ErrConstraintPaging)
	// 只查了父实体
	assert.Len(t, db.QueryLog(), 1)
}

// 约束写在嵌套路径上, 只作用于最后一段
func Test_Hydrator_NestedConstraint(t *testing.T) {
	db, _ := newBlogDB(t)

	users, err := db.Model("users").
		Where("id", "=", 1).
		IncludingWith("posts.comments", func(q *orm.Builder) {
			q.Where("body", "<>", "meh")
		}).
		All(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"SELECT * FROM `users` WHERE `id` = ?",
		"SELECT * FROM `posts` WHERE `user_id` IN (?)",
		"SELECT * FROM `comments` WHERE `post_id` IN (?, ?) AND (`body` <> ?)",
	}, queries(db))

	posts := users.At(0).Many("posts")
	require.Equal(t, 2, posts.Len())
	assert.Equal(t, []any{"nice"}, names(t, posts.At(0).Many("comments"), "body"))
}

func Test_Hydrator_BelongsTo(t *testing.T) {
	db, _ := newBlogDB(t)

	posts, err := db.Model("posts").OrderBy("id").Including("author").All(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, posts.Len())

	// 外键去重
	assert.Equal(t, "SELECT * FROM `users` WHERE `id` IN (?, ?)", queries(db)[1])
	assert.Equal(t, "Tom", posts.At(0).One("author").Raw("name"))
	assert.Equal(t, "Tom", posts.At(1).One("author").Raw("name"))
	assert.Equal(t, "Jerry", posts.At(2).One("author").Raw("name"))
}

func Test_Hydrator_HasOne(t *testing.T) {
	db, _ := newBlogDB(t)

	users, err := db.Model("users").OrderBy("id").Including("profile").All(context.Background())
	require.NoError(t, err)

	require.NotNil(t, users.At(0).One("profile"))
	assert.Equal(t, "cat", users.At(0).One("profile").Raw("bio"))

	// 没有匹配时加载过了, 但是值是 nil
	assert.True(t, users.At(1).RelationLoaded("profile"))
	assert.Nil(t, users.At(1).One("profile"))
}

func Test_Hydrator_ManyToMany(t *testing.T) {
	db, _ := newBlogDB(t)

	users, err := db.Model("users").OrderBy("id").Including("teams").All(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT `teams`.*, `team_user`.`user_id` AS `pivot_user_id`, `team_user`.`team_id` AS `pivot_team_id` "+
			"FROM `teams` JOIN `team_user` ON `team_user`.`team_id` = `teams`.`id` WHERE `team_user`.`user_id` IN (?, ?, ?)",
		queries(db)[1])

	tomTeams := users.At(0).Many("teams")
	assert.ElementsMatch(t, []any{"red", "blue"}, names(t, tomTeams, "name"))
	for _, team := range tomTeams.All() {
		assert.Equal(t, int64(1), team.Pivot("user_id"))
		assert.Equal(t, team.Raw("id"), team.Pivot("team_id"))
		// 中间表的列不会混进实体的列
		_, ok := team.Attributes()["pivot_user_id"]
		assert.False(t, ok)
	}
	assert.Equal(t, []any{"red"}, names(t, users.At(1).Many("teams"), "name"))
	assert.Equal(t, 0, users.At(2).Many("teams").Len())

	// 反方向
	db.FlushQueryLog()
	teams, err := db.Model("teams").OrderBy("id").Including("members").All(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"Tom", "Jerry"}, names(t, teams.At(0).Many("members"), "name"))
	assert.Equal(t, []any{"Tom"}, names(t, teams.At(1).Many("members"), "name"))
}

func Test_Hydrator_InvalidIncludes(t *testing.T) {
	testCases := []struct {
		name     string
		includes []string
		wantErr  error
	}{
		{
			name:     "unknown relation",
			includes: []string{"nope"},
			wantErr:  orm.ErrUnknownRelation,
		},
		{
			name:     "unknown nested relation",
			includes: []string{"posts.nope"},
			wantErr:  orm.ErrUnknownRelation,
		},
		{
			name:     "empty segment",
			includes: []string{"posts..comments"},
			wantErr:  orm.ErrMalformedInclude,
		},
		{
			name:     "empty path",
			includes: []string{""},
			wantErr:  orm.ErrMalformedInclude,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, _ := newBlogDB(t)
			_, err := db.Model("users").Including(tc.includes...).All(context.Background())
			assert.ErrorIs(t, err, tc.wantErr)
			// 检查发生在查询之前
			assert.Empty(t, db.QueryLog())
		})
	}
}

func Test_Hydrator_Load(t *testing.T) {
	db, blog := newBlogDB(t)
	ctx := context.Background()

	rows, err := db.Table("users").OrderBy("id").All(ctx)
	require.NoError(t, err)
	h := orm.NewHydrator(db)
	users, err := h.Hydrate(ctx, blog.Users, rows.Items(), nil)
	require.NoError(t, err)
	assert.False(t, users.At(0).RelationLoaded("profile"))

	require.NoError(t, h.Load(ctx, users, orm.Include("profile")))
	assert.Equal(t, "cat", users.At(0).One("profile").Raw("bio"))

	// 空集合什么都不做
	require.NoError(t, h.Load(ctx, orm.NewResultSet[*orm.Entity](), orm.Include("nope")))
}

func Test_Hydrator_JSON(t *testing.T) {
	db, _ := newBlogDB(t)

	users, err := db.Model("users").
		WhereIn("id", []int{1, 3}).
		OrderBy("id").
		Including("posts", "profile").
		IncludingWith("posts", func(q *orm.Builder) {
			q.Where("published", "=", 1)
		}).
		All(context.Background())
	require.NoError(t, err)

	data, err := json.Marshal(users)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{
			"id": 1, "name": "Tom", "email": "tom@example.org", "settings": {"theme": "dark"},
			"posts": [{"id": 1, "user_id": 1, "title": "hello", "published": 1}],
			"profile": {"id": 1, "user_id": 1, "bio": "cat"}
		},
		{
			"id": 3, "name": "Spike", "email": "spike@example.org", "settings": null,
			"posts": [],
			"profile": null
		}
	]`, string(data))

	empty, err := json.Marshal(orm.NewResultSet[*orm.Entity]())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func Test_Hydrator_Bind(t *testing.T) {
	db, _ := newBlogDB(t)

	users, err := db.Model("users").OrderBy("id").Limit(2).All(context.Background())
	require.NoError(t, err)
	res, err := orm.BindAll[test.User](users)
	require.NoError(t, err)
	assert.Equal(t, []test.User{
		{
			ID:       1,
			Name:     "Tom",
			Email:    test.ToPtr("tom@example.org"),
			Settings: map[string]any{"theme": "dark"},
		},
		{
			ID:   2,
			Name: "Jerry",
		},
	}, res)
}
