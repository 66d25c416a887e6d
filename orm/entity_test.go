package orm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startdusk/midgard/orm/internal/test"
)

func Test_Entity_Transform(t *testing.T) {
	blog := test.NewBlog()
	e := newEntityFromRow(blog.Users, map[string]any{
		"id":       int64(1),
		"name":     "Tom",
		"settings": `{"theme":"dark"}`,
	})

	settings, err := e.Get("settings")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"theme": "dark"}, settings)
	assert.Equal(t, `{"theme":"dark"}`, e.Raw("settings"))
	assert.False(t, e.IsDirty())

	require.NoError(t, e.Set("settings", map[string]any{"theme": "light"}))
	assert.Equal(t, `{"theme":"light"}`, e.Raw("settings"))
	assert.Equal(t, map[string]any{"settings": `{"theme":"light"}`}, e.Dirty())

	// 改回原值就不脏了
	require.NoError(t, e.Set("settings", map[string]any{"theme": "dark"}))
	assert.False(t, e.IsDirty("settings"))

	_, err = newEntityFromRow(blog.Users, map[string]any{"settings": "{"}).Get("settings")
	assert.Error(t, err)
}

func Test_Entity_FillStruct(t *testing.T) {
	blog := test.NewBlog()
	e := NewEntity(blog.Users)
	require.NoError(t, e.FillStruct(&test.User{
		Name:     "Tom",
		Email:    test.ToPtr("tom@example.org"),
		Settings: map[string]any{"theme": "dark"},
	}))
	assert.Equal(t, "Tom", e.Raw("name"))
	assert.Equal(t, `{"theme":"dark"}`, e.Raw("settings"))
	assert.True(t, e.IsDirty("name", "email"))
	assert.False(t, e.Exists())

	var u test.User
	require.NoError(t, e.Bind(&u))
	assert.Equal(t, "Tom", u.Name)
	assert.Equal(t, "tom@example.org", *u.Email)
	assert.Equal(t, map[string]any{"theme": "dark"}, u.Settings)

	assert.Error(t, e.Bind(u))
}

func Test_Entity_ToMap(t *testing.T) {
	blog := test.NewBlog()
	post := newEntityFromRow(blog.Posts, map[string]any{"id": int64(1), "title": "hello"})
	post.setRelation("author", (*Entity)(nil))
	post.setRelation("comments", NewResultSet(
		newEntityFromRow(blog.Comments, map[string]any{"id": int64(1), "body": "nice"}),
	))
	team := newEntityFromRow(blog.Teams, map[string]any{"id": int64(2), "name": "blue"})
	team.pivot = map[string]any{"user_id": int64(1), "team_id": int64(2)}

	m, err := post.ToMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":       int64(1),
		"title":    "hello",
		"author":   nil,
		"comments": []map[string]any{{"id": int64(1), "body": "nice"}},
	}, m)

	data, err := json.Marshal(team)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2,"name":"blue","pivot":{"user_id":1,"team_id":2}}`, string(data))
}

func Test_ResultSet(t *testing.T) {
	var nilSet *ResultSet[Result]
	assert.Equal(t, 0, nilSet.Len())
	_, ok := nilSet.First()
	assert.False(t, ok)
	assert.Nil(t, nilSet.Items())

	rs := NewResultSet(Result{"id": int64(1), "name": "Tom"}, Result{"id": int64(2)})
	assert.Equal(t, 2, rs.Len())
	first, ok := rs.First()
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name"}, first.Columns())
	assert.True(t, first.Has("name"))
	assert.False(t, rs.At(1).Has("name"))

	// Items 是副本
	items := rs.Items()
	items[0] = Result{}
	assert.Equal(t, "Tom", rs.At(0).Get("name"))

	var ids []any
	for i, row := range rs.All() {
		if i > 0 {
			break
		}
		ids = append(ids, row.Get("id"))
	}
	assert.Equal(t, []any{int64(1)}, ids)

	data, err := json.Marshal(rs)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"Tom"},{"id":2}]`, string(data))

	data, err = json.Marshal(NewResultSet[Result]())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
