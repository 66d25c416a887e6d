// Package test 是用于辅助测试的包。仅限于内部使用
package test

import (
	"github.com/startdusk/midgard/orm/model"
)

// Blog 测试用的一组模型
//
//	users 1-1 profiles, users 1-n posts, posts 1-n comments
//	posts n-1 users(author), users n-n teams(team_user)
type Blog struct {
	Registry model.Registry

	Users    *model.Model
	Profiles *model.Model
	Posts    *model.Model
	Comments *model.Model
	Teams    *model.Model
}

func NewBlog() *Blog {
	r := model.NewRegistry()
	users := r.Define("users", model.ModelWithTransform("settings", model.JSON()))
	profiles := r.Define("profiles")
	posts := r.Define("posts")
	comments := r.Define("comments")
	teams := r.Define("teams")

	users.HasOne("profile", profiles).
		HasMany("posts", posts).
		ManyToMany("teams", teams)
	posts.HasMany("comments", comments).
		BelongsTo("author", users, model.RelationWithForeignKey("user_id"))
	comments.BelongsTo("post", posts)
	teams.ManyToMany("members", users)

	return &Blog{
		Registry: r,
		Users:    users,
		Profiles: profiles,
		Posts:    posts,
		Comments: comments,
		Teams:    teams,
	}
}

// User Bind 的目标
type User struct {
	ID       int64
	Name     string
	Email    *string
	Settings map[string]any
}

func ToPtr[T any](t T) *T {
	return &t
}
