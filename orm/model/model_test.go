package model

import (
	"testing"

	"github.com/startdusk/midgard/orm/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Model_Relation(t *testing.T) {
	t.Parallel()

	users := New("users")
	posts := New("posts")
	groups := New("groups")
	profiles := New("profiles", ModelWithPrimaryKey("profile_id"))
	users.HasMany("posts", posts).
		HasOne("profile", profiles).
		ManyToMany("groups", groups)
	posts.BelongsTo("author", users, RelationWithForeignKey("author_id"))

	cases := []struct {
		name    string
		m       *Model
		rel     string
		wantRel *Relation
		wantErr error
	}{
		{
			name: "has many",
			m:    users,
			rel:  "posts",
			wantRel: &Relation{
				Name:       "posts",
				Kind:       OneToMany,
				Parent:     users,
				Related:    posts,
				ForeignKey: "user_id",
				LocalKey:   "id",
			},
		},
		{
			name: "has one",
			m:    users,
			rel:  "profile",
			wantRel: &Relation{
				Name:       "profile",
				Kind:       OneToOne,
				Parent:     users,
				Related:    profiles,
				ForeignKey: "user_id",
				LocalKey:   "id",
			},
		},
		{
			name: "many to many",
			m:    users,
			rel:  "groups",
			wantRel: &Relation{
				Name:            "groups",
				Kind:            ManyToMany,
				Parent:          users,
				Related:         groups,
				LocalKey:        "id",
				OwnerKey:        "id",
				PivotTable:      "group_user",
				PivotLocalKey:   "user_id",
				PivotForeignKey: "group_id",
			},
		},
		{
			name: "belongs to",
			m:    posts,
			rel:  "author",
			wantRel: &Relation{
				Name:       "author",
				Kind:       BelongsTo,
				Parent:     posts,
				Related:    users,
				ForeignKey: "author_id",
				OwnerKey:   "id",
			},
		},
		{
			name:    "unknown relation",
			m:       users,
			rel:     "comments",
			wantErr: errs.NewErrUnknownRelation("users", "comments"),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rel, err := c.m.Relation(c.rel)
			assert.Equal(t, c.wantErr, err)
			if err != nil {
				assert.ErrorIs(t, err, errs.ErrUnknownRelation)
				return
			}
			assert.Equal(t, c.wantRel, rel)
		})
	}
}

func Test_Model_RelationsOrder(t *testing.T) {
	users := New("users")
	posts := New("posts")
	users.HasMany("posts", posts).
		HasOne("latest_post", posts).
		HasMany("posts", posts, RelationWithForeignKey("owner_id"))

	rels := users.Relations()
	require.Len(t, rels, 2)
	assert.Equal(t, "posts", rels[0].Name)
	assert.Equal(t, "owner_id", rels[0].ForeignKey)
	assert.Equal(t, "latest_post", rels[1].Name)
}

func Test_Model_SchemaQualifiedNames(t *testing.T) {
	people := New("app.people")
	teams := New("app.teams")
	people.ManyToMany("teams", teams, RelationWithPivot("app.memberships", "person_id", "team_id"))
	people.HasMany("notes", New("notes"))

	rel, err := people.Relation("notes")
	require.NoError(t, err)
	assert.Equal(t, "person_id", rel.ForeignKey)

	rel, err = people.Relation("teams")
	require.NoError(t, err)
	assert.Equal(t, "app.memberships", rel.PivotTable)
}

func Test_JSONTransform(t *testing.T) {
	tr := JSON()

	stored, err := tr.Set(map[string]any{"theme": "dark"})
	require.NoError(t, err)
	assert.Equal(t, `{"theme":"dark"}`, stored)

	val, err := tr.Get(stored)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"theme": "dark"}, val)

	val, err = tr.Get([]byte(`[1,2]`))
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, val)

	val, err = tr.Get(nil)
	require.NoError(t, err)
	assert.Nil(t, val)

	_, err = tr.Get("{broken")
	assert.Error(t, err)
}

func Test_Registry(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	users := r.Define("users", ModelWithPrimaryKey("uid"))
	assert.Same(t, users, r.Define("users"))
	assert.Equal(t, "uid", users.PrimaryKey)

	m, err := r.Get("users")
	require.NoError(t, err)
	assert.Same(t, users, m)

	_, err = r.Get("orders")
	assert.ErrorIs(t, err, errs.ErrUnknownModel)

	orders := New("orders")
	r.Register(orders)
	m, err = r.Get("orders")
	require.NoError(t, err)
	assert.Same(t, orders, m)
}
