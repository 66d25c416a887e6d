package test

var sqliteSchema = []string{
	"CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, email TEXT, settings TEXT)",
	"CREATE TABLE profiles (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id INTEGER NOT NULL, bio TEXT)",
	"CREATE TABLE posts (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id INTEGER NOT NULL, title TEXT NOT NULL, published INTEGER NOT NULL DEFAULT 0)",
	"CREATE TABLE comments (id INTEGER PRIMARY KEY AUTOINCREMENT, post_id INTEGER NOT NULL, body TEXT NOT NULL)",
	"CREATE TABLE teams (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)",
	"CREATE TABLE team_user (team_id INTEGER NOT NULL, user_id INTEGER NOT NULL, PRIMARY KEY (team_id, user_id))",
}

var mysqlSchema = []string{
	"DROP TABLE IF EXISTS users, profiles, posts, comments, teams, team_user",
	"CREATE TABLE users (id BIGINT AUTO_INCREMENT PRIMARY KEY, name VARCHAR(64) NOT NULL, email VARCHAR(128), settings TEXT)",
	"CREATE TABLE profiles (id BIGINT AUTO_INCREMENT PRIMARY KEY, user_id BIGINT NOT NULL, bio TEXT)",
	"CREATE TABLE posts (id BIGINT AUTO_INCREMENT PRIMARY KEY, user_id BIGINT NOT NULL, title VARCHAR(128) NOT NULL, published TINYINT NOT NULL DEFAULT 0)",
	"CREATE TABLE comments (id BIGINT AUTO_INCREMENT PRIMARY KEY, post_id BIGINT NOT NULL, body TEXT NOT NULL)",
	"CREATE TABLE teams (id BIGINT AUTO_INCREMENT PRIMARY KEY, name VARCHAR(64) NOT NULL)",
	"CREATE TABLE team_user (team_id BIGINT NOT NULL, user_id BIGINT NOT NULL, PRIMARY KEY (team_id, user_id))",
}

var postgresSchema = []string{
	"DROP TABLE IF EXISTS users, profiles, posts, comments, teams, team_user",
	"CREATE TABLE users (id BIGSERIAL PRIMARY KEY, name TEXT NOT NULL, email TEXT, settings TEXT)",
	"CREATE TABLE profiles (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL, bio TEXT)",
	"CREATE TABLE posts (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL, title TEXT NOT NULL, published SMALLINT NOT NULL DEFAULT 0)",
	"CREATE TABLE comments (id BIGSERIAL PRIMARY KEY, post_id BIGINT NOT NULL, body TEXT NOT NULL)",
	"CREATE TABLE teams (id BIGSERIAL PRIMARY KEY, name TEXT NOT NULL)",
	"CREATE TABLE team_user (team_id BIGINT NOT NULL, user_id BIGINT NOT NULL, PRIMARY KEY (team_id, user_id))",
}

// Seed 三个用户, Spike 没有文章也没有资料
var Seed = []string{
	`INSERT INTO users (id, name, email, settings) VALUES (1, 'Tom', 'tom@example.org', '{"theme":"dark"}'), (2, 'Jerry', NULL, NULL), (3, 'Spike', 'spike@example.org', NULL)`,
	`INSERT INTO profiles (id, user_id, bio) VALUES (1, 1, 'cat')`,
	`INSERT INTO posts (id, user_id, title, published) VALUES (1, 1, 'hello', 1), (2, 1, 'draft', 0), (3, 2, 'cheese', 1)`,
	`INSERT INTO comments (id, post_id, body) VALUES (1, 1, 'nice'), (2, 1, 'meh'), (3, 3, 'yum')`,
	`INSERT INTO teams (id, name) VALUES (1, 'red'), (2, 'blue')`,
	`INSERT INTO team_user (team_id, user_id) VALUES (1, 1), (1, 2), (2, 1)`,
}

// postgres 显式指定了 id, 序列需要手动推进
var postgresReset = []string{
	"SELECT setval('users_id_seq', 3)",
	"SELECT setval('profiles_id_seq', 1)",
	"SELECT setval('posts_id_seq', 3)",
	"SELECT setval('comments_id_seq', 3)",
	"SELECT setval('teams_id_seq', 2)",
}

// Schema 建表和初始化数据的语句
func Schema(driver string) []string {
	var res []string
	switch driver {
	case "mysql":
		res = append(res, mysqlSchema...)
		res = append(res, Seed...)
	case "postgres", "pgx":
		res = append(res, postgresSchema...)
		res = append(res, Seed...)
		res = append(res, postgresReset...)
	default:
		res = append(res, sqliteSchema...)
		res = append(res, Seed...)
	}
	return res
}
