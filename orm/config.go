package orm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 从配置文件打开数据库
//
//	driver: mysql
//	dsn: root:root@tcp(localhost:3306)/app
//	query_log: true
//	time_format: "2006-01-02 15:04:05"
type Config struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// Dialect 为空时按 Driver 推断
	Dialect    string `yaml:"dialect"`
	QueryLog   bool   `yaml:"query_log"`
	TimeFormat string `yaml:"time_format"`
}

func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("orm: 解析配置失败: %w", err)
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}

// Options 转换成 DBOption, 可以再追加别的选项
func (c Config) Options() ([]DBOption, error) {
	name := c.Dialect
	if name == "" {
		name = c.Driver
	}
	dialect, err := DialectByName(name)
	if err != nil {
		return nil, err
	}
	opts := []DBOption{DBWithDialect(dialect)}
	if c.QueryLog {
		opts = append(opts, DBWithQueryLog())
	}
	if c.TimeFormat != "" {
		opts = append(opts, DBWithCompilerOptions(CompilerWithTimeFormat(c.TimeFormat)))
	}
	return opts, nil
}

func OpenConfig(c Config, opts ...DBOption) (*DB, error) {
	cfgOpts, err := c.Options()
	if err != nil {
		return nil, err
	}
	return Open(c.Driver, c.DSN, append(cfgOpts, opts...)...)
}
