// 包 utils：数据库与 Redis 连接工具，统一环境变量读取与方言差异处理
package utils

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect：SQL 方言，仅区分占位符与建表差异
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect：解析驱动名称，空值回退到 postgres
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported db driver %q", s)
}

// 文档注释：占位符改写
// 背景：语句统一按 PostgreSQL 的 $n 书写；SQLite 下改写为等价的 ?n 编号参数，保证同一参数可多次引用。
// 约束：不解析字符串字面量，语句中的字面量不得包含 "$数字" 形式的文本。
func (d Dialect) Rebind(q string) string {
	if d != SQLite {
		return q
	}
	var b strings.Builder
	b.Grow(len(q))
	for i := 0; i < len(q); i++ {
		c := q[i]
		if c == '$' && i+1 < len(q) && q[i+1] >= '0' && q[i+1] <= '9' {
			b.WriteByte('?')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// OpenDB：按方言打开连接池
// 约束：SQLite 打开后设置 WAL 与 busy_timeout，且限制为单写连接以避免 database is locked
func OpenDB(d Dialect, dsn string) (*sql.DB, error) {
	switch d {
	case SQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
			"PRAGMA synchronous=NORMAL",
		} {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
			}
		}
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		return OpenPostgres(dsn)
	}
}

func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(envInt("PG_MAX_OPEN_CONNS", 50))
	db.SetMaxIdleConns(envInt("PG_MAX_IDLE_CONNS", 25))
	return db, nil
}

func BuildPostgresDSNFromEnv() string {
	host := envOr("PG_HOST", "localhost")
	port := envOr("PG_PORT", "5432")
	user := envOr("PG_USER", "postgres")
	pass := os.Getenv("PG_PASSWORD")
	db := envOr("PG_DB", "regions")
	ssl := envOr("PG_SSLMODE", "disable")
	dsn := "postgres://" + user
	if pass != "" {
		dsn += ":" + pass
	}
	dsn += "@" + host + ":" + port + "/" + db + "?sslmode=" + ssl
	return dsn
}

// OpenDBFromEnv：REGION_DB_DRIVER 选择方言；postgres 使用 REGION_DB_DSN 或 PG_* 拼接，sqlite 使用 REGION_SQLITE_PATH
func OpenDBFromEnv() (*sql.DB, Dialect, error) {
	d, err := ParseDialect(os.Getenv("REGION_DB_DRIVER"))
	if err != nil {
		return nil, "", err
	}
	dsn := os.Getenv("REGION_DB_DSN")
	if dsn == "" {
		if d == SQLite {
			dsn = envOr("REGION_SQLITE_PATH", "data/regions.db")
		} else {
			dsn = BuildPostgresDSNFromEnv()
		}
	}
	db, err := OpenDB(d, dsn)
	return db, d, err
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			return n
		}
	}
	return def
}
