// 包 store：行政区划表的数据访问层，提供精确、拼音、别名、包含等只读查询与导入/补全写入
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"region-api/internal/metrics"
	"region-api/internal/region"
	"region-api/internal/utils"
)

const columns = "code, name, parent_code, level, longitude, latitude, pinyin, aliases"

// PhoneticLimit：拼音候选上限
const PhoneticLimit = 20

// Store：区划库访问入口，持有连接池与方言
type Store struct {
	db *sql.DB
	d  utils.Dialect
}

func AttachDB(db *sql.DB, d utils.Dialect) *Store { return &Store{db: db, d: d} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) q(query string) string { return s.d.Rebind(query) }

// strContains：param 文本是否包含 col 列值，按方言选择函数
func (s *Store) strContains(param, col string) string {
	if s.d == utils.SQLite {
		return "instr(" + param + ", " + col + ") > 0"
	}
	return "strpos(" + param + ", " + col + ") > 0"
}

type rowScanner interface{ Scan(dest ...any) error }

func scanRegion(sc rowScanner) (region.Region, error) {
	var (
		r        region.Region
		parent   sql.NullString
		lon, lat sql.NullFloat64
		py       sql.NullString
		aliases  sql.NullString
		level    int
	)
	if err := sc.Scan(&r.Code, &r.Name, &parent, &level, &lon, &lat, &py, &aliases); err != nil {
		return r, err
	}
	r.ParentCode = parent.String
	r.Level = region.Level(level)
	if lon.Valid {
		v := lon.Float64
		r.Longitude = &v
	}
	if lat.Valid {
		v := lat.Float64
		r.Latitude = &v
	}
	r.Pinyin = py.String
	if aliases.Valid && aliases.String != "" {
		if err := json.Unmarshal([]byte(aliases.String), &r.Aliases); err != nil {
			return r, fmt.Errorf("region %s aliases: %w", r.Code, err)
		}
		if len(r.Aliases) == 0 {
			r.Aliases = nil
		}
	}
	return r, nil
}

func (s *Store) queryRegions(ctx context.Context, op, query string, args ...any) ([]region.Region, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues(op).Inc()
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	defer rows.Close()
	var out []region.Region
	for rows.Next() {
		r, err := scanRegion(rows)
		if err != nil {
			metrics.StoreErrorsTotal.WithLabelValues(op).Inc()
			return nil, fmt.Errorf("store: %s scan: %w", op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues(op).Inc()
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	return out, nil
}

func (s *Store) queryOne(ctx context.Context, op, query string, args ...any) (*region.Region, error) {
	r, err := scanRegion(s.db.QueryRowContext(ctx, s.q(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues(op).Inc()
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}
	return &r, nil
}

// FindExact：名称完全相等；同名时取层级最高（数值最小）且编码最小者，未命中返回 nil, nil
func (s *Store) FindExact(ctx context.Context, name string) (*region.Region, error) {
	if name == "" {
		return nil, nil
	}
	return s.queryOne(ctx, "find_exact",
		"SELECT "+columns+" FROM regions WHERE name=$1 ORDER BY level ASC, code ASC LIMIT 1", name)
}

// 文档注释：拼音查找
// 背景：拼音键相等或双向包含均视为候选，供音近匹配再细算相似度。
// 排序：拼音与键相等者优先，其次层级降序、名称长度升序；最多 PhoneticLimit 条，截断不会丢掉相等命中。
func (s *Store) FindByPhonetic(ctx context.Context, key string) ([]region.Region, error) {
	if key == "" {
		return nil, nil
	}
	return s.queryRegions(ctx, "find_phonetic",
		"SELECT "+columns+" FROM regions WHERE pinyin IS NOT NULL AND pinyin <> '' AND (pinyin = $1 OR pinyin LIKE $2 ESCAPE '\\' OR "+s.strContains("$1", "pinyin")+
			") ORDER BY CASE WHEN pinyin = $1 THEN 0 ELSE 1 END, level DESC, LENGTH(name) ASC, code ASC LIMIT $3",
		key, "%"+EscapeLike(key)+"%", PhoneticLimit)
}

// 文档注释：别名包含查找
// 背景：别名以 JSON 数组存储，先以序列化后的带引号文本做 LIKE 粗筛，再解码逐项精确比对，避免子串误命中。
// 返回：层级降序的首条命中；未命中返回 nil, nil。
func (s *Store) FindByAliasContains(ctx context.Context, name string) (*region.Region, error) {
	if name == "" {
		return nil, nil
	}
	quoted, err := marshalNoEscape(name)
	if err != nil {
		return nil, err
	}
	rs, err := s.queryRegions(ctx, "find_alias",
		"SELECT "+columns+" FROM regions WHERE aliases LIKE $1 ESCAPE '\\' ORDER BY level DESC, code ASC LIMIT 50",
		"%"+EscapeLike(quoted)+"%")
	if err != nil {
		return nil, err
	}
	for i := range rs {
		if rs[i].HasAlias(name) {
			return &rs[i], nil
		}
	}
	return nil, nil
}

// FindNameContainedIn：名称为 query 子串的区划，层级降序、名称长度降序，最多 limit 条
func (s *Store) FindNameContainedIn(ctx context.Context, query string, limit int) ([]region.Region, error) {
	if query == "" || limit <= 0 {
		return nil, nil
	}
	return s.queryRegions(ctx, "find_contained",
		"SELECT "+columns+" FROM regions WHERE name <> '' AND "+s.strContains("$1", "name")+
			" ORDER BY level DESC, LENGTH(name) DESC, code ASC LIMIT $2",
		query, limit)
}

// SearchByName：名称包含片段的宽泛检索，层级升序、名称长度升序，用于层级拆分与模糊匹配取候选
func (s *Store) SearchByName(ctx context.Context, fragment string, limit int) ([]region.Region, error) {
	if fragment == "" || limit <= 0 {
		return nil, nil
	}
	return s.queryRegions(ctx, "search_name",
		"SELECT "+columns+" FROM regions WHERE name LIKE $1 ESCAPE '\\' ORDER BY level ASC, LENGTH(name) ASC, code ASC LIMIT $2",
		"%"+EscapeLike(fragment)+"%", limit)
}

// Children：按父级编码枚举下级区划
func (s *Store) Children(ctx context.Context, parentCode string) ([]region.Region, error) {
	return s.queryRegions(ctx, "children",
		"SELECT "+columns+" FROM regions WHERE parent_code=$1 ORDER BY code ASC", parentCode)
}

// Get：按编码读取
func (s *Store) Get(ctx context.Context, code string) (*region.Region, error) {
	return s.queryOne(ctx, "get", "SELECT "+columns+" FROM regions WHERE code=$1", code)
}

// AllRegions：全量读取，按编码排序；用于构建内存索引
func (s *Store) AllRegions(ctx context.Context) ([]region.Region, error) {
	return s.queryRegions(ctx, "all", "SELECT "+columns+" FROM regions ORDER BY code ASC")
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM regions").Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// EscapeLike：转义 LIKE 通配符，配合 ESCAPE '\' 使用
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func marshalNoEscape(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
