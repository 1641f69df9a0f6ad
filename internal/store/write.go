package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"region-api/internal/logger"
	"region-api/internal/region"
)

// 文档注释：批量写入区划（导入/补全作业入口）
// 背景：导入与补全是区划表唯一的写入路径；同一事务内完成层级校验后的 upsert。
// 约束：已补全的经纬度不会被空值覆盖（COALESCE 保留旧值）；别名按首次出现去重后序列化。
func (s *Store) UpsertRegions(ctx context.Context, batch []region.Region) error {
	if len(batch) == 0 {
		return nil
	}
	if err := region.CheckHierarchy(batch, func(code string) (region.Level, bool) {
		r, err := s.Get(ctx, code)
		if err != nil || r == nil {
			return 0, false
		}
		return r.Level, true
	}); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, s.q(`INSERT INTO regions(code, name, parent_code, level, longitude, latitude, pinyin, aliases)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (code) DO UPDATE SET name=EXCLUDED.name, parent_code=EXCLUDED.parent_code, level=EXCLUDED.level,
            longitude=COALESCE(EXCLUDED.longitude, regions.longitude),
            latitude=COALESCE(EXCLUDED.latitude, regions.latitude),
            pinyin=COALESCE(EXCLUDED.pinyin, regions.pinyin),
            aliases=EXCLUDED.aliases`))
	if err != nil {
		return fmt.Errorf("store: prepare upsert: %w", err)
	}
	defer stmt.Close()
	for _, r := range batch {
		aliases, err := marshalNoEscape(dedupe(r.Aliases))
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, r.Code, r.Name, nullString(r.ParentCode), int(r.Level),
			nullFloat(r.Longitude), nullFloat(r.Latitude), nullString(r.Pinyin), aliases); err != nil {
			return fmt.Errorf("store: upsert %s: %w", r.Code, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	logger.L().Debug("regions_upserted", "count", len(batch))
	return nil
}

// UpdateCoordinates：坐标补全；显式刷新同样走此入口
func (s *Store) UpdateCoordinates(ctx context.Context, code string, lon, lat float64) error {
	res, err := s.db.ExecContext(ctx, s.q("UPDATE regions SET longitude=$1, latitude=$2 WHERE code=$3"), lon, lat, code)
	if err != nil {
		return fmt.Errorf("store: update coordinates %s: %w", code, err)
	}
	return expectOne(res, code)
}

// UpdateAliases：别名纠正作业，整体替换别名列表
func (s *Store) UpdateAliases(ctx context.Context, code string, aliases []string) error {
	v, err := marshalNoEscape(dedupe(aliases))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.q("UPDATE regions SET aliases=$1 WHERE code=$2"), v, code)
	if err != nil {
		return fmt.Errorf("store: update aliases %s: %w", code, err)
	}
	return expectOne(res, code)
}

// ErrNotFound：写入目标编码不存在
var ErrNotFound = errors.New("region not found")

func expectOne(res sql.Result, code string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("store: %s: %w", code, ErrNotFound)
	}
	return nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func nullString(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
