// 包 chain：区划查询源的顺序组合与热切换
package chain

import (
	"context"
	"errors"

	"region-api/internal/region"
)

// Source：区划只读查询能力集，与解析层的 Finder 契约一致
type Source interface {
	FindExact(ctx context.Context, name string) (*region.Region, error)
	FindByPhonetic(ctx context.Context, key string) ([]region.Region, error)
	FindByAliasContains(ctx context.Context, name string) (*region.Region, error)
	FindNameContainedIn(ctx context.Context, query string, limit int) ([]region.Region, error)
	SearchByName(ctx context.Context, fragment string, limit int) ([]region.Region, error)
}

// 文档注释：顺序查询链
// 背景：内存索引在前、数据库在后；前者未命中时回落到后者，以覆盖索引构建之后新导入的记录。
// 约束：某一源报错时继续尝试后续源；仅当全部源均报错时返回最后一个错误。
type Finder struct {
	list []Source
}

func New(list ...Source) *Finder {
	var out []Source
	for _, s := range list {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Finder{list: out}
}

func one(list []Source, f func(Source) (*region.Region, error)) (*region.Region, error) {
	var lastErr error
	failed := 0
	for _, s := range list {
		r, err := f(s)
		if err != nil {
			lastErr = err
			failed++
			continue
		}
		if r != nil {
			return r, nil
		}
	}
	if len(list) > 0 && failed == len(list) {
		return nil, lastErr
	}
	return nil, nil
}

func many(list []Source, f func(Source) ([]region.Region, error)) ([]region.Region, error) {
	var lastErr error
	failed := 0
	for _, s := range list {
		rs, err := f(s)
		if err != nil {
			lastErr = err
			failed++
			continue
		}
		if len(rs) > 0 {
			return rs, nil
		}
	}
	if len(list) > 0 && failed == len(list) {
		return nil, lastErr
	}
	return nil, nil
}

func (c *Finder) FindExact(ctx context.Context, name string) (*region.Region, error) {
	return one(c.list, func(s Source) (*region.Region, error) { return s.FindExact(ctx, name) })
}

func (c *Finder) FindByPhonetic(ctx context.Context, key string) ([]region.Region, error) {
	return many(c.list, func(s Source) ([]region.Region, error) { return s.FindByPhonetic(ctx, key) })
}

func (c *Finder) FindByAliasContains(ctx context.Context, name string) (*region.Region, error) {
	return one(c.list, func(s Source) (*region.Region, error) { return s.FindByAliasContains(ctx, name) })
}

func (c *Finder) FindNameContainedIn(ctx context.Context, query string, limit int) ([]region.Region, error) {
	return many(c.list, func(s Source) ([]region.Region, error) { return s.FindNameContainedIn(ctx, query, limit) })
}

func (c *Finder) SearchByName(ctx context.Context, fragment string, limit int) ([]region.Region, error) {
	return many(c.list, func(s Source) ([]region.Region, error) { return s.SearchByName(ctx, fragment, limit) })
}

// ErrNotReady：动态源尚未设置
var ErrNotReady = errors.New("region source not ready")
