package chain

import (
	"context"
	"sync/atomic"

	"region-api/internal/region"
)

type holder struct{ s Source }

// 文档注释：动态查询源
// 背景：通过 atomic.Value 无锁切换实现（数据库 → 索引+数据库），重建索引期间读路径不阻塞。
// 约束：未设置时所有查询返回 ErrNotReady，解析层据此视为存储不可用而非“无匹配”，避免负缓存被污染。
type Dynamic struct{ v atomic.Value }

func (d *Dynamic) Set(s Source) { d.v.Store(holder{s: s}) }

func (d *Dynamic) current() Source {
	h, _ := d.v.Load().(holder)
	return h.s
}

func (d *Dynamic) FindExact(ctx context.Context, name string) (*region.Region, error) {
	s := d.current()
	if s == nil {
		return nil, ErrNotReady
	}
	return s.FindExact(ctx, name)
}

func (d *Dynamic) FindByPhonetic(ctx context.Context, key string) ([]region.Region, error) {
	s := d.current()
	if s == nil {
		return nil, ErrNotReady
	}
	return s.FindByPhonetic(ctx, key)
}

func (d *Dynamic) FindByAliasContains(ctx context.Context, name string) (*region.Region, error) {
	s := d.current()
	if s == nil {
		return nil, ErrNotReady
	}
	return s.FindByAliasContains(ctx, name)
}

func (d *Dynamic) FindNameContainedIn(ctx context.Context, query string, limit int) ([]region.Region, error) {
	s := d.current()
	if s == nil {
		return nil, ErrNotReady
	}
	return s.FindNameContainedIn(ctx, query, limit)
}

func (d *Dynamic) SearchByName(ctx context.Context, fragment string, limit int) ([]region.Region, error) {
	s := d.current()
	if s == nil {
		return nil, ErrNotReady
	}
	return s.SearchByName(ctx, fragment, limit)
}
