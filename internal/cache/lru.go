package cache

import (
	"container/list"
	"sync"
	"time"

	"region-api/internal/metrics"
)

// 文档注释：进程内 LRU 快速层
// 背景：热点查询在短周期内重复出现，命中后移到表头并累加命中次数；容量溢出时淘汰最久未用条目。
// 约束：过期在读取时判定并就地删除；所有操作在同一把锁下完成。
type LRU struct {
	mu   sync.Mutex
	cap  int
	lst  *list.List
	dict map[string]*list.Element

	evicted int64
}

func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU{cap: capacity, lst: list.New(), dict: make(map[string]*list.Element)}
}

func (c *LRU) Get(k string, now time.Time) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dict[k]
	if !ok {
		return Entry{}, false
	}
	it := e.Value.(*Entry)
	if it.Expired(now) {
		c.lst.Remove(e)
		delete(c.dict, k)
		return Entry{}, false
	}
	it.HitCount++
	c.lst.MoveToFront(e)
	return *it, true
}

func (c *LRU) Set(it Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[it.Key]; ok {
		e.Value = &it
		c.lst.MoveToFront(e)
		return
	}
	c.dict[it.Key] = c.lst.PushFront(&it)
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		if back == nil {
			break
		}
		delete(c.dict, back.Value.(*Entry).Key)
		c.lst.Remove(back)
		c.evicted++
		metrics.CacheEvictionsTotal.Inc()
	}
}

// Delete：删除单个键，返回是否存在
func (c *LRU) Delete(k string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dict[k]
	if !ok {
		return false
	}
	c.lst.Remove(e)
	delete(c.dict, k)
	return true
}

// DeleteExpired：清理全部过期条目，返回删除数
func (c *LRU) DeleteExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for e := c.lst.Front(); e != nil; {
		next := e.Next()
		if it := e.Value.(*Entry); it.Expired(now) {
			c.lst.Remove(e)
			delete(c.dict, it.Key)
			n++
		}
		e = next
	}
	return n
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}

func (c *LRU) Cap() int { return c.cap }

// Evicted：因容量溢出淘汰的累计条数
func (c *LRU) Evicted() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evicted
}

func (c *LRU) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lst.Init()
	c.dict = make(map[string]*list.Element)
}
