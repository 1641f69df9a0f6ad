// 包 region：行政区划记录与匹配结果的领域模型，供存储、解析与缓存各层共享
package region

import (
	"errors"
	"fmt"
)

// Level：行政层级，1 省级 … 5 村级
type Level int

const (
	LevelProvince   Level = 1
	LevelPrefecture Level = 2
	LevelCounty     Level = 3
	LevelTown       Level = 4
	LevelVillage    Level = 5
)

func (l Level) Valid() bool { return l >= LevelProvince && l <= LevelVillage }

func (l Level) String() string {
	switch l {
	case LevelProvince:
		return "province"
	case LevelPrefecture:
		return "prefecture"
	case LevelCounty:
		return "county"
	case LevelTown:
		return "town"
	case LevelVillage:
		return "village"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// 文档注释：行政区划记录
// 背景：code 为定长统计编码，前缀即祖先编码（省 2 位、市 2 位、县 2 位、乡 3 位、村 3 位）。
// 约束：顶级记录 ParentCode 为空；经纬度在补全前可为空，补全后除显式刷新外不再置空；别名在单条记录内唯一。
type Region struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	ParentCode string   `json:"parent_code,omitempty"`
	Level      Level    `json:"level"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Pinyin     string   `json:"pinyin,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
}

// HasCoordinates：经纬度是否已补全
func (r Region) HasCoordinates() bool { return r.Longitude != nil && r.Latitude != nil }

// HasAlias：别名列表是否包含 name（精确比较）
func (r Region) HasAlias(name string) bool {
	for _, a := range r.Aliases {
		if a == name {
			return true
		}
	}
	return false
}

var (
	// ErrInvalidRegion：记录自身字段不合法
	ErrInvalidRegion = errors.New("invalid region")
	// ErrHierarchy：层级与父级不一致
	ErrHierarchy = errors.New("region hierarchy violation")
)

// Validate：单条记录的字段校验（不涉及父级）
func (r Region) Validate() error {
	if r.Code == "" || r.Name == "" {
		return fmt.Errorf("%w: empty code or name", ErrInvalidRegion)
	}
	if !r.Level.Valid() {
		return fmt.Errorf("%w: %s level %d out of range", ErrInvalidRegion, r.Code, r.Level)
	}
	if r.Level == LevelProvince && r.ParentCode != "" {
		return fmt.Errorf("%w: top-level %s has parent %s", ErrHierarchy, r.Code, r.ParentCode)
	}
	if r.Level > LevelProvince && r.ParentCode == "" {
		return fmt.Errorf("%w: %s at level %d has no parent", ErrHierarchy, r.Code, r.Level)
	}
	seen := make(map[string]struct{}, len(r.Aliases))
	for _, a := range r.Aliases {
		if _, dup := seen[a]; dup {
			return fmt.Errorf("%w: %s duplicate alias %q", ErrInvalidRegion, r.Code, a)
		}
		seen[a] = struct{}{}
	}
	return nil
}

// 文档注释：批量层级校验
// 背景：导入与补全作业以批次写入，父级可能在同批次或已在库中；lookup 用于查询库中已有父级的层级。
// 约束：非顶级记录的层级必须严格等于父级层级 + 1；父级缺失视为违例。
func CheckHierarchy(batch []Region, lookup func(code string) (Level, bool)) error {
	levels := make(map[string]Level, len(batch))
	for _, r := range batch {
		if err := r.Validate(); err != nil {
			return err
		}
		levels[r.Code] = r.Level
	}
	for _, r := range batch {
		if r.Level == LevelProvince {
			continue
		}
		pl, ok := levels[r.ParentCode]
		if !ok && lookup != nil {
			pl, ok = lookup(r.ParentCode)
		}
		if !ok {
			return fmt.Errorf("%w: %s parent %s not found", ErrHierarchy, r.Code, r.ParentCode)
		}
		if r.Level != pl+1 {
			return fmt.Errorf("%w: %s level %d under parent level %d", ErrHierarchy, r.Code, r.Level, pl)
		}
	}
	return nil
}
