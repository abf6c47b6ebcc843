package processor

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// naValue gota 在构造 series 时识别为缺失值的文本
const naValue = "NaN"

type joinKind int

const (
	innerJoin joinKind = iota
	leftJoin
)

// requireColumns 检查列是否存在，缺失时返回 ErrMissingColumn
func requireColumns(df dataframe.DataFrame, table string, columns ...string) error {
	if df.Err != nil {
		return df.Err
	}
	names := make(map[string]struct{}, df.Ncol())
	for _, n := range df.Names() {
		names[n] = struct{}{}
	}
	for _, c := range columns {
		if _, ok := names[c]; !ok {
			return missingColumn(table, c)
		}
	}
	return nil
}

// keyIndex 建立 key值 -> 行号列表 的索引，NA 不参与匹配
func keyIndex(df dataframe.DataFrame, key string) map[string][]int {
	col := df.Col(key)
	idx := make(map[string][]int, col.Len())
	for i := 0; i < col.Len(); i++ {
		e := col.Elem(i)
		if e.IsNA() {
			continue
		}
		k := e.String()
		idx[k] = append(idx[k], i)
	}
	return idx
}

// join 哈希连接，保持左表行顺序，右表同一key的多行按右表顺序展开
// 右表中与左表同名的列被丢弃(包括同名的连接键)
func join(left, right dataframe.DataFrame, leftKey, rightKey string, kind joinKind) dataframe.DataFrame {
	idx := keyIndex(right, rightKey)
	lk := left.Col(leftKey)

	var li, ri []int
	for i := 0; i < left.Nrow(); i++ {
		e := lk.Elem(i)
		if !e.IsNA() {
			if rows, ok := idx[e.String()]; ok {
				for _, r := range rows {
					li = append(li, i)
					ri = append(ri, r)
				}
				continue
			}
		}
		if kind == leftJoin {
			li = append(li, i)
			ri = append(ri, -1)
		}
	}

	leftNames := left.Names()
	seen := make(map[string]struct{}, len(leftNames))
	cols := make([]series.Series, 0, left.Ncol()+right.Ncol())
	for _, name := range leftNames {
		seen[name] = struct{}{}
		cols = append(cols, takeSeries(left.Col(name), li))
	}
	for _, name := range right.Names() {
		if _, dup := seen[name]; dup {
			continue
		}
		cols = append(cols, takeSeries(right.Col(name), ri))
	}
	return dataframe.New(cols...)
}

// takeSeries 按行号取值，行号 -1 填充 NA
func takeSeries(col series.Series, rows []int) series.Series {
	if len(rows) == 0 {
		return col.Empty()
	}
	padded := col
	for _, r := range rows {
		if r >= 0 {
			continue
		}
		// 在末尾追加一个 NA，把 -1 指向它
		padded = col.Concat(series.New([]string{naValue}, col.Type(), col.Name))
		na := col.Len()
		fixed := make([]int, len(rows))
		for j, r := range rows {
			if r < 0 {
				fixed[j] = na
			} else {
				fixed[j] = r
			}
		}
		rows = fixed
		break
	}
	out := padded.Subset(rows)
	out.Name = col.Name
	return out
}

// takeRows 按行号取出子表
func takeRows(df dataframe.DataFrame, rows []int) dataframe.DataFrame {
	cols := make([]series.Series, 0, df.Ncol())
	for _, name := range df.Names() {
		cols = append(cols, takeSeries(df.Col(name), rows))
	}
	return dataframe.New(cols...)
}

// selectColumns 只保留存在的列，顺序按 columns
func selectColumns(df dataframe.DataFrame, columns ...string) dataframe.DataFrame {
	cols := make([]series.Series, 0, len(columns))
	for _, name := range columns {
		cols = append(cols, df.Col(name))
	}
	return dataframe.New(cols...)
}

// dropColumns 去掉指定列
func dropColumns(df dataframe.DataFrame, columns ...string) dataframe.DataFrame {
	drop := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		drop[c] = struct{}{}
	}
	keep := make([]string, 0, df.Ncol())
	for _, name := range df.Names() {
		if _, ok := drop[name]; !ok {
			keep = append(keep, name)
		}
	}
	return selectColumns(df, keep...)
}

// firstPerKey 每个key保留第一次出现的行，等价于 groupby(key).first() 的行选择
func firstPerKey(df dataframe.DataFrame, key string) dataframe.DataFrame {
	col := df.Col(key)
	seen := make(map[string]struct{}, col.Len())
	rows := make([]int, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		e := col.Elem(i)
		if e.IsNA() {
			continue
		}
		k := e.String()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, i)
	}
	return takeRows(df, rows)
}

// group 一个分组：各分组列的值和组内行号
type group struct {
	key  []string
	rows []int
}

const keySep = "\x1f"

// groupRows 按列分组，分组按首次出现的顺序返回；任一分组列为 NA 的行被跳过
func groupRows(df dataframe.DataFrame, columns ...string) []group {
	cols := make([]series.Series, len(columns))
	for i, c := range columns {
		cols[i] = df.Col(c)
	}

	pos := make(map[string]int)
	var groups []group
	parts := make([]string, len(columns))
rows:
	for i := 0; i < df.Nrow(); i++ {
		for j, c := range cols {
			e := c.Elem(i)
			if e.IsNA() {
				continue rows
			}
			parts[j] = e.String()
		}
		k := strings.Join(parts, keySep)
		p, ok := pos[k]
		if !ok {
			p = len(groups)
			pos[k] = p
			groups = append(groups, group{key: append([]string(nil), parts...)})
		}
		groups[p].rows = append(groups[p].rows, i)
	}
	return groups
}

// floatSeries 构造可空的浮点列，NaN 视为缺失
func floatSeries(values []float64, name string) series.Series {
	records := make([]string, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			records[i] = naValue
			continue
		}
		records[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return series.New(records, series.Float, name)
}

// intSeries 构造可空的整数列，valid[i] 为 false 时缺失
func intSeries(values []int, valid []bool, name string) series.Series {
	records := make([]string, len(values))
	for i, v := range values {
		if valid != nil && !valid[i] {
			records[i] = naValue
			continue
		}
		records[i] = strconv.Itoa(v)
	}
	return series.New(records, series.Int, name)
}

// stringSeries 构造可空的字符串列，valid[i] 为 false 时缺失
func stringSeries(values []string, valid []bool, name string) series.Series {
	records := make([]string, len(values))
	for i, v := range values {
		if valid != nil && !valid[i] {
			records[i] = naValue
			continue
		}
		records[i] = v
	}
	return series.New(records, series.String, name)
}

// lookup 建立 key列 -> value列 的映射，同一 key 取第一行
func lookup(df dataframe.DataFrame, key, value string) map[string]series.Element {
	kc, vc := df.Col(key), df.Col(value)
	out := make(map[string]series.Element, kc.Len())
	for i := 0; i < kc.Len(); i++ {
		k := kc.Elem(i)
		if k.IsNA() {
			continue
		}
		if _, ok := out[k.String()]; !ok {
			out[k.String()] = vc.Elem(i)
		}
	}
	return out
}
