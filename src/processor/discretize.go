package processor

import (
	"fmt"
	"math"
	"sort"
)

// 相邻分位点差值不超过该值时视为重复边界
const edgeTolerance = 1e-8

// QuantileDiscretizer 按样本分位数等频分箱，输出序号 0..Bins-1
type QuantileDiscretizer struct {
	Bins  int
	edges []float64
}

func NewQuantileDiscretizer(bins int) *QuantileDiscretizer {
	return &QuantileDiscretizer{Bins: bins}
}

// Fit 用样本计算分箱边界，NaN 被忽略
func (d *QuantileDiscretizer) Fit(sample []float64) error {
	if d.Bins < 1 {
		return fmt.Errorf("分箱数必须大于0, 当前为 %d", d.Bins)
	}
	clean := make([]float64, 0, len(sample))
	for _, v := range sample {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return ErrEmptySample
	}
	sort.Float64s(clean)

	edges := make([]float64, 0, d.Bins+1)
	for i := 0; i <= d.Bins; i++ {
		q := percentileSorted(clean, 100*float64(i)/float64(d.Bins))
		// 重复的边界会产生空箱，只保留第一条
		if len(edges) > 0 && q-edges[len(edges)-1] <= edgeTolerance {
			continue
		}
		edges = append(edges, q)
	}
	if len(edges) == 1 {
		edges = append(edges, edges[0])
	}
	d.edges = edges
	return nil
}

// Transform 返回每个值所在的箱号
func (d *QuantileDiscretizer) Transform(values []float64) ([]int, error) {
	if d.edges == nil {
		return nil, fmt.Errorf("分箱器尚未拟合")
	}
	interior := d.edges[1 : len(d.edges)-1]
	last := len(d.edges) - 2
	out := make([]int, len(values))
	for i, v := range values {
		// 内部边界中 <= v 的个数
		bin := sort.Search(len(interior), func(j int) bool { return interior[j] > v })
		if bin > last {
			bin = last
		}
		out[i] = bin
	}
	return out, nil
}

// Edges 拟合得到的边界，包含最小值和最大值
func (d *QuantileDiscretizer) Edges() []float64 {
	return append([]float64(nil), d.edges...)
}

// percentile 线性插值分位数，p 取值 0..100
func percentile(values []float64, p float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	return percentileSorted(clean, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
