package processor

import (
	"github.com/go-gota/gota/dataframe"
)

// 巴西五大区
const (
	RegionSoutheast   = "Southeast"
	RegionSouth       = "South"
	RegionCentralWest = "Central-West"
	RegionNortheast   = "Northeast"
	RegionNorth       = "North"
)

var stateRegions = map[string]string{
	"SP": RegionSoutheast, "MG": RegionSoutheast, "RJ": RegionSoutheast, "ES": RegionSoutheast,
	"PR": RegionSouth, "SC": RegionSouth, "RS": RegionSouth,
	"DF": RegionCentralWest, "GO": RegionCentralWest, "MS": RegionCentralWest, "MT": RegionCentralWest,
	"BA": RegionNortheast, "SE": RegionNortheast, "AL": RegionNortheast, "PE": RegionNortheast,
	"PB": RegionNortheast, "RN": RegionNortheast, "CE": RegionNortheast, "PI": RegionNortheast,
	"MA": RegionNortheast,
	"PA": RegionNorth, "AM": RegionNorth, "AP": RegionNorth, "RO": RegionNorth, "AC": RegionNorth,
	"RR": RegionNorth, "TO": RegionNorth,
}

// StateRegions 返回州 -> 大区映射表的副本
func StateRegions() map[string]string {
	out := make(map[string]string, len(stateRegions))
	for k, v := range stateRegions {
		out[k] = v
	}
	return out
}

// MapRegion 根据 state 列生成 region 列，映射表里没有的州为 NA
// 已有 region 列时覆盖
func MapRegion(df dataframe.DataFrame, table string, regions map[string]string) (dataframe.DataFrame, error) {
	if err := requireColumns(df, table, "state"); err != nil {
		return df, err
	}
	state := df.Col("state")
	values := make([]string, state.Len())
	valid := make([]bool, state.Len())
	for i := 0; i < state.Len(); i++ {
		e := state.Elem(i)
		if e.IsNA() {
			continue
		}
		values[i], valid[i] = regions[e.String()]
	}
	out := df.Mutate(stringSeries(values, valid, "region"))
	return out, out.Err
}
