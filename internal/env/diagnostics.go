package env

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Path is the per-step info of one episode.
type Path struct {
	Infos []Info `json:"infos"`
}

// Stat is a single named statistic.
type Stat struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// GetDiagnostics summarises every info key over all steps of all paths and
// over the final step of each path. Names are prefix + ["Final "] + key +
// " Mean|Std|Max|Min". Empty paths contribute nothing to the final stats.
func GetDiagnostics(paths []Path, prefix string) []Stat {
	out := make([]Stat, 0, len(InfoKeys)*8)
	for _, key := range InfoKeys {
		var all, final []float64
		for _, p := range paths {
			for _, info := range p.Infos {
				v, _ := info.Value(key)
				all = append(all, v)
			}
			if n := len(p.Infos); n > 0 {
				v, _ := p.Infos[n-1].Value(key)
				final = append(final, v)
			}
		}
		out = append(out, summarize(prefix+key, all)...)
		out = append(out, summarize(prefix+"Final "+key, final)...)
	}
	return out
}

func summarize(name string, xs []float64) []Stat {
	if len(xs) == 0 {
		return nil
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	return []Stat{
		{Name: name + " Mean", Value: mean},
		{Name: name + " Std", Value: std},
		{Name: name + " Max", Value: floats.Max(xs)},
		{Name: name + " Min", Value: floats.Min(xs)},
	}
}
