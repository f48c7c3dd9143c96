package ratefit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReactionParams bundles the fitted parameters for one reaction. Which
// expression applies follows from what is present, most specific first:
// Chebyshev, then PLOG, then Troe, then Lindemann, then plain
// high-pressure Arrhenius.
type ReactionParams struct {
	Reaction     string           `yaml:"reaction"`
	High         *ArrheniusParams `yaml:"high"`
	Low          *ArrheniusParams `yaml:"low"`
	Troe         *TroeParams      `yaml:"troe"`
	PLOG         []PlogEntry      `yaml:"plog"`
	Chebyshev    *ChebyshevParams `yaml:"chebyshev"`
	CollidFactor float64          `yaml:"collid_factor"`
}

// PlogEntry is one tabulated Arrhenius fit at a fixed pressure.
type PlogEntry struct {
	Pressure float64 `yaml:"pressure"`
	A        float64 `yaml:"a"`
	N        float64 `yaml:"n"`
	Ea       float64 `yaml:"ea"`
}

// Eval computes the k(T,P) table for this reaction over the grid.
func (rp *ReactionParams) Eval(temps, pressures []float64) (KTP, error) {
	if err := CheckPT(pressures, temps); err != nil {
		return KTP{}, err
	}

	collid := rp.CollidFactor
	if collid == 0 {
		collid = 1.0
	}

	switch {
	case rp.Chebyshev != nil:
		if len(rp.Chebyshev.Alpha) == 0 {
			return KTP{}, fmt.Errorf("reaction %q: chebyshev has no coefficients", rp.Reaction)
		}
		return Chebyshev(*rp.Chebyshev, temps, pressures), nil

	case len(rp.PLOG) > 0:
		entries := make(map[float64]ArrheniusParams, len(rp.PLOG))
		for _, e := range rp.PLOG {
			entries[e.Pressure] = ArrheniusParams{A: e.A, N: e.N, Ea: e.Ea}
		}
		return PLOG(entries, temps, pressures), nil

	case rp.Troe != nil:
		if rp.High == nil || rp.Low == nil {
			return KTP{}, fmt.Errorf("reaction %q: troe needs both high and low Arrhenius parameters", rp.Reaction)
		}
		return Troe(*rp.High, *rp.Low, *rp.Troe, temps, pressures, collid), nil

	case rp.Low != nil:
		if rp.High == nil {
			return KTP{}, fmt.Errorf("reaction %q: low-pressure parameters need high-pressure ones", rp.Reaction)
		}
		return Lindemann(*rp.High, *rp.Low, temps, pressures, collid), nil

	case rp.High != nil:
		return KTP{Temps: temps, Ks: map[float64][]float64{}, High: rp.High.Eval(temps)}, nil
	}

	return KTP{}, fmt.Errorf("reaction %q has no rate parameters", rp.Reaction)
}

// Input is a rate evaluation request: a T,P grid and the reactions to
// evaluate on it.
type Input struct {
	Temps     []float64        `yaml:"temps"`
	Pressures []float64        `yaml:"pressures"`
	Reactions []ReactionParams `yaml:"reactions"`
}

// LoadInput reads an evaluation request from a YAML file.
func LoadInput(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate input: %w", err)
	}
	var in Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse rate input: %w", err)
	}
	return &in, nil
}

// Eval evaluates every reaction on the input grid. Entries sharing a
// reaction name contribute additively, duplicate expressions being how
// mechanism files encode a sum of channels.
func (in *Input) Eval() (map[string]KTP, error) {
	if err := CheckPT(in.Pressures, in.Temps); err != nil {
		return nil, err
	}

	out := make(map[string]KTP, len(in.Reactions))
	for i := range in.Reactions {
		rp := &in.Reactions[i]
		table, err := rp.Eval(in.Temps, in.Pressures)
		if err != nil {
			return nil, err
		}
		if prev, ok := out[rp.Reaction]; ok {
			table = addKTP(prev, table)
		}
		out[rp.Reaction] = table
	}
	return out, nil
}

// addKTP sums two tables over the union of their pressures; a pressure
// missing from one table contributes zero there.
func addKTP(a, b KTP) KTP {
	sum := KTP{Temps: a.Temps, Ks: make(map[float64][]float64)}
	for p, kts := range a.Ks {
		sum.Ks[p] = append([]float64(nil), kts...)
	}
	for p, kts := range b.Ks {
		if existing, ok := sum.Ks[p]; ok {
			for i := range existing {
				existing[i] += kts[i]
			}
		} else {
			sum.Ks[p] = append([]float64(nil), kts...)
		}
	}

	switch {
	case a.High != nil && b.High != nil:
		sum.High = make([]float64, len(a.High))
		for i := range a.High {
			sum.High[i] = a.High[i] + b.High[i]
		}
	case a.High != nil:
		sum.High = append([]float64(nil), a.High...)
	case b.High != nil:
		sum.High = append([]float64(nil), b.High...)
	}
	return sum
}
