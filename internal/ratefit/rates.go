// Package ratefit evaluates the temperature- and pressure-dependent
// rate constant expressions used by reaction mechanism fitting:
// modified Arrhenius, Lindemann and Troe falloff, PLOG tables and
// Chebyshev expansions.
package ratefit

import (
	"fmt"
	"math"
	"sort"
)

const (
	// RcCal is the gas constant in cal/(mol K), used in the Arrhenius
	// exponential.
	RcCal = 1.98720425864083

	// RcAtm is the gas constant in cm^3 atm/(mol K), used to convert a
	// pressure to a bath gas concentration.
	RcAtm = 82.0573660809596

	// tRef is the reference temperature for the (T/Tref)^n factor.
	tRef = 1.0
)

// ArrheniusParams holds modified Arrhenius parameters on a molar basis:
// pre-exponential A, temperature exponent n and activation energy Ea in
// cal/mol.
type ArrheniusParams struct {
	A  float64 `yaml:"a"`
	N  float64 `yaml:"n"`
	Ea float64 `yaml:"ea"`
}

// Eval computes k(T) = A (T/Tref)^n exp(-Ea/(R T)) over the grid.
func (p ArrheniusParams) Eval(temps []float64) []float64 {
	kts := make([]float64, len(temps))
	for i, t := range temps {
		kts[i] = p.A * math.Pow(t/tRef, p.N) * math.Exp(-p.Ea/(RcCal*t))
	}
	return kts
}

// KTP is a table of rate constants over a shared temperature grid,
// keyed by pressure. High, when set, carries the high-pressure-limit
// k(T)s, which PLOG expressions do not define.
type KTP struct {
	Temps []float64
	Ks    map[float64][]float64
	High  []float64
}

// Pressures returns the table's pressures in ascending order.
func (k KTP) Pressures() []float64 {
	ps := make([]float64, 0, len(k.Ks))
	for p := range k.Ks {
		ps = append(ps, p)
	}
	sort.Float64s(ps)
	return ps
}

// Lindemann computes falloff rate constants from high- and low-pressure
// Arrhenius parameters: k = k_inf * Pr/(1+Pr).
func Lindemann(high, low ArrheniusParams, temps, pressures []float64, collidFactor float64) KTP {
	highKts := high.Eval(temps)
	lowKts := low.Eval(temps)

	table := KTP{Temps: temps, Ks: make(map[float64][]float64, len(pressures)), High: highKts}
	for _, pressure := range pressures {
		kts := make([]float64, len(temps))
		for i := range temps {
			pr := prTerm(highKts[i], lowKts[i], temps[i], pressure, collidFactor)
			kts[i] = highKts[i] * (pr / (1.0 + pr))
		}
		table.Ks[pressure] = kts
	}
	return table
}

// TroeParams holds the Troe broadening parameters. T2 is commonly
// omitted, hence the pointer.
type TroeParams struct {
	Alpha float64  `yaml:"alpha"`
	T3    float64  `yaml:"t3"`
	T1    float64  `yaml:"t1"`
	T2    *float64 `yaml:"t2"`
}

// Troe computes falloff rate constants with the Troe F broadening term:
// k = k_inf * Pr/(1+Pr) * F.
func Troe(high, low ArrheniusParams, tp TroeParams, temps, pressures []float64, collidFactor float64) KTP {
	highKts := high.Eval(temps)
	lowKts := low.Eval(temps)

	table := KTP{Temps: temps, Ks: make(map[float64][]float64, len(pressures)), High: highKts}
	for _, pressure := range pressures {
		kts := make([]float64, len(temps))
		for i, temp := range temps {
			pr := prTerm(highKts[i], lowKts[i], temp, pressure, collidFactor)
			f := broadening(pr, tp, temp)
			kts[i] = highKts[i] * (pr / (1.0 + pr)) * f
		}
		table.Ks[pressure] = kts
	}
	return table
}

// PLOG evaluates a pressure-dependent Arrhenius table. Requested
// pressures between two tabulated ones interpolate log k linearly in
// log P; pressures outside the tabulated range get no row. There is no
// high-pressure limit for PLOG.
func PLOG(entries map[float64]ArrheniusParams, temps, pressures []float64) KTP {
	tabulated := make([]float64, 0, len(entries))
	for p := range entries {
		tabulated = append(tabulated, p)
	}
	sort.Float64s(tabulated)

	table := KTP{Temps: temps, Ks: make(map[float64][]float64)}
	if len(tabulated) == 0 {
		return table
	}

	for _, pressure := range pressures {
		if pressure < tabulated[0] || pressure > tabulated[len(tabulated)-1] {
			continue
		}
		table.Ks[pressure] = plogOnePressure(entries, tabulated, temps, pressure)
	}
	return table
}

func plogOnePressure(entries map[float64]ArrheniusParams, tabulated, temps []float64, pressure float64) []float64 {
	// Reuse tabulated parameters outright when the pressure (nearly)
	// matches one; keeps the evaluation numerically stable.
	for _, tp := range tabulated {
		if math.Abs(pressure-tp) <= 1.0e-3 {
			return entries[tp].Eval(temps)
		}
	}

	var plow, phigh float64
	for i := 0; i < len(tabulated)-1; i++ {
		if tabulated[i] < pressure && pressure < tabulated[i+1] {
			plow, phigh = tabulated[i], tabulated[i+1]
			break
		}
	}

	presTerm := (math.Log10(pressure) - math.Log10(plow)) /
		(math.Log10(phigh) - math.Log10(plow))

	ktLow := entries[plow].Eval(temps)
	ktHigh := entries[phigh].Eval(temps)

	kts := make([]float64, len(temps))
	for i := range temps {
		logkt := math.Log10(ktLow[i]) +
			(math.Log10(ktHigh[i])-math.Log10(ktLow[i]))*presTerm
		kts[i] = math.Pow(10, logkt)
	}
	return kts
}

// ChebyshevParams holds a Chebyshev coefficient matrix and the
// temperature/pressure window it is defined over.
type ChebyshevParams struct {
	Alpha [][]float64 `yaml:"alpha"`
	TMin  float64     `yaml:"tmin"`
	TMax  float64     `yaml:"tmax"`
	PMin  float64     `yaml:"pmin"`
	PMax  float64     `yaml:"pmax"`
}

// Chebyshev evaluates log10 k as a double Chebyshev expansion over the
// mapped inverse temperature and log pressure coordinates.
func Chebyshev(cp ChebyshevParams, temps, pressures []float64) KTP {
	table := KTP{Temps: temps, Ks: make(map[float64][]float64, len(pressures))}
	for _, pressure := range pressures {
		kts := make([]float64, len(temps))
		cpress := (2.0*math.Log10(pressure) - math.Log10(cp.PMin) - math.Log10(cp.PMax)) /
			(math.Log10(cp.PMax) - math.Log10(cp.PMin))

		for i, temp := range temps {
			ctemp := (2.0/temp - 1.0/cp.TMin - 1.0/cp.TMax) /
				(1.0/cp.TMax - 1.0/cp.TMin)

			logk := 0.0
			for j := range cp.Alpha {
				for m := range cp.Alpha[j] {
					logk += cp.Alpha[j][m] * chebyT(j, ctemp) * chebyT(m, cpress)
				}
			}
			kts[i] = math.Pow(10, logk)
		}
		table.Ks[pressure] = kts
	}
	return table
}

// chebyT evaluates the Chebyshev polynomial of the first kind T_n(x)
// by the three-term recurrence.
func chebyT(n int, x float64) float64 {
	switch n {
	case 0:
		return 1.0
	case 1:
		return x
	}
	prev, cur := 1.0, x
	for i := 2; i <= n; i++ {
		prev, cur = cur, 2.0*x*cur-prev
	}
	return cur
}

// prTerm is the reduced pressure Pr = (k0/kinf) [M] F_collid with the
// bath gas concentration from the ideal gas form [M] = P/(R T).
func prTerm(highKt, lowKt, temp, pressure, collidFactor float64) float64 {
	return (lowKt / highKt) * pToM(pressure, temp) * collidFactor
}

// pToM converts a pressure in atm to a concentration in mol/cm^3.
func pToM(pressure, temp float64) float64 {
	return pressure / (RcAtm * temp)
}

// broadening is the Troe F term at one temperature and reduced pressure.
func broadening(pr float64, tp TroeParams, temp float64) float64 {
	fCent := (1.0-tp.Alpha)*math.Exp(-temp/tp.T3) +
		tp.Alpha*math.Exp(-temp/tp.T1)
	if tp.T2 != nil {
		fCent += math.Exp(-*tp.T2 / temp)
	}

	cVal := -0.4 - 0.67*math.Log10(fCent)
	nVal := 0.75 - 1.27*math.Log10(fCent)
	const dVal = 0.14

	val := (math.Log10(pr) + cVal) / (nVal - dVal*(math.Log10(pr)+cVal))
	logf := math.Log10(fCent) / (1.0 + val*val)

	return math.Pow(10, logf)
}

// CheckPT enforces the grid rules: both arrays non-empty, temperatures
// and pressures strictly positive.
func CheckPT(pressures, temps []float64) error {
	if len(temps) == 0 {
		return fmt.Errorf("no temperatures given")
	}
	if len(pressures) == 0 {
		return fmt.Errorf("no pressures given")
	}
	for _, t := range temps {
		if t <= 0 {
			return fmt.Errorf("temperature %g is not positive", t)
		}
	}
	for _, p := range pressures {
		if p <= 0 {
			return fmt.Errorf("pressure %g is not positive", p)
		}
	}
	return nil
}
