package ctsresults

import (
	"sort"

	"gopkg.in/guregu/null.v3"
)

// Alpha is the family-wise error rate used for the Bonferroni flag.
const Alpha = 0.05

type groupKey struct {
	annotation string
	gwas       string
}

// Annotate fills NTests, Bonferroni and QValue in place. Each (annotation,
// gwas) pair is its own family of tests. Rows without a p-value stay null and
// are not counted.
func Annotate(rows []Collected) {
	groups := make(map[groupKey][]int)
	for i, r := range rows {
		if !r.CoefficientPValue.Valid {
			continue
		}
		k := groupKey{r.Annotation, r.GWAS}
		groups[k] = append(groups[k], i)
	}

	for _, idx := range groups {
		p := make([]float64, len(idx))
		for j, i := range idx {
			p[j] = rows[i].CoefficientPValue.Float64
		}
		q := BenjaminiHochberg(p)

		n := len(idx)
		for j, i := range idx {
			rows[i].NTests = n
			rows[i].Bonferroni = p[j] < Alpha/float64(n)
			rows[i].QValue = Float{null.FloatFrom(q[j])}
		}
	}
}

// BenjaminiHochberg returns the BH-adjusted q-value for each p-value, in the
// input order.
func BenjaminiHochberg(p []float64) []float64 {
	n := len(p)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p[order[a]] < p[order[b]]
	})

	q := make([]float64, n)
	running := 1.0
	for rank := n; rank >= 1; rank-- {
		i := order[rank-1]
		v := p[i] * float64(n) / float64(rank)
		if v < running {
			running = v
		}
		q[i] = running
	}

	return q
}

// Significant returns the rows whose q-value is below fdr, sorted by p-value.
func Significant(rows []Collected, fdr float64) []Collected {
	out := make([]Collected, 0)
	for _, r := range rows {
		if r.QValue.Valid && r.QValue.Float64 < fdr {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CoefficientPValue.Float64 < out[j].CoefficientPValue.Float64
	})

	return out
}
