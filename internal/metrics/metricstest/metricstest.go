// Package metricstest reads collector values back out of a registry.
package metricstest

import "github.com/prometheus/client_golang/prometheus"

// CounterValue returns the value of the counter series name whose labels
// include the given name/value pairs, or 0 when there is none.
func CounterValue(g prometheus.Gatherer, name string, labelPairs ...string) float64 {
	mfs, err := g.Gather()
	if err != nil {
		return 0
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, s := range mf.GetMetric() {
			for i := 0; i+1 < len(labelPairs); i += 2 {
				found := false
				for _, lp := range s.GetLabel() {
					if lp.GetName() == labelPairs[i] && lp.GetValue() == labelPairs[i+1] {
						found = true
						break
					}
				}
				if !found {
					continue series
				}
			}
			return s.GetCounter().GetValue()
		}
	}
	return 0
}
