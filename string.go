package bsi

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// String renders the index as a right-aligned key/value table.
func (s *storage[K]) String() string {
	var o bytes.Buffer
	fmt.Fprintf(&o, "bsi depth=%d min=%d max=%d card=%d\n",
		len(s.slices), s.minValue, s.maxValue, s.existence.Cardinality())

	w := tabwriter.NewWriter(&o, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "key\tvalue\t\n")
	s.forEachValue(s.existence, func(k K, v uint64) {
		fmt.Fprintf(w, "%d\t%d\t\n", k, v)
	})
	_ = w.Flush()
	return o.String()
}
