package population

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ConditionTime is one entry of the compound condition-time axis.
type ConditionTime struct {
	ConditionID int
	Time        float64
}

// DataSet is a set of 2-D data planes sharing two labeled axes: population
// members (rows) and condition-time (columns).
type DataSet struct {
	MemberName string
	Members    []int
	Index      []ConditionTime

	names []string
	vars  map[string]*mat.Dense
}

// Names returns the attribute names in construction order.
func (d *DataSet) Names() []string {
	return append([]string(nil), d.names...)
}

// Var returns the data plane of an attribute. The plane is live: changes
// to it change the data set.
func (d *DataSet) Var(name string) (*mat.Dense, bool) {
	v, ok := d.vars[name]
	return v, ok
}

// Row returns a copy of the values of one member for an attribute.
func (d *DataSet) Row(name string, member int) ([]float64, bool) {
	v, ok := d.vars[name]
	if !ok {
		return nil, false
	}
	for i, m := range d.Members {
		if m == member {
			return mat.Row(nil, i, v), true
		}
	}
	return nil, false
}

// Conditions returns the distinct condition ids in axis order.
func (d *DataSet) Conditions() []int {
	ids := make([]int, 0)
	for i, ct := range d.Index {
		if i == 0 || d.Index[i-1].ConditionID != ct.ConditionID {
			ids = append(ids, ct.ConditionID)
		}
	}
	return ids
}

// Copy returns a deep copy of the data set.
func (d *DataSet) Copy() *DataSet {
	out := &DataSet{
		MemberName: d.MemberName,
		Members:    append([]int(nil), d.Members...),
		Index:      append([]ConditionTime(nil), d.Index...),
		names:      append([]string(nil), d.names...),
		vars:       make(map[string]*mat.Dense, len(d.vars)),
	}
	for name, v := range d.vars {
		out.vars[name] = mat.DenseCopyOf(v)
	}
	return out
}

// selectColumns returns a data set restricted to the given columns, in the
// given order.
func (d *DataSet) selectColumns(columns []int) *DataSet {
	out := &DataSet{
		MemberName: d.MemberName,
		Members:    append([]int(nil), d.Members...),
		Index:      make([]ConditionTime, len(columns)),
		names:      append([]string(nil), d.names...),
		vars:       make(map[string]*mat.Dense, len(d.vars)),
	}
	for j, c := range columns {
		out.Index[j] = d.Index[c]
	}
	for name, v := range d.vars {
		rows, _ := v.Dims()
		plane := mat.NewDense(rows, len(columns), nil)
		for j, c := range columns {
			for i := 0; i < rows; i++ {
				plane.Set(i, j, v.At(i, c))
			}
		}
		out.vars[name] = plane
	}
	return out
}

// finiteRow returns the non-missing values of row i.
func finiteRow(v *mat.Dense, i int) []float64 {
	row := mat.Row(nil, i, v)
	values := row[:0]
	for _, x := range row {
		if !math.IsNaN(x) {
			values = append(values, x)
		}
	}
	return values
}

// rowMeans returns the mean of every row, ignoring missing (NaN) entries.
func rowMeans(v *mat.Dense) []float64 {
	rows, _ := v.Dims()
	means := make([]float64, rows)
	for i := range means {
		values := finiteRow(v, i)
		if len(values) == 0 {
			means[i] = math.NaN()
			continue
		}
		means[i] = stat.Mean(values, nil)
	}
	return means
}

// rowRanges returns the peak-to-peak range of every row, ignoring missing
// (NaN) entries.
func rowRanges(v *mat.Dense) []float64 {
	rows, _ := v.Dims()
	ranges := make([]float64, rows)
	for i := range ranges {
		values := finiteRow(v, i)
		if len(values) == 0 {
			ranges[i] = math.NaN()
			continue
		}
		ranges[i] = floats.Max(values) - floats.Min(values)
	}
	return ranges
}
