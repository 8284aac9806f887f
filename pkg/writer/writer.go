// Package writer stores population data sets in HDF5 files.
package writer

import (
	"errors"
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
	"gonum.org/v1/gonum/mat"

	"github.com/churchlandlab/pacman_brain_go/pkg/population"
)

const (
	GroupName         = "population"
	ConditionDataset  = "condition_id"
	TimeDataset       = "time"
	defaultMemberName = "member"
)

// Writer lays a data set out in one group: a member id vector, the
// condition id and time vectors of the condition-time axis, and one
// members x condition-time matrix per attribute.
type Writer struct {
	File             *hdf5.File
	Filename         string
	Group            *hdf5.Group
	CompressionLevel int
	datasets         []*hdf5.Dataset
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	file, err := openFile(filename)
	if err != nil {
		return nil, err
	}
	group, err := createGroup(file, GroupName)
	if err != nil {
		return nil, errors.Join(err, file.Close())
	}
	return &Writer{
		File:             file,
		Filename:         filename,
		Group:            group,
		CompressionLevel: compressionLevel,
	}, nil
}

// MemberDataset is the name of the member id vector of a data set.
func MemberDataset(data *population.DataSet) string {
	if data.MemberName == "" {
		return defaultMemberName
	}
	return data.MemberName
}

func (w *Writer) WriteDataSet(data *population.DataSet) error {
	members := make([]int64, len(data.Members))
	for i, m := range data.Members {
		members[i] = int64(m)
	}
	conditions := make([]int64, len(data.Index))
	times := make([]float64, len(data.Index))
	for i, ct := range data.Index {
		conditions[i] = int64(ct.ConditionID)
		times[i] = ct.Time
	}
	if len(members) == 0 || len(times) == 0 {
		return fmt.Errorf("cannot write an empty data set to %s", w.Filename)
	}

	if err := writeVector(w, MemberDataset(data), hdf5.T_NATIVE_INT64, members); err != nil {
		return err
	}
	if err := writeVector(w, ConditionDataset, hdf5.T_NATIVE_INT64, conditions); err != nil {
		return err
	}
	if err := writeVector(w, TimeDataset, hdf5.T_NATIVE_DOUBLE, times); err != nil {
		return err
	}

	for _, name := range data.Names() {
		plane, _ := data.Var(name)
		rows, cols := plane.Dims()
		// Copy so that the backing slice is contiguous with stride cols.
		values := mat.DenseCopyOf(plane).RawMatrix().Data
		dset, err := createArray(w.Group, name, hdf5.T_NATIVE_DOUBLE, []uint{uint(rows), uint(cols)}, w.CompressionLevel)
		if err != nil {
			return err
		}
		w.datasets = append(w.datasets, dset)
		if err := writeArray(dset, &values); err != nil {
			return err
		}
	}
	return nil
}

func writeVector[T any](w *Writer, name string, dtype *hdf5.Datatype, values []T) error {
	dset, err := createArray(w.Group, name, dtype, []uint{uint(len(values))}, w.CompressionLevel)
	if err != nil {
		return err
	}
	w.datasets = append(w.datasets, dset)
	return writeArray(dset, &values)
}

func (w *Writer) Close() error {
	var errs []error
	for _, dset := range w.datasets {
		if err := dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing dataset: %w", err))
		}
	}
	if err := w.Group.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing population group: %w", err))
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
