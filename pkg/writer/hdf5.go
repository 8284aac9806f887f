package writer

import (
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
)

// maxChunk bounds the chunk length along any axis.
const maxChunk = 32768

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("error creating file %s: %w", fname, err)
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, fmt.Errorf("error creating group %s: %w", groupName, err)
	}
	return g, nil
}

func chunksFor(dims []uint) []uint {
	chunks := make([]uint, len(dims))
	for i, d := range dims {
		chunks[i] = d
		if d > maxChunk {
			chunks[i] = maxChunk
		}
	}
	return chunks
}

// createArray creates a fixed size dataset compressed with deflate.
func createArray(group *hdf5.Group, name string, dtype *hdf5.Datatype, dims []uint, compressionLevel int) (*hdf5.Dataset, error) {
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating dataspace of %s: %w", name, err)
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, fmt.Errorf("error creating property list of %s: %w", name, err)
	}
	defer plist.Close()

	if compressionLevel > 0 {
		if err := plist.SetChunk(chunksFor(dims)); err != nil {
			return nil, fmt.Errorf("error setting chunks of %s: %w", name, err)
		}
		if err := plist.SetDeflate(compressionLevel); err != nil {
			return nil, fmt.Errorf("error setting compression of %s: %w", name, err)
		}
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, fmt.Errorf("error creating dataset %s: %w", name, err)
	}
	return dset, nil
}

func writeArray[T any](dset *hdf5.Dataset, data *[]T) error {
	if err := dset.Write(data); err != nil {
		return fmt.Errorf("error writing dataset %s: %w", dset.Name(), err)
	}
	return nil
}
