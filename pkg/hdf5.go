package decoder

import (
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
)

type EventDataHDF5 struct {
	evt_number   uint64
	spill        uint64
	window_start int64
	window_end   int64
	n_hits       int32
}

type HitHDF5 struct {
	evt_number  uint64
	module      int32
	channel     int32
	energy      uint32
	time        uint64
	cfd         uint32
	flags       uint8
	trace_index int64
	qdc         [NumQdcSums]uint32
}

type RunInfoHDF5 struct {
	run_number  int32
	event_width uint64
	event_delay uint64
	mode        [STRLEN]byte
}

type ChannelMapHDF5 struct {
	module   int32
	channel  int32
	detType  [STRLEN]byte
	subtype  [STRLEN]byte
	location int32
}

const STRLEN = 20

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func datasetCreateProps(chunks []uint, compression int) (*hdf5.PropList, error) {
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, err
	}
	if compression > 0 {
		if err := plist.SetDeflate(compression); err != nil {
			return nil, err
		}
	}
	return plist, nil
}

// createTracesArray creates an extendable (n, nSamples) array of samples.
func createTracesArray(group *hdf5.Group, name string, nSamples int, compression int) (*hdf5.Dataset, error) {
	dims := []uint{0, uint(nSamples)}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims), uint(nSamples)}
	chunks := []uint{64, uint(nSamples)}

	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	plist, err := datasetCreateProps(chunks, compression)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	dset, err := group.CreateDatasetWith(name, hdf5.T_NATIVE_UINT16, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	plist, err := datasetCreateProps([]uint{32768}, compression)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	// create the memory data type
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, rowsInFile int) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array, rowsInFile)
}

// writeArrayToTable appends data after the first rowsInFile rows.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, rowsInFile int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("error creating memory dataspace: %w", err)
	}
	defer dataspace.Close()

	offset := uint(rowsInFile)
	if err := dataset.Resize([]uint{offset + length}); err != nil {
		return fmt.Errorf("error extending table: %w", err)
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{offset}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return fmt.Errorf("error selecting hyperslab: %w", err)
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

// writeTraces appends len(data)/nSamples rows after the first rowsInFile.
func writeTraces(dataset *hdf5.Dataset, data *[]uint16, rowsInFile int, nSamples int) error {
	nRows := uint(len(*data) / nSamples)
	if nRows == 0 {
		return nil
	}
	newsize := []uint{uint(rowsInFile) + nRows, uint(nSamples)}
	if err := dataset.Resize(newsize); err != nil {
		return fmt.Errorf("error extending traces: %w", err)
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{uint(rowsInFile), 0}
	count := []uint{nRows, uint(nSamples)}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return fmt.Errorf("error selecting hyperslab: %w", err)
	}

	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return fmt.Errorf("error creating memory dataspace: %w", err)
	}
	defer dataspace.Close()

	return dataset.WriteSubset(data, dataspace, filespace)
}
