package chamber

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

const TableFormatVersion = 1

const STRLEN = 64

type TableMetadataHDF5 struct {
	Version     int32        `hdf5:"version"`
	TableID     [STRLEN]byte `hdf5:"tableID"`
	Gas         [STRLEN]byte `hdf5:"gas"`
	Temperature float64      `hdf5:"temperature"`
	Pressure    float64      `hdf5:"pressure"`
	GridCount   int32        `hdf5:"gridCount"`
	GridMin     float64      `hdf5:"gridMin"`
	GridMax     float64      `hdf5:"gridMax"`
	GridLog     int32        `hdf5:"gridLog"`
	Collisions  int32        `hdf5:"collisions"`
}

type CoefficientsHDF5 struct {
	Field         float64 `hdf5:"field"`
	DriftVelocity float64 `hdf5:"driftVelocity"`
	LnTownsend    float64 `hdf5:"lnTownsend"`
	DiffusionL    float64 `hdf5:"diffusionL"`
	DiffusionT    float64 `hdf5:"diffusionT"`
}

func convertToHdf5String(s string) ([STRLEN]byte, error) {
	var byteArray [STRLEN]byte
	if len(s) > STRLEN {
		return byteArray, fmt.Errorf("string %q longer than %d bytes", s, STRLEN)
	}
	copy(byteArray[:], s)
	return byteArray, nil
}

func convertFromHdf5String(b [STRLEN]byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func createFile(fname string) (*hdf5.File, error) {
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

func createTable(group *hdf5.Group, name string, datatype interface{}, compressionLevel int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	chunks := []uint{1024}
	plist.SetChunk(chunks)
	if compressionLevel > 0 {
		plist.SetDeflate(compressionLevel)
	}

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer dtype.Close()

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, offset int) error {
	length := uint(len(*data))
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("creating memory dataspace: %w", err)
	}
	defer dataspace.Close()

	// extend
	rowsInFile := uint(offset)
	newsize := []uint{rowsInFile + length}
	dataset.Resize(newsize)
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{rowsInFile}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return fmt.Errorf("selecting hyperslab: %w", err)
	}

	if err := dataset.WriteSubset(data, dataspace, filespace); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, offset int) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array, offset)
}

func readTable[T any](group *hdf5.Group, name string) ([]T, error) {
	dset, err := group.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %q: %w", name, err)
	}
	defer dset.Close()

	space := dset.Space()
	n := space.SimpleExtentNPoints()
	space.Close()

	rows := make([]T, n)
	if n == 0 {
		return rows, nil
	}
	if err := dset.Read(&rows); err != nil {
		return nil, fmt.Errorf("reading dataset %q: %w", name, err)
	}
	return rows, nil
}
