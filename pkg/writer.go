package chamber

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

const transportGroupName = "Transport"

// Writer writes one transport table into an HDF5 file.
type Writer struct {
	File              *hdf5.File
	Filename          string
	TransportGroup    *hdf5.Group
	MetadataTable     *hdf5.Dataset
	CoefficientsTable *hdf5.Dataset
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	writer := &Writer{Filename: filename}
	var err error
	writer.File, err = createFile(filename)
	if err != nil {
		return nil, err
	}
	writer.TransportGroup, err = createGroup(writer.File, transportGroupName)
	if err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	writer.MetadataTable, err = createTable(writer.TransportGroup, "metadata", TableMetadataHDF5{}, compressionLevel)
	if err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	writer.CoefficientsTable, err = createTable(writer.TransportGroup, "coefficients", CoefficientsHDF5{}, compressionLevel)
	if err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	return writer, nil
}

func (w *Writer) WriteTable(table *TransportTable) error {
	id, err := convertToHdf5String(table.ID)
	if err != nil {
		return fmt.Errorf("table id: %w", err)
	}
	gas, err := convertToHdf5String(table.Key.Gas)
	if err != nil {
		return fmt.Errorf("gas key: %w", err)
	}
	gridLog := int32(0)
	if table.Key.Grid.Log {
		gridLog = 1
	}
	metadata := TableMetadataHDF5{
		Version:     TableFormatVersion,
		TableID:     id,
		Gas:         gas,
		Temperature: table.Key.Temperature,
		Pressure:    table.Key.Pressure,
		GridCount:   int32(table.Key.Grid.Count),
		GridMin:     table.Key.Grid.Min,
		GridMax:     table.Key.Grid.Max,
		GridLog:     gridLog,
		Collisions:  int32(table.Key.Collisions),
	}
	if err := writeEntryToTable(w.MetadataTable, metadata, 0); err != nil {
		return fmt.Errorf("writing table metadata: %w", err)
	}

	rows := make([]CoefficientsHDF5, len(table.Entries))
	for i, e := range table.Entries {
		rows[i] = CoefficientsHDF5{
			Field:         e.Field,
			DriftVelocity: e.DriftVelocity,
			LnTownsend:    e.LnTownsend,
			DiffusionL:    e.DiffusionL,
			DiffusionT:    e.DiffusionT,
		}
	}
	if err := writeArrayToTable(w.CoefficientsTable, &rows, 0); err != nil {
		return fmt.Errorf("writing coefficients: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	var errs []error

	if w.CoefficientsTable != nil {
		if err := w.CoefficientsTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing coefficients table: %w", err))
		}
	}
	if w.MetadataTable != nil {
		if err := w.MetadataTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing metadata table: %w", err))
		}
	}
	if w.TransportGroup != nil {
		if err := w.TransportGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing transport group: %w", err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// WriteTransportTable persists table at path. The file is written under a
// temporary name in the same directory and renamed into place only once it is
// complete, so readers never see a partial table.
func WriteTransportTable(path string, table *TransportTable, compressionLevel int) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &ErrOpenFile{Filename: path, Err: err}
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	writer, err := NewWriter(tmpName, compressionLevel)
	if err != nil {
		return err
	}
	if err = writer.WriteTable(table); err != nil {
		return errors.Join(err, writer.Close())
	}
	if err = writer.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %q: %w", path, err)
	}
	return nil
}

// ReadTransportTable loads a table written by WriteTransportTable. When want
// is not nil the stored key must match it.
func ReadTransportTable(path string, want *TableKey) (*TransportTable, error) {
	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	defer file.Close()

	group, err := file.OpenGroup(transportGroupName)
	if err != nil {
		return nil, fmt.Errorf("table %q: opening group: %w", path, err)
	}
	defer group.Close()

	metadata, err := readTable[TableMetadataHDF5](group, "metadata")
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", path, err)
	}
	if len(metadata) != 1 {
		return nil, fmt.Errorf("table %q: expected one metadata row, found %d", path, len(metadata))
	}
	meta := metadata[0]
	if meta.Version != TableFormatVersion {
		return nil, &TableMismatchError{Path: path, Property: "format version",
			Want: fmt.Sprint(TableFormatVersion), Got: fmt.Sprint(meta.Version)}
	}
	key := TableKey{
		Gas:         convertFromHdf5String(meta.Gas),
		Temperature: meta.Temperature,
		Pressure:    meta.Pressure,
		Grid: FieldGridConfig{
			Count: int(meta.GridCount),
			Min:   meta.GridMin,
			Max:   meta.GridMax,
			Log:   meta.GridLog != 0,
		},
		Collisions: int(meta.Collisions),
	}
	if want != nil {
		if property, w, g, ok := key.Mismatch(*want); !ok {
			return nil, &TableMismatchError{Path: path, Property: property, Want: w, Got: g}
		}
	}

	rows, err := readTable[CoefficientsHDF5](group, "coefficients")
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", path, err)
	}
	if len(rows) != key.Grid.Count {
		return nil, &TableMismatchError{Path: path, Property: "entry count",
			Want: fmt.Sprint(key.Grid.Count), Got: fmt.Sprint(len(rows))}
	}
	entries := make([]TransportEntry, len(rows))
	for i, r := range rows {
		entries[i] = TransportEntry{
			Field: r.Field,
			TransportCoefficients: TransportCoefficients{
				DriftVelocity: r.DriftVelocity,
				LnTownsend:    r.LnTownsend,
				DiffusionL:    r.DiffusionL,
				DiffusionT:    r.DiffusionT,
			},
		}
	}
	return NewTransportTable(convertFromHdf5String(meta.TableID), key, entries)
}
