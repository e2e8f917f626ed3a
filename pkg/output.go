package chamber

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// EventRecord is one row of events.csv.
type EventRecord struct {
	EventID       int     `csv:"event"`
	Clusters      int     `csv:"clusters"`
	Electrons     int     `csv:"electrons"`
	Drifted       int     `csv:"drifted"`
	Skipped       int     `csv:"skipped"`
	Collected     int     `csv:"collected"`
	Lost          int     `csv:"lost"`
	Diverged      int     `csv:"diverged"`
	OutOfRange    int     `csv:"out_of_range"`
	Deposits      int     `csv:"deposits"`
	OutsideWindow int     `csv:"outside_window"`
	Crossed       bool    `csv:"crossed"`
	CrossingBin   int     `csv:"crossing_bin"`
	CrossingTime  float64 `csv:"crossing_time"`
	PeakTime      float64 `csv:"peak_time"`
	PeakValue     float64 `csv:"peak_value"`
	Error         string  `csv:"error"`
}

// ElectronRecord is one row of electrons.csv.
type ElectronRecord struct {
	EventID     int     `csv:"event"`
	Index       int     `csv:"electron"`
	X0          float64 `csv:"x0"`
	Y0          float64 `csv:"y0"`
	Z0          float64 `csv:"z0"`
	T0          float64 `csv:"t0"`
	Status      string  `csv:"status"`
	X           float64 `csv:"x"`
	Y           float64 `csv:"y"`
	Z           float64 `csv:"z"`
	ArrivalTime float64 `csv:"arrival_time"`
	Gain        float64 `csv:"gain"`
	Steps       int     `csv:"steps"`
	PathLength  float64 `csv:"path_length"`
}

// SignalRecord is one bin of signal_<event>.csv.
type SignalRecord struct {
	Bin       int     `csv:"bin"`
	Time      float64 `csv:"time"`
	Raw       float64 `csv:"raw"`
	Convolved float64 `csv:"convolved"`
}

// TableRecord is one row of a transport table CSV dump.
type TableRecord struct {
	Field         float64 `csv:"field"`
	DriftVelocity float64 `csv:"drift_velocity"`
	Townsend      float64 `csv:"townsend"`
	LnTownsend    float64 `csv:"ln_townsend"`
	DiffusionL    float64 `csv:"diffusion_l"`
	DiffusionT    float64 `csv:"diffusion_t"`
}

func NewEventRecord(event *EventType) EventRecord {
	r := EventRecord{
		EventID:       event.EventID,
		Clusters:      len(event.Clusters),
		Electrons:     event.Electrons,
		Drifted:       event.Summary.Drifted,
		Skipped:       event.Summary.Skipped,
		Collected:     event.Summary.Collected,
		Lost:          event.Summary.Lost,
		Diverged:      event.Summary.Diverged,
		OutOfRange:    event.Summary.OutOfRange,
		Deposits:      event.Deposits,
		OutsideWindow: event.OutsideWindow,
		Crossed:       event.Crossing.Found,
		CrossingBin:   -1,
	}
	if event.Crossing.Found {
		r.CrossingBin = event.Crossing.Bin
		r.CrossingTime = event.Crossing.Time
	}
	if event.Signal != nil {
		bin, value := event.Signal.Peak()
		r.PeakTime, r.PeakValue = event.Signal.BinTime(bin), value
	}
	if event.Err != nil {
		r.Error = event.Err.Error()
	}
	return r
}

func NewTableRecords(table *TransportTable) []TableRecord {
	records := make([]TableRecord, len(table.Entries))
	for i, e := range table.Entries {
		records[i] = TableRecord{
			Field:         e.Field,
			DriftVelocity: e.DriftVelocity,
			Townsend:      e.Townsend(),
			LnTownsend:    e.LnTownsend,
			DiffusionL:    e.DiffusionL,
			DiffusionT:    e.DiffusionT,
		}
	}
	return records
}

// WriteTableCSV dumps a transport table as CSV.
func WriteTableCSV(path string, table *TransportTable) error {
	f, err := os.Create(path)
	if err != nil {
		return &ErrOpenFile{Filename: path, Err: err}
	}
	records := NewTableRecords(table)
	if err := gocsv.MarshalFile(&records, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// WriteYAML writes v to path as YAML.
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// OutputManager writes simulation results into a directory: events.csv,
// electrons.csv, one signal_<event>.csv per event and config.yaml. A nil
// manager discards everything.
type OutputManager struct {
	dir           string
	eventsFile    *os.File
	electronsFile *os.File

	eventsHeaderWritten    bool
	electronsHeaderWritten bool
	closed                 bool
}

// NewOutputManager returns nil when dir is empty.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	om := &OutputManager{dir: dir}

	eventsPath := filepath.Join(dir, "events.csv")
	f, err := os.Create(eventsPath)
	if err != nil {
		return nil, &ErrOpenFile{Filename: eventsPath, Err: err}
	}
	om.eventsFile = f

	electronsPath := filepath.Join(dir, "electrons.csv")
	f, err = os.Create(electronsPath)
	if err != nil {
		om.eventsFile.Close()
		return nil, &ErrOpenFile{Filename: electronsPath, Err: err}
	}
	om.electronsFile = f
	return om, nil
}

func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

func (om *OutputManager) WriteConfig(cfg SimulationConfig) error {
	if om == nil {
		return nil
	}
	return WriteYAML(filepath.Join(om.dir, "config.yaml"), cfg)
}

// WriteEvent appends the event summary and its electrons and writes the
// event's signal file.
func (om *OutputManager) WriteEvent(event *EventType) error {
	if om == nil {
		return nil
	}
	if err := om.writeEventRecord(NewEventRecord(event)); err != nil {
		return err
	}
	if err := om.writeElectrons(event); err != nil {
		return err
	}
	if event.Signal == nil {
		return nil
	}
	return om.writeSignal(event)
}

func (om *OutputManager) writeEventRecord(record EventRecord) error {
	records := []EventRecord{record}
	if !om.eventsHeaderWritten {
		if err := gocsv.Marshal(records, om.eventsFile); err != nil {
			return fmt.Errorf("writing events: %w", err)
		}
		om.eventsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.eventsFile); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

func (om *OutputManager) writeElectrons(event *EventType) error {
	if len(event.Results) == 0 {
		return nil
	}
	records := make([]ElectronRecord, len(event.Results))
	for i, r := range event.Results {
		records[i] = ElectronRecord{
			EventID:     event.EventID,
			Index:       r.Index,
			X0:          r.Start.X,
			Y0:          r.Start.Y,
			Z0:          r.Start.Z,
			T0:          r.Start.T,
			Status:      r.Status.String(),
			X:           r.Arrival.X,
			Y:           r.Arrival.Y,
			Z:           r.Arrival.Z,
			ArrivalTime: r.ArrivalTime,
			Gain:        r.Gain,
			Steps:       r.Steps,
			PathLength:  r.PathLength,
		}
	}
	if !om.electronsHeaderWritten {
		if err := gocsv.Marshal(records, om.electronsFile); err != nil {
			return fmt.Errorf("writing electrons: %w", err)
		}
		om.electronsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.electronsFile); err != nil {
		return fmt.Errorf("writing electrons: %w", err)
	}
	return nil
}

func (om *OutputManager) writeSignal(event *EventType) error {
	records := make([]SignalRecord, len(event.Signal.Values))
	for i, v := range event.Signal.Values {
		records[i] = SignalRecord{Bin: i, Time: event.Signal.BinTime(i), Convolved: v}
		if i < len(event.Raw) {
			records[i].Raw = event.Raw[i]
		}
	}
	path := filepath.Join(om.dir, fmt.Sprintf("signal_%d.csv", event.EventID))
	f, err := os.Create(path)
	if err != nil {
		return &ErrOpenFile{Filename: path, Err: err}
	}
	if err := gocsv.MarshalFile(&records, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Close closes the CSV files. Only the first call does anything.
func (om *OutputManager) Close() error {
	if om == nil || om.closed {
		return nil
	}
	om.closed = true
	return errors.Join(om.eventsFile.Close(), om.electronsFile.Close())
}
