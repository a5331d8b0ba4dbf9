package decoder

import (
	"cmp"
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	"golang.org/x/exp/slices"
)

type WriterOptions struct {
	RunNumber        int
	Window           EventWindow
	WriteTraces      bool
	TraceSamples     int
	CompressionLevel int
}

// Writer stores raw events in an HDF5 file. It implements Consumer.
type Writer struct {
	File            *hdf5.File
	Filename        string
	options         WriterOptions
	RunGroup        *hdf5.Group
	RDGroup         *hdf5.Group
	SensorsGroup    *hdf5.Group
	EventTable      *hdf5.Dataset
	RunInfoTable    *hdf5.Dataset
	HitTable        *hdf5.Dataset
	TraceArray      *hdf5.Dataset
	ChannelMapTable *hdf5.Dataset
	EvtCounter      int
	HitCounter      int
	TraceCounter    int
	// First write error, later events are skipped
	err error
}

func NewWriter(filename string, options WriterOptions) (*Writer, error) {
	if options.TraceSamples <= 0 {
		options.TraceSamples = 1
	}
	writer := &Writer{Filename: filename, options: options}

	logger.Info(fmt.Sprintf("Creating file: %s", filename), "hdf5writer")
	var err error
	if writer.File, err = openFile(filename); err != nil {
		return nil, err
	}
	if err := writer.createLayout(); err != nil {
		closeErr := writer.Close()
		return nil, errors.Join(err, closeErr)
	}

	runInfo := RunInfoHDF5{
		run_number:  int32(options.RunNumber),
		event_width: options.Window.Width,
		event_delay: options.Window.Delay,
		mode:        convertToHdf5String(options.Window.Mode.String()),
	}
	if err := writeEntryToTable(writer.RunInfoTable, runInfo, 0); err != nil {
		closeErr := writer.Close()
		return nil, errors.Join(fmt.Errorf("error writing run info: %w", err), closeErr)
	}
	return writer, nil
}

func (w *Writer) createLayout() error {
	var err error
	compression := w.options.CompressionLevel
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return err
	}
	if w.RDGroup, err = createGroup(w.File, "RD"); err != nil {
		return err
	}
	if w.SensorsGroup, err = createGroup(w.File, "Sensors"); err != nil {
		return err
	}
	if w.EventTable, err = createTable(w.RunGroup, "events", EventDataHDF5{}, compression); err != nil {
		return err
	}
	if w.RunInfoTable, err = createTable(w.RunGroup, "runInfo", RunInfoHDF5{}, compression); err != nil {
		return err
	}
	if w.HitTable, err = createTable(w.RDGroup, "hits", HitHDF5{}, compression); err != nil {
		return err
	}
	if w.ChannelMapTable, err = createTable(w.SensorsGroup, "ChannelMap", ChannelMapHDF5{}, compression); err != nil {
		return err
	}
	if w.options.WriteTraces {
		if w.TraceArray, err = createTracesArray(w.RDGroup, "traces", w.options.TraceSamples, compression); err != nil {
			return err
		}
	}
	return nil
}

// WriteChannelMap stores the channel map sorted by module and channel.
func (w *Writer) WriteChannelMap(channelMap ChannelMap) error {
	entries := make([]ChannelMapEntry, 0, len(channelMap.ByAddress))
	for _, entry := range channelMap.ByAddress {
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b ChannelMapEntry) int {
		if c := cmp.Compare(a.Module, b.Module); c != 0 {
			return c
		}
		return cmp.Compare(a.Channel, b.Channel)
	})

	// The array MUST be allocated at creation, if not, HDF5 will panic
	rows := make([]ChannelMapHDF5, len(entries))
	for i, entry := range entries {
		rows[i] = ChannelMapHDF5{
			module:   int32(entry.Module),
			channel:  int32(entry.Channel),
			detType:  convertToHdf5String(entry.Type),
			subtype:  convertToHdf5String(entry.Subtype),
			location: int32(entry.Location),
		}
	}
	return writeArrayToTable(w.ChannelMapTable, &rows, 0)
}

func (w *Writer) OnRawEvent(event RawEvent) {
	if w.err != nil {
		return
	}
	if err := w.WriteEvent(&event); err != nil {
		w.err = err
		logger.Error(fmt.Sprintf("Error writing event %d: %s", event.EventNumber, err.Error()))
	}
}

// Err returns the first error met while writing events.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) WriteEvent(event *RawEvent) error {
	evtData := EventDataHDF5{
		evt_number:   event.EventNumber,
		spill:        event.SpillNumber,
		window_start: event.WindowStart,
		window_end:   event.WindowEnd,
		n_hits:       int32(event.Len()),
	}
	if err := writeEntryToTable(w.EventTable, evtData, w.EvtCounter); err != nil {
		return fmt.Errorf("error writing event table: %w", err)
	}
	w.EvtCounter++

	hits := make([]HitHDF5, event.Len())
	var traces []uint16
	nSamples := w.options.TraceSamples
	nTraces := 0
	for i, record := range event.Records {
		hits[i] = HitHDF5{
			evt_number:  event.EventNumber,
			module:      int32(record.Module),
			channel:     int32(record.Channel),
			energy:      record.Energy,
			time:        record.Time,
			cfd:         record.CfdTime,
			flags:       record.Flags(),
			trace_index: -1,
			qdc:         record.QdcSums,
		}
		if w.TraceArray != nil && len(record.Trace) > 0 {
			hits[i].trace_index = int64(w.TraceCounter + nTraces)
			// Traces are cut or zero padded to a fixed number of samples
			row := make([]uint16, nSamples)
			copy(row, record.Trace)
			traces = append(traces, row...)
			nTraces++
		}
	}

	if err := writeArrayToTable(w.HitTable, &hits, w.HitCounter); err != nil {
		return fmt.Errorf("error writing hit table: %w", err)
	}
	w.HitCounter += len(hits)

	if nTraces > 0 {
		if err := writeTraces(w.TraceArray, &traces, w.TraceCounter, nSamples); err != nil {
			return fmt.Errorf("error writing traces: %w", err)
		}
		w.TraceCounter += nTraces
	}
	return nil
}

func (w *Writer) Close() error {
	logger.Info(fmt.Sprintf("Closing file %s", w.Filename), "hdf5writer")
	var errs []error

	datasets := []struct {
		name string
		dset *hdf5.Dataset
	}{
		{"event table", w.EventTable},
		{"run info table", w.RunInfoTable},
		{"hit table", w.HitTable},
		{"traces", w.TraceArray},
		{"channel map table", w.ChannelMapTable},
	}
	for _, d := range datasets {
		if d.dset == nil {
			continue
		}
		if err := d.dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", d.name, err))
		}
	}

	groups := []struct {
		name  string
		group *hdf5.Group
	}{
		{"run group", w.RunGroup},
		{"RD group", w.RDGroup},
		{"sensors group", w.SensorsGroup},
	}
	for _, g := range groups {
		if g.group == nil {
			continue
		}
		if err := g.group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", g.name, err))
		}
	}

	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}
	return errors.Join(errs...)
}
