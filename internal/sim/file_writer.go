package sim

import (
	"encoding/json"
	"os"

	"netnexus-sim/internal/telemetry"
)

// FileWriter writes state, node load and event rows to JSONL files.
type FileWriter struct {
	stateFile *os.File
	nodeFile  *os.File
	eventFile *os.File
	stateEnc  *json.Encoder
	nodeEnc   *json.Encoder
	eventEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. nodePath or eventPath may be empty to
// skip those logs.
func NewFileWriter(statePath, nodePath, eventPath string) (*FileWriter, error) {
	sf, err := os.Create(statePath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{stateFile: sf, stateEnc: json.NewEncoder(sf)}
	if nodePath != "" {
		nf, err := os.Create(nodePath)
		if err != nil {
			sf.Close()
			return nil, err
		}
		fw.nodeFile = nf
		fw.nodeEnc = json.NewEncoder(nf)
	}
	if eventPath != "" {
		ef, err := os.Create(eventPath)
		if err != nil {
			if fw.nodeFile != nil {
				fw.nodeFile.Close()
			}
			sf.Close()
			return nil, err
		}
		fw.eventFile = ef
		fw.eventEnc = json.NewEncoder(ef)
	}
	return fw, nil
}

// WriteState logs a single state row.
func (f *FileWriter) WriteState(row telemetry.StateRow) error {
	return f.stateEnc.Encode(row)
}

// WriteNodeLoads logs node load rows, if enabled.
func (f *FileWriter) WriteNodeLoads(rows []telemetry.NodeLoadRow) error {
	if f.nodeEnc == nil {
		return nil
	}
	for _, r := range rows {
		if err := f.nodeEnc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent logs an event row, if enabled.
func (f *FileWriter) WriteEvent(row telemetry.EventRow) error {
	if f.eventEnc == nil {
		return nil
	}
	return f.eventEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range []*os.File{f.stateFile, f.nodeFile, f.eventFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
