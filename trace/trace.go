// Package trace records machine transitions in memory and reads and writes
// them as YAML trace files.
package trace

import (
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/librescoot/loopfsm"
)

// File is the on-disk trace layout
type File struct {
	MachineID   string                     `yaml:"machine_id"`
	Transitions []loopfsm.TransitionRecord `yaml:"transitions"`
}

// Recorder is a loopfsm.Observer that keeps every transition it sees
type Recorder struct {
	mu      sync.Mutex
	records []loopfsm.TransitionRecord
}

var _ loopfsm.Observer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) OnTransition(rec loopfsm.TransitionRecord) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

// Records returns a copy of the recorded transitions
func (r *Recorder) Records() []loopfsm.TransitionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]loopfsm.TransitionRecord(nil), r.records...)
}

// Entered returns the names of the entered states in order
func (r *Recorder) Entered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.records))
	for i, rec := range r.records {
		names[i] = rec.To
	}
	return names
}

// Reset forgets all records
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
}

// WriteYAML writes the recorded transitions of machineID to w
func (r *Recorder) WriteYAML(w io.Writer, machineID string) error {
	f := File{MachineID: machineID, Transitions: r.Records()}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}

// WriteFile writes the trace to path, replacing any existing file
func (r *Recorder) WriteFile(path, machineID string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := r.WriteYAML(out, machineID); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReadYAML decodes a trace written by WriteYAML
func ReadYAML(rd io.Reader) (File, error) {
	var f File
	if err := yaml.NewDecoder(rd).Decode(&f); err != nil {
		return File{}, fmt.Errorf("yaml decode: %w", err)
	}
	return f, nil
}

// ReadFile decodes the trace stored at path
func ReadFile(path string) (File, error) {
	in, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()
	return ReadYAML(in)
}
