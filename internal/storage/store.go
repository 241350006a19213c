package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Vehicle    string             `json:"vehicle,omitempty"`
	Controller string             `json:"controller"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Seed       int64              `json:"seed"`
	Steps      int                `json:"steps"`
	Terminated bool               `json:"terminated"`
	Errors     []string           `json:"errors,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Run is a stored run read back in full.
type Run struct {
	Meta    *RunMetadata
	Times   []float64
	States  []physics.DroneState
	Actions []physics.ControlAction
}

// Columns is the states.csv header: time, the flattened state and the rotor
// command applied from that state on.
func Columns() []string {
	cols := make([]string, 0, 1+physics.StateDim+physics.ActionDim)
	cols = append(cols, "t")
	cols = append(cols, physics.StateLabels[:]...)
	for i := 0; i < physics.ActionDim; i++ {
		cols = append(cols, fmt.Sprintf("rpm%d", i))
	}
	return cols
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

// Save writes meta and result under a fresh run directory and returns the run
// ID. Steps, Terminated, Errors and Metrics in meta are taken from result.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	name := meta.Name
	if name == "" {
		name = "run"
	}

	runID, runDir, err := s.allocate(name, meta.Timestamp)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Steps = result.StepsTaken
	meta.Terminated = result.Terminated
	meta.Metrics = result.Metrics
	meta.Errors = nil
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), metaData, 0644); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteCSV(f, result); err != nil {
		return "", err
	}
	return runID, f.Close()
}

// allocate creates a run directory that does not exist yet.
func (s *Store) allocate(name string, ts time.Time) (string, string, error) {
	base := fmt.Sprintf("%s_%s", name, ts.Format("20060102-150405"))
	for i := 0; ; i++ {
		runID := base
		if i > 0 {
			runID = fmt.Sprintf("%s-%d", base, i)
		}
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
}

// WriteCSV writes result as CSV with the Columns header. The last row has no
// following action and repeats the previous one.
func WriteCSV(w io.Writer, result *sim.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns()); err != nil {
		return err
	}

	row := make([]string, 0, 1+physics.StateDim+physics.ActionDim)
	flat := make([]float64, 0, physics.StateDim)
	var action physics.ControlAction
	for i, state := range result.States {
		if i < len(result.Actions) {
			action = result.Actions[i]
		}
		row = row[:0]
		row = append(row, formatFloat(result.Times[i]))
		flat = state.AppendTo(flat[:0])
		for _, v := range flat {
			row = append(row, formatFloat(v))
		}
		for _, v := range action.RPM {
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]*RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []*RunMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadTable reads states.csv of a run.
func (s *Store) LoadTable(runID string) (*Table, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// LoadRun reads metadata and trajectory of a run.
func (s *Store) LoadRun(runID string) (*Run, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	table, err := s.LoadTable(runID)
	if err != nil {
		return nil, err
	}

	times, err := table.Column("t")
	if err != nil {
		return nil, err
	}
	stateIdx, err := table.indices(physics.StateLabels[:])
	if err != nil {
		return nil, err
	}
	actionIdx, err := table.indices(Columns()[1+physics.StateDim:])
	if err != nil {
		return nil, err
	}

	run := &Run{
		Meta:    meta,
		Times:   times,
		States:  make([]physics.DroneState, len(table.Rows)),
		Actions: make([]physics.ControlAction, len(table.Rows)),
	}
	buf := make([]float64, physics.StateDim)
	for i, row := range table.Rows {
		for j, idx := range stateIdx {
			buf[j] = row[idx]
		}
		run.States[i] = physics.StateFromSlice(buf)
		for j, idx := range actionIdx {
			run.Actions[i].RPM[j] = row[idx]
		}
	}
	// The last row carries no applied action.
	if n := len(run.Actions); n > 0 {
		run.Actions = run.Actions[:n-1]
	}
	return run, nil
}

// ExportJSON writes metadata and columns of a run as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	table, err := s.LoadTable(runID)
	if err != nil {
		return err
	}

	export := struct {
		*RunMetadata
		Columns map[string][]float64 `json:"columns"`
	}{
		RunMetadata: meta,
		Columns:     make(map[string][]float64, len(table.Header)),
	}
	for _, name := range table.Header {
		col, _ := table.Column(name)
		export.Columns[name] = col
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

// ExportCSV copies states.csv of a run to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
