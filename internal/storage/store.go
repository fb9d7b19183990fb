package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/freefall/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	dragFile     = "drag.csv"
	vacuumFile   = "vacuum.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Mass        float64            `json:"mass"`
	Drag        float64            `json:"drag"`
	Gravity     float64            `json:"gravity"`
	Height      float64            `json:"height"`
	Policy      string             `json:"policy"`
	Impact      string             `json:"impact"`
	Impacted    bool               `json:"impacted"`
	DragFinal   dynamo.Sample      `json:"drag_final"`
	VacuumFinal dynamo.Sample      `json:"vacuum_final"`
	DragIndex   int                `json:"drag_final_index"`
	VacuumIndex int                `json:"vacuum_final_index"`
	Metrics     map[string]float64 `json:"metrics"`
}

func NewRunMetadata(id, name string, result *dynamo.Result) RunMetadata {
	cfg := result.Config
	return RunMetadata{
		ID:          id,
		Name:        name,
		Timestamp:   time.Now(),
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		Mass:        cfg.Mass,
		Drag:        cfg.DragCoefficient,
		Gravity:     cfg.Gravity,
		Height:      cfg.InitialHeight,
		Policy:      cfg.Policy.String(),
		Impact:      cfg.Impact.String(),
		Impacted:    result.Impacted,
		DragFinal:   result.DragFinal,
		VacuumFinal: result.VacuumFinal,
		DragIndex:   result.DragFinalIndex,
		VacuumIndex: result.VacuumFinalIndex,
		Metrics:     result.Metrics,
	}
}

// Config rebuilds the simulation config the run was made with.
func (m *RunMetadata) Config() (dynamo.Config, error) {
	policy, err := dynamo.ParseTruncationPolicy(m.Policy)
	if err != nil {
		return dynamo.Config{}, err
	}
	impact, err := dynamo.ParseImpactRule(m.Impact)
	if err != nil {
		return dynamo.Config{}, err
	}
	return dynamo.Config{
		Dt:              m.Dt,
		Duration:        m.Duration,
		Mass:            m.Mass,
		DragCoefficient: m.Drag,
		Gravity:         m.Gravity,
		InitialHeight:   m.Height,
		Policy:          policy,
		Impact:          impact,
	}, nil
}

// Save writes metadata.json plus one CSV per series and returns the run id.
func (s *Store) Save(name string, result *dynamo.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := NewRunMetadata(runID, name, result)

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeSeries(filepath.Join(runDir, dragFile), result.Drag); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, vacuumFile), result.Vacuum); err != nil {
		return "", err
	}

	return runID, nil
}

func writeSeries(path string, series dynamo.TimeSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteCSV(f, series); err != nil {
		return err
	}
	return f.Close()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadResult reassembles a stored run. Metrics and final samples come from
// the metadata, series from the CSV files.
func (s *Store) LoadResult(runID string) (*RunMetadata, *dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := meta.Config()
	if err != nil {
		return nil, nil, err
	}

	drag, err := s.LoadSeries(runID, "drag")
	if err != nil {
		return nil, nil, err
	}
	vacuum, err := s.LoadSeries(runID, "vacuum")
	if err != nil {
		return nil, nil, err
	}

	return meta, &dynamo.Result{
		Config:           cfg,
		Drag:             drag,
		Vacuum:           vacuum,
		DragFinal:        meta.DragFinal,
		VacuumFinal:      meta.VacuumFinal,
		DragFinalIndex:   meta.DragIndex,
		VacuumFinalIndex: meta.VacuumIndex,
		Impacted:         meta.Impacted,
		StepsTaken:       vacuum.Len() - 1,
		Metrics:          meta.Metrics,
	}, nil
}

// LoadSeries reads "drag" or "vacuum" for a run.
func (s *Store) LoadSeries(runID, series string) (dynamo.TimeSeries, error) {
	var name string
	switch series {
	case "drag":
		name = dragFile
	case "vacuum":
		name = vacuumFile
	default:
		return dynamo.TimeSeries{}, fmt.Errorf("unknown series %q", series)
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return dynamo.TimeSeries{}, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return dynamo.TimeSeries{}, err
	}

	out := dynamo.NewTimeSeries(series, len(records))
	for i, record := range records {
		if i == 0 {
			continue
		}
		if len(record) != 3 {
			return dynamo.TimeSeries{}, fmt.Errorf("%s line %d: expected 3 fields, got %d", name, i+1, len(record))
		}
		var vals [3]float64
		for j := range vals {
			vals[j], err = strconv.ParseFloat(record[j], 64)
			if err != nil {
				return dynamo.TimeSeries{}, fmt.Errorf("%s line %d: %w", name, i+1, err)
			}
		}
		out.Append(dynamo.Sample{Time: vals[0], Velocity: vals[1], Position: vals[2]})
	}

	if out.Len() == 0 {
		return out, errors.New("empty series " + series)
	}
	return out, nil
}
