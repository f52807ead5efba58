package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parex-ode/parex/internal/ode"
)

// Store persists integration runs under a base directory, one
// subdirectory per run holding metadata.json and solution.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one stored run.
type RunMetadata struct {
	ID        string    `json:"id"`
	Problem   string    `json:"problem"`
	Timestamp time.Time `json:"timestamp"`

	Method     string  `json:"method"`
	Adaptivity string  `json:"adaptivity"`
	AbsTol     float64 `json:"abstol"`
	RelTol     float64 `json:"reltol"`

	Stats ode.Stats `json:"stats"`
}

// Save writes the solution and its metadata, returning the generated run
// id.
func (s *Store) Save(problem string, opts ode.Options, sol *ode.Solution) (string, error) {
	runID := fmt.Sprintf("%s_%d", problem, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Problem:    problem,
		Timestamp:  time.Now(),
		Method:     string(opts.Method),
		Adaptivity: string(opts.Adaptivity),
		AbsTol:     opts.AbsTol,
		RelTol:     opts.RelTol,
		Stats:      sol.Stats,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "solution.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, sol); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns metadata for every stored run, skipping directories without
// a readable metadata file.
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
		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSolution reads back the stored solution grid. Stats are not
// recoverable from the CSV; they live in the metadata.
func (s *Store) LoadSolution(runID string) (*ode.Solution, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "solution.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return &ode.Solution{}, nil
	}

	sol := &ode.Solution{
		Times:  make([]float64, 0, len(records)-1),
		States: make([]ode.State, 0, len(records)-1),
	}
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		tv, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("store: bad time %q: %w", record[0], err)
		}
		state := make(ode.State, 0, len(record)-1)
		for _, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("store: bad value %q: %w", field, err)
			}
			state = append(state, v)
		}
		sol.Times = append(sol.Times, tv)
		sol.States = append(sol.States, state)
	}
	return sol, nil
}
