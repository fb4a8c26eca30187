package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/walkgen/internal/dynamo"
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
	ID           string             `json:"id"`
	Formulation  string             `json:"formulation"`
	Preset       string             `json:"preset,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
	Horizon      int                `json:"horizon"`
	Period       float64            `json:"period"`
	OutputPeriod float64            `json:"output_period"`
	Duration     float64            `json:"duration"`
	Reference    dynamo.Velocity    `json:"reference"`
	Commands     []string           `json:"commands,omitempty"`
	Cycles       int                `json:"cycles"`
	Metrics      map[string]float64 `json:"metrics"`
	Errors       []string           `json:"errors,omitempty"`
}

var sampleHeader = []string{"time", "x", "vx", "ax", "y", "vy", "ay", "yaw", "px", "py", "theta", "step_type"}

var footHeader = []string{"time", "x", "y", "z", "yaw", "step_type"}

// Save writes metadata.json, samples.csv and footsteps.csv under a new run
// directory and returns the run ID.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", meta.Formulation, time.Now().UnixNano())
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Cycles = result.Cycles
	meta.Metrics = result.Metrics
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(result.CoM))
	for i := range result.CoM {
		c, z := result.CoM[i], result.ZMP[i]
		rows = append(rows, append(formatFloats(result.Times[i], c.X[0], c.X[1], c.X[2], c.Y[0], c.Y[1], c.Y[2], c.Yaw, z.Px, z.Py, z.Theta),
			strconv.Itoa(z.StepType)))
	}
	if err := writeCSV(filepath.Join(runDir, "samples.csv"), sampleHeader, rows); err != nil {
		return "", err
	}

	rows = rows[:0]
	for _, f := range result.Footsteps {
		rows = append(rows, append(formatFloats(f.Time, f.X, f.Y, f.Z, f.Yaw), strconv.Itoa(f.StepType)))
	}
	if err := writeCSV(filepath.Join(runDir, "footsteps.csv"), footHeader, rows); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func formatFloats(vals ...float64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

// List returns the metadata of every saved run, oldest first.
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}
	return &meta, nil
}

// LoadResult reads the samples and footsteps of a run back.
func (s *Store) LoadResult(runID string) (*dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	res := &dynamo.Result{Metrics: meta.Metrics, Cycles: meta.Cycles}

	samples, err := readCSV(filepath.Join(s.baseDir, runID, "samples.csv"), len(sampleHeader))
	if err != nil {
		return nil, err
	}
	for _, r := range samples {
		res.Times = append(res.Times, r[0])
		res.CoM = append(res.CoM, dynamo.CoMState{
			X:   [3]float64{r[1], r[2], r[3]},
			Y:   [3]float64{r[4], r[5], r[6]},
			Yaw: r[7],
		})
		res.ZMP = append(res.ZMP, dynamo.ZMPSample{Px: r[8], Py: r[9], Theta: r[10], StepType: int(r[11])})
	}

	steps, err := readCSV(filepath.Join(s.baseDir, runID, "footsteps.csv"), len(footHeader))
	if err != nil {
		return nil, err
	}
	for _, r := range steps {
		res.Footsteps = append(res.Footsteps, dynamo.FootPosition{
			Time: r[0], X: r[1], Y: r[2], Z: r[3], Yaw: r[4], StepType: int(r[5]),
		})
	}
	return res, nil
}

func readCSV(path string, fields int) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = fields
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if len(records) < 2 {
		return nil, nil
	}

	out := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			if row[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, errors.Wrapf(err, "%s line %d", path, i+2)
			}
		}
		out = append(out, row)
	}
	return out, nil
}
