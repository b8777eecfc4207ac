package ntuple

import (
	"fmt"
	"sync"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/raphaelgruber/rdxrw/internal/reweight"
)

// Output column names.
const (
	ColRunNumber    = "runNumber"
	ColEventNumber  = "eventNumber"
	ColQ2True       = "q2_true"
	ColIsTau        = "is_tau"
	ColDMeson1ID    = "d_meson1_true_id"
	ColDMeson1M     = "d_meson1_true_m"
	ColDMeson2ID    = "d_meson2_true_id"
	ColDMeson2M     = "d_meson2_true_m"
	ColTruthMatchOK = "ham_tm_ok"
	ColEngineOK     = "ham_ok"
	ColNominal      = "wff_orig"
)

// VariationColumn returns the column name of the i-th variation, counting from 1.
func VariationColumn(i int) string {
	return fmt.Sprintf("%s_var%d", ColNominal, i)
}

// Sink writes weight trees into one ROOT file. Trees may be written from
// several goroutines; writes are serialised on the file.
type Sink struct {
	mu    sync.Mutex
	f     *riofs.File
	trees []*TreeWriter
}

// Create creates or truncates the output file at path.
func Create(path string) (*Sink, error) {
	f, err := groot.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &Sink{f: f}, nil
}

// NewTree creates the output tree at path with the given number of
// variation columns.
func (s *Sink) NewTree(path string, slots int) (*TreeWriter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirName, name := split(path)
	var dir riofs.Directory = s.f
	if dirName != "" {
		d, err := mkdirAll(s.f, dirName)
		if err != nil {
			return nil, fmt.Errorf("tree %s: %w", path, err)
		}
		dir = d
	}

	tw := &TreeWriter{mu: &s.mu, row: row{Variations: make([]float64, slots)}}
	w, err := rtree.NewWriter(dir, name, tw.row.vars(), rtree.WithTitle(name))
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", path, err)
	}
	tw.w = w
	s.trees = append(s.trees, tw)
	return tw, nil
}

func mkdirAll(f *riofs.File, path string) (riofs.Directory, error) {
	root := riofs.Dir(f)
	if obj, err := root.Get(path); err == nil {
		if d, ok := obj.(riofs.Directory); ok {
			return d, nil
		}
		return nil, fmt.Errorf("%s exists and is not a directory", path)
	}
	return root.Mkdir(path)
}

// Close flushes every tree and closes the file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, tw := range s.trees {
		if err := tw.closeLocked(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.f.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close file: %w", err)
	}
	return firstErr
}

// row holds the column values of the entry being written.
type row struct {
	RunNumber    uint32
	EventNumber  uint64
	Q2True       float64
	IsTau        bool
	DMeson1ID    int32
	DMeson1M     float64
	DMeson2ID    int32
	DMeson2M     float64
	TruthMatchOK bool
	EngineOK     bool
	Nominal      float64
	Variations   []float64
}

func (r *row) vars() []rtree.WriteVar {
	vars := []rtree.WriteVar{
		{Name: ColRunNumber, Value: &r.RunNumber},
		{Name: ColEventNumber, Value: &r.EventNumber},
		{Name: ColQ2True, Value: &r.Q2True},
		{Name: ColIsTau, Value: &r.IsTau},
		{Name: ColDMeson1ID, Value: &r.DMeson1ID},
		{Name: ColDMeson1M, Value: &r.DMeson1M},
		{Name: ColDMeson2ID, Value: &r.DMeson2ID},
		{Name: ColDMeson2M, Value: &r.DMeson2M},
		{Name: ColTruthMatchOK, Value: &r.TruthMatchOK},
		{Name: ColEngineOK, Value: &r.EngineOK},
		{Name: ColNominal, Value: &r.Nominal},
	}
	for i := range r.Variations {
		vars = append(vars, rtree.WriteVar{Name: VariationColumn(i + 1), Value: &r.Variations[i]})
	}
	return vars
}

// TreeWriter appends weight rows to one output tree.
type TreeWriter struct {
	mu     *sync.Mutex
	w      rtree.Writer
	row    row
	closed bool
}

// Write appends one row. A record with fewer variations than the tree has
// columns fills the remainder with 1.0.
func (t *TreeWriter) Write(r reweight.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("write to closed tree %s", t.w.Name())
	}

	t.row.RunNumber = r.RunNumber
	t.row.EventNumber = r.EventNumber
	t.row.Q2True = r.Q2True
	t.row.IsTau = r.IsTau
	t.row.DMeson1ID = r.DMeson1ID
	t.row.DMeson1M = r.DMeson1M
	t.row.DMeson2ID = r.DMeson2ID
	t.row.DMeson2M = r.DMeson2M
	t.row.TruthMatchOK = r.TruthMatchOK
	t.row.EngineOK = r.EngineOK
	t.row.Nominal = r.Nominal
	for i := range t.row.Variations {
		t.row.Variations[i] = 1.0
		if i < len(r.Variations) {
			t.row.Variations[i] = r.Variations[i]
		}
	}

	if _, err := t.w.Write(); err != nil {
		return fmt.Errorf("write tree %s: %w", t.w.Name(), err)
	}
	return nil
}

// Close flushes the tree. Closing the Sink closes every tree it created.
func (t *TreeWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeLocked()
}

func (t *TreeWriter) closeLocked() error {
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.w.Close(); err != nil {
		return fmt.Errorf("close tree %s: %w", t.w.Name(), err)
	}
	return nil
}

var _ reweight.Sink = (*TreeWriter)(nil)
