package pipeline

import (
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/theirongolddev/burnline/internal/config"
	"github.com/theirongolddev/burnline/internal/model"
)

// Options configures a pipeline run.
type Options struct {
	Aggregate bool
	Smooth    SmoothOptions
	Workers   int // 0 means GOMAXPROCS
	Logger    *slog.Logger
}

// OptionsFromConfig builds Options from the analysis section of cfg.
func OptionsFromConfig(cfg config.Config, logger *slog.Logger) Options {
	return Options{
		Aggregate: cfg.Analysis.Aggregate,
		Smooth: SmoothOptions{
			Points:       cfg.Analysis.ResamplePoints,
			ThicknessMin: cfg.Analysis.ThicknessMin,
			ThicknessMax: cfg.Analysis.ThicknessMax,
		},
		Logger: logger,
	}
}

// Result is the analyzed table handed to the presentation layer.
// Records, Trajectories and Curves are ordered by contract id; records of
// one contract are ordered by months_ago.
type Result struct {
	Records      []model.Record
	Trajectories []model.Trajectory
	Curves       []model.Curve
	Excluded     []string // contracts dropped for a malformed date range
}

// contractOutput is everything computed for one contract.
type contractOutput struct {
	rows       []model.Record
	trajectory model.Trajectory
	curve      model.Curve
}

// Run executes the full pipeline over loaded snapshots:
// optional aggregation, derivation, then per-contract analysis.
func Run(snaps []model.Snapshot, opts Options) *Result {
	if opts.Aggregate {
		snaps = Aggregate(snaps)
	}
	derived := DeriveTable(snaps, opts.Logger)
	res := Analyze(derived.Records, opts)
	res.Excluded = derived.Excluded
	return res
}

// Analyze computes the trajectory and smoothed curve of every contract and
// broadcasts each trajectory onto that contract's rows. Contracts are
// processed independently on a bounded worker pool; the input is not modified.
func Analyze(records []model.Record, opts Options) *Result {
	logger := componentLogger(opts.Logger, "analyzer")

	byContract := make(map[string][]model.Record)
	for _, r := range records {
		byContract[r.ID()] = append(byContract[r.ID()], r)
	}
	ids := make([]string, 0, len(byContract))
	for id := range byContract {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	res := &Result{}
	if len(ids) == 0 {
		return res
	}

	numWorkers := opts.Workers
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(ids) {
		numWorkers = len(ids)
	}

	work := make(chan int, len(ids))
	outputs := make([]contractOutput, len(ids))
	var wg sync.WaitGroup

	for i := range ids {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				id := ids[idx]
				outputs[idx] = analyzeContract(id, byContract[id], opts.Smooth, logger)
			}
		}()
	}

	wg.Wait()

	res.Records = make([]model.Record, 0, len(records))
	res.Trajectories = make([]model.Trajectory, 0, len(ids))
	res.Curves = make([]model.Curve, 0, len(ids))
	for _, out := range outputs {
		res.Records = append(res.Records, out.rows...)
		res.Trajectories = append(res.Trajectories, out.trajectory)
		res.Curves = append(res.Curves, out.curve)
	}
	return res
}

func analyzeContract(id string, rows []model.Record, smooth SmoothOptions, logger *slog.Logger) contractOutput {
	ordered := make([]model.Record, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].MonthsAgo != ordered[j].MonthsAgo {
			return ordered[i].MonthsAgo < ordered[j].MonthsAgo
		}
		return ordered[i].SnapshotDate.Before(ordered[j].SnapshotDate)
	})

	traj := AnalyzeTrajectory(id, ordered, logger)
	for i := range ordered {
		ordered[i].Trajectory = traj
	}

	return contractOutput{
		rows:       ordered,
		trajectory: traj,
		curve:      Smooth(id, ordered, smooth),
	}
}

// Contract returns the trajectory, curve and rows of one contract.
func (r *Result) Contract(id string) (model.Trajectory, model.Curve, []model.Record, bool) {
	i := sort.Search(len(r.Trajectories), func(i int) bool { return r.Trajectories[i].ContractID >= id })
	if i == len(r.Trajectories) || r.Trajectories[i].ContractID != id {
		return model.Trajectory{}, model.Curve{}, nil, false
	}
	return r.Trajectories[i], r.Curves[i], r.rowsOf(id), true
}

func (r *Result) rowsOf(id string) []model.Record {
	lo := sort.Search(len(r.Records), func(i int) bool { return r.Records[i].ID() >= id })
	hi := lo
	for hi < len(r.Records) && r.Records[hi].ID() == id {
		hi++
	}
	return r.Records[lo:hi]
}

func (r *Result) filter(keep func(model.Trajectory, []model.Record) bool) *Result {
	out := &Result{Excluded: r.Excluded}
	for i, t := range r.Trajectories {
		rows := r.rowsOf(t.ContractID)
		if !keep(t, rows) {
			continue
		}
		out.Trajectories = append(out.Trajectories, t)
		out.Curves = append(out.Curves, r.Curves[i])
		out.Records = append(out.Records, rows...)
	}
	return out
}
