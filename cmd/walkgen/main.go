package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/walkgen/internal/config"
	"github.com/san-kum/walkgen/internal/dynamo"
	"github.com/san-kum/walkgen/internal/experiment"
	"github.com/san-kum/walkgen/internal/export"
	"github.com/san-kum/walkgen/internal/logging"
	"github.com/san-kum/walkgen/internal/models"
	"github.com/san-kum/walkgen/internal/optim"
	"github.com/san-kum/walkgen/internal/storage"
	"github.com/san-kum/walkgen/internal/viz"
)

var (
	dataDir    string
	configFile string
	debug      bool
	duration   float64
	vx, vy     float64
	vyaw       float64
	commands   []string
	outDir     string
	grid       []string
	metricName string
	workers    int
	theme      string
	log        *zap.SugaredLogger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "walkgen",
		Short:         "preview-control walking pattern generator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = logging.New("walkgen", debug)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".walkgen", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "per-cycle debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "walk after a velocity reference",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWalk(config.FormulationVelocity),
	}
	addWalkFlags(runCmd)

	planCmd := &cobra.Command{
		Use:   "plan [preset]",
		Short: "track the zmp of a straight footstep plan",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWalk(config.FormulationFixed),
	}
	planCmd.Flags().StringArrayVar(&commands, "cmd", nil, "runtime command, e.g. \"XY 0.04 0.04\" (repeatable)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot com and zmp in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "export com, zmp and footstep plots as png",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVar(&outDir, "out", "", "output directory (defaults to the run directory)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, formulation := range experiment.NewRegistry().ListFormulations() {
				names := config.ListPresets(formulation)
				sort.Strings(names)
				fmt.Printf("%s:\n", formulation)
				for _, p := range names {
					fmt.Printf("  %s\n", p)
				}
			}
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "walk interactively, steered from the keyboard",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addWalkFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "color theme (night, phosphor, paper)")

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search over objective weights",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneWeights,
	}
	addWalkFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", []string{"cop=1,10,100", "jerk=0.00001,0.0001"},
		"weight=v1,v2,... (repeatable), weights: "+strings.Join(optim.WeightNames(), " "))
	tuneCmd.Flags().StringVar(&metricName, "metric", "zmp_excursion", "metric to minimize")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = GOMAXPROCS)")

	rootCmd.AddCommand(runCmd, planCmd, listCmd, plotCmd, exportPNGCmd, exportJSONCmd, presetsCmd, liveCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		if log != nil {
			log.Error(err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func addWalkFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&vx, "vx", 0, "forward velocity reference (m/s)")
	cmd.Flags().Float64Var(&vy, "vy", 0, "lateral velocity reference (m/s)")
	cmd.Flags().Float64Var(&vyaw, "vyaw", 0, "yaw rate reference (rad/s)")
	cmd.Flags().Float64Var(&duration, "duration", config.DefaultDuration, "duration (s)")
	cmd.Flags().StringArrayVar(&commands, "cmd", nil, "runtime command, e.g. \"N 20\" (repeatable)")
}

// loadConfig resolves the configuration from --config, or a preset, or the
// defaults, then applies the flags that were set explicitly.
func loadConfig(cmd *cobra.Command, args []string, formulation string) (*config.Config, string, error) {
	var cfg *config.Config
	preset := ""
	switch {
	case configFile != "":
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, "", errors.Wrap(err, "load config")
		}
		if cfg.Formulation != formulation {
			log.Warnw("config formulation overridden", "config", cfg.Formulation, "command", formulation)
		}
		cfg.Formulation = formulation
	case len(args) > 0:
		preset = args[0]
		if cfg = config.GetPreset(formulation, preset); cfg == nil {
			return nil, "", errors.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(formulation))
		}
	default:
		cfg = config.DefaultConfig()
		cfg.Formulation = formulation
	}

	flags := cmd.Flags()
	if flags.Changed("vx") {
		cfg.Reference.VX = vx
	}
	if flags.Changed("vy") {
		cfg.Reference.VY = vy
	}
	if flags.Changed("vyaw") {
		cfg.Reference.YawRate = vyaw
	}
	if flags.Changed("duration") {
		cfg.Duration = duration
	}
	cfg.Commands = append(cfg.Commands, commands...)

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, preset, nil
}

func runWalk(formulation string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, preset, err := loadConfig(cmd, args, formulation)
		if err != nil {
			return err
		}

		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}

		exp, err := experiment.New(cfg, log)
		if err != nil {
			return err
		}
		exp.AddObserver(newProgress(log, 1))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		log.Infow("running", "formulation", formulation, "preset", preset, "horizon", cfg.Preview.Horizon, "period", cfg.Preview.Period)
		start := time.Now()
		result, runErr := exp.Run(ctx)
		if result == nil {
			return runErr
		}
		if runErr != nil {
			log.Errorw("run stopped early", "cycles", result.Cycles, "error", runErr)
		}
		elapsed := time.Since(start)

		runID, err := st.Save(storage.RunMetadata{
			Formulation:  formulation,
			Preset:       preset,
			Horizon:      cfg.Preview.Horizon,
			Period:       cfg.Preview.Period,
			OutputPeriod: cfg.Preview.OutputPeriod,
			Duration:     cfg.Duration,
			Reference:    cfg.Velocity(),
			Commands:     cfg.Commands,
		}, result)
		if err != nil {
			return err
		}

		fmt.Printf("completed in %v\n", elapsed)
		fmt.Printf("run id: %s\n", runID)
		fmt.Printf("cycles: %d  samples: %d  footsteps: %d\n", result.Cycles, len(result.CoM), len(result.Footsteps))
		printMetrics(result.Metrics)
		return runErr
	}
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFORMULATION\tPRESET\tTIME\tN\tT\tCYCLES\tERRORS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.3fs\t%d\t%d\n",
			run.ID,
			run.Formulation,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Horizon,
			run.Period,
			run.Cycles,
			len(run.Errors),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	if len(res.CoM) == 0 {
		return errors.New("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("formulation: %s\n", meta.Formulation)
	fmt.Printf("samples: %d\n\n", len(res.CoM))

	n := len(res.CoM)
	comX, zmpX := make([]float64, n), make([]float64, n)
	comY, zmpY := make([]float64, n), make([]float64, n)
	for i := range res.CoM {
		comX[i], zmpX[i] = res.CoM[i].X[0], res.ZMP[i].Px
		comY[i], zmpY[i] = res.CoM[i].Y[0], res.ZMP[i].Py
	}

	for _, series := range []struct {
		caption  string
		com, zmp []float64
	}{
		{"x: com (blue) zmp (red)", comX, zmpX},
		{"y: com (blue) zmp (red)", comY, zmpY},
	} {
		graph := asciigraph.PlotMany([][]float64{series.com, series.zmp},
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportPNG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	dir := outDir
	if dir == "" {
		dir = filepath.Join(dataDir, args[0])
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	robot, err := robotFor()
	if err != nil {
		return err
	}
	paths, err := export.SavePNG(res, viz.SceneFromResult(res, robot), dir)
	for _, p := range paths {
		fmt.Println(p)
	}
	return err
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, res)
}

// robotFor returns the robot described by --config, or the default biped.
func robotFor() (models.Robot, error) {
	if configFile == "" {
		return models.NewBiped(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	return models.FromConfig(cfg.Robot), nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd, args, config.FormulationVelocity)
	if err != nil {
		return err
	}
	// the terminal belongs to the view
	exp, err := experiment.New(cfg, logging.Nop())
	if err != nil {
		return err
	}
	gen, err := exp.NewOnline()
	if err != nil {
		return err
	}
	viz.SetTheme(theme)
	return viz.Run(gen, exp.Robot(), cfg.Velocity())
}

func tuneWeights(cmd *cobra.Command, args []string) error {
	base, _, err := loadConfig(cmd, args, config.FormulationVelocity)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(grid))
	ranges := make([][]float64, 0, len(grid))
	for _, arg := range grid {
		name, values, err := parseGrid(arg)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	gs := optim.NewGridSearch(names, ranges)
	gs.Workers = workers

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	best, evals, err := gs.Search(ctx, func(params map[string]float64) (optim.Runner, error) {
		cfg, err := optim.ApplyWeights(base, params)
		if err != nil {
			return nil, err
		}
		return experiment.New(cfg, logging.Nop())
	}, metricName)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metricName))
	for _, e := range evals {
		for _, name := range names {
			fmt.Fprintf(w, "%g\t", e.Params[name])
		}
		if e.Err != nil {
			fmt.Fprintf(w, "failed: %v\n", e.Err)
			continue
		}
		fmt.Fprintf(w, "%.6f\n", e.Value)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	log.Infow("grid search done", "combinations", len(evals), "elapsed", time.Since(start))
	fmt.Printf("\nbest %s: %.6f with %v\n", metricName, best.Value, best.Params)
	return nil
}

func parseGrid(arg string) (string, []float64, error) {
	name, list, ok := strings.Cut(arg, "=")
	if !ok || name == "" || list == "" {
		return "", nil, errors.Wrapf(dynamo.ErrConfiguration, "bad grid %q, want weight=v1,v2", arg)
	}
	var values []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, errors.Wrapf(dynamo.ErrConfiguration, "grid %s: %v", name, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}
