package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/tidy/internal/complete"
	"github.com/paveg/tidy/internal/config"
	dferrors "github.com/paveg/tidy/internal/errors"
	tidyio "github.com/paveg/tidy/internal/io"
	"github.com/paveg/tidy/internal/logging"
	"github.com/paveg/tidy/internal/monitoring"
	"github.com/paveg/tidy/internal/recipe"
	"github.com/paveg/tidy/internal/version"
	"github.com/spf13/cobra"
)

// Action holds the state used while running a command.
type Action struct {
	cmd   *cobra.Command
	start time.Time
}

func newAction(cmd *cobra.Command) *Action {
	return &Action{cmd: cmd, start: time.Now()}
}

func (a *Action) getBool(name string) bool {
	v, _ := a.cmd.Flags().GetBool(name)
	return v
}

func (a *Action) getString(name string) string {
	v, _ := a.cmd.Flags().GetString(name)
	return v
}

func (a *Action) getStringArray(name string) []string {
	v, _ := a.cmd.Flags().GetStringArray(name)
	return v
}

func (a *Action) getStringSlice(name string) []string {
	v, _ := a.cmd.Flags().GetStringSlice(name)
	return v
}

func (a *Action) changed(name string) bool {
	return a.cmd.Flags().Changed(name)
}

// setup loads the engine configuration, installs it globally and starts
// the logger. The returned func closes the logger.
func (a *Action) setup() (func(), error) {
	cfg := config.LoadFromEnv()
	if path := a.getString("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if a.getBool("verbose") {
		cfg.VerboseLogging = true
	}
	config.SetGlobalConfig(cfg)

	_ = logging.Close()
	err := logging.Init(logging.Config{
		Level:  logging.LevelFor(cfg.VerboseLogging),
		Format: cfg.LogFormat,
		Writer: a.cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("starting logger: %w", err)
	}
	return func() { _ = logging.Close() }, nil
}

// groupsFromFlags turns --group values into group specs: "a" is a single
// column, "a,b" a nested group.
func groupsFromFlags(values []string) ([]complete.GroupSpec, error) {
	groups := make([]complete.GroupSpec, 0, len(values))
	for _, v := range values {
		var names []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		switch len(names) {
		case 0:
			return nil, dferrors.NewConfigurationError("complete", "", fmt.Sprintf("empty --group value %q", v))
		case 1:
			groups = append(groups, complete.Column(names[0]))
		default:
			groups = append(groups, complete.Nested(names))
		}
	}
	return groups, nil
}

// plan merges the recipe with the command line flags.
func (a *Action) plan() ([]complete.GroupSpec, complete.Options, error) {
	r := &recipe.Recipe{Explicit: true}
	if path := a.getString("recipe"); path != "" {
		loaded, err := recipe.Load(path)
		if err != nil {
			return nil, complete.Options{}, err
		}
		r = loaded
	}

	flagGroups, err := groupsFromFlags(a.getStringArray("group"))
	if err != nil {
		return nil, complete.Options{}, err
	}
	groups := append(r.Groups, flagGroups...)
	if len(groups) == 0 {
		return nil, complete.Options{}, dferrors.NewConfigurationError("complete", "",
			"no groups given; use --group or a recipe")
	}

	opts := r.Options()
	if a.changed("by") {
		opts.By = a.getStringSlice("by")
	}
	if a.changed("sort") {
		opts.Sort = a.getBool("sort")
	}
	if a.changed("implicit") {
		opts.Explicit = !a.getBool("implicit")
	}
	return groups, opts, nil
}

func runComplete(cmd *cobra.Command, _ []string) error {
	a := newAction(cmd)
	done, err := a.setup()
	if err != nil {
		return err
	}
	defer done()

	groups, opts, err := a.plan()
	if err != nil {
		return err
	}

	input := a.getString("input")
	df, err := tidyio.ReadFile(input, memory.NewGoAllocator())
	if err != nil {
		return err
	}
	defer df.Release()
	logging.WithFile("complete", input).Info("read table", "rows", df.Len(), "columns", df.Width())

	if a.getBool("stats") {
		monitoring.EnableGlobalMonitoring()
		defer monitoring.DisableGlobalMonitoring()
	}
	out, err := complete.Complete(df, groups, opts)
	if err != nil {
		return err
	}
	defer out.Release()

	output := a.getString("output")
	if output == "" {
		err = tidyio.NewCSVWriter(cmd.OutOrStdout(), tidyio.DefaultCSVOptions()).Write(out)
	} else {
		err = tidyio.WriteFile(output, out)
	}
	if err != nil {
		return err
	}

	logging.Info("completed table",
		"rows_in", df.Len(), "rows_out", out.Len(), "added", out.Len()-df.Len(),
		"elapsed", time.Since(a.start).Round(time.Millisecond))
	if c := monitoring.GetGlobalCollector(); c != nil {
		for _, m := range c.GetMetrics() {
			logging.Info("stage", "stage", m.Stage, "rows", m.Rows, "duration", m.Duration, "alloc_bytes", m.MemoryUsed)
		}
		s := monitoring.GetGlobalSummary()
		logging.Info("completion stages", "stages", s.TotalStages, "duration", s.TotalDuration, "alloc_bytes", s.TotalMemory)
	}
	return nil
}

func runVersion(cmd *cobra.Command, _ []string) error {
	a := newAction(cmd)
	info := version.Info()
	if a.getBool("json") {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), info.String())
	return err
}
