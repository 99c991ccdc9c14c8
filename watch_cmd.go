package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voicevox-ue/vvstage/internal/report"
	"github.com/voicevox-ue/vvstage/internal/stage"
	"github.com/voicevox-ue/vvstage/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Copy the runtime dependencies, then again on every source change",
	Long: paragraph(fmt.Sprintf("\n%s the module's platform folder, dictionary and model folders and re-stage in copy mode after changes settle.",
		keyword("Watch"))),
	Example: paragraph("vvstage watch -P native-core\nvvstage watch --debounce 2s"),
	Args:    cobra.NoArgs,
	RunE:    runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period after the last change")
	_ = viper.BindPFlag("watch.debounce", watchCmd.Flags().Lookup("debounce"))
}

func runWatch(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	plan, err := buildPlan(s)
	if err != nil {
		return err
	}

	st := reportStyles()
	pass := func(context.Context) error {
		start := time.Now()
		copier := stage.NewCopier()
		if _, err := plan.Stage(copier); err != nil {
			return err
		}
		fmt.Println(report.Staged(copier.Stats(), time.Since(start), st))
		return nil
	}

	dirs := plan.SourceDirs()
	var existing []string
	for _, d := range dirs {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			existing = append(existing, d)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return watch.New(existing, viper.GetDuration("watch.debounce"), pass).Watch(ctx)
}
