package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voicevox-ue/vvstage/internal/manifest"
	"github.com/voicevox-ue/vvstage/internal/report"
	"github.com/voicevox-ue/vvstage/internal/rules"
	"github.com/voicevox-ue/vvstage/internal/stage"
)

var (
	stageFrom   string
	stageDryRun bool

	stageCmd = &cobra.Command{
		Use:   "stage",
		Short: "Register or copy the runtime dependencies of a profile",
		Long: paragraph(fmt.Sprintf("\n%s every runtime dependency of a profile. In register mode the pairs are written to a manifest for the build to pick up; in copy mode files are copied into place right away. A missing data directory aborts before anything is written.",
			keyword("Stage"))),
		Example: paragraph("vvstage stage --mode copy -Project=/work/Game/Game.uproject\nvvstage stage --manifest Intermediate/vvstage.yml\nvvstage stage --from Intermediate/vvstage.yml --mode copy"),
		Args:    cobra.NoArgs,
		RunE:    runStage,
	}
)

func init() {
	stageCmd.Flags().String("mode", modeRegister, "register or copy")
	stageCmd.Flags().String("manifest", "", "manifest written in register mode")
	stageCmd.Flags().StringVar(&stageFrom, "from", "", "replay a manifest instead of evaluating the profile")
	stageCmd.Flags().BoolVarP(&stageDryRun, "dry-run", "n", false, "log copies without performing them")

	_ = viper.BindPFlag("mode", stageCmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("manifest", stageCmd.Flags().Lookup("manifest"))
}

func runStage(*cobra.Command, []string) error {
	mode := viper.GetString("mode")
	start := time.Now()

	if stageFrom != "" {
		m, err := manifest.Load(expand(stageFrom))
		if err != nil {
			return err
		}
		return finishStage(mode, &m.ModuleRules, func(sink stage.Sink) error {
			return manifest.Replay(m, sink)
		}, start)
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}
	plan, err := buildPlan(s)
	if err != nil {
		return err
	}

	return finishStage(mode, nil, func(sink stage.Sink) error {
		mr, err := plan.Stage(sink)
		if err != nil {
			return err
		}
		if s.Manifest != "" && mode == modeRegister {
			if err := manifest.Save(s.Manifest, manifest.New(mr)); err != nil {
				return err
			}
			log.Info("wrote manifest", "path", s.Manifest)
		}
		return nil
	}, start)
}

// finishStage runs fn against the sink for mode and prints a summary.
func finishStage(mode string, mr *rules.ModuleRules, fn func(stage.Sink) error, start time.Time) error {
	st := reportStyles()

	switch mode {
	case modeCopy:
		copier := stage.NewCopier()
		copier.DryRun = stageDryRun
		if err := fn(copier); err != nil {
			return err
		}
		fmt.Println(report.Staged(copier.Stats(), time.Since(start), st))

	default:
		reg := stage.NewRegistry()
		if err := fn(reg); err != nil {
			return err
		}
		if mr != nil {
			log.Debug("replayed manifest", "profile", mr.Profile, "platform", mr.Platform)
		}
		fmt.Println(report.Registered(reg.Len(), st))
	}
	return nil
}
