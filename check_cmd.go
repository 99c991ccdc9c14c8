package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voicevox-ue/vvstage/internal/platform"
	"github.com/voicevox-ue/vvstage/internal/report"
	"github.com/voicevox-ue/vvstage/internal/rules"
)

var (
	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Report which inputs of a profile are present",
		Long: paragraph(fmt.Sprintf("\n%s the module directory for every library, accelerator bundle and data folder the profile names. Exits non-zero when a required input is missing.",
			keyword("Inspect"))),
		Args: cobra.NoArgs,
		RunE: runCheck,
	}

	profilesCmd = &cobra.Command{
		Use:   "profiles",
		Short: "List the available rules profiles",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			st := reportStyles()
			for _, name := range rules.Names() {
				p, _ := rules.Lookup(name)
				targets := make([]string, 0, len(p.Platforms()))
				for _, t := range p.Platforms() {
					targets = append(targets, string(t))
				}
				fmt.Printf("%s %s\n  %s\n",
					st.Title.Render(p.Name),
					st.Faint.Render("["+strings.Join(targets, ", ")+"]"),
					p.Description)
			}
			return nil
		},
	}

	loaderCmd = &cobra.Command{
		Use:   "loader",
		Short: "Print the path the runtime module loads the core library from",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			p, err := rules.Lookup(viper.GetString("profile"))
			if err != nil {
				return err
			}
			target, err := platform.Parse(viper.GetString("platform"))
			if err != nil {
				return err
			}

			pluginDir := expand(viper.GetString("plugin_dir"))
			if pluginDir == "" {
				if s, err := loadSettings(); err == nil {
					pluginDir = s.Env.PluginDir
				}
			}
			if pluginDir == "" {
				return fmt.Errorf("plugin directory is required for %s", p.Name)
			}

			path, err := rules.RuntimeLibraryPath(p, target, pluginDir)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err != nil {
				fmt.Fprintln(os.Stderr, "warning:", filepath.Base(path), "is not staged yet")
			}
			fmt.Println(path)
			return nil
		},
	}
)

func runCheck(*cobra.Command, []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	results, checkErr := rules.Check(s.Profile, s.Platform, s.Env.ModuleDir)
	fmt.Print(report.Check(s.Profile.Name, s.Platform, results, reportStyles()))
	return checkErr
}
