// Package main provides the entry point for the vvstage CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voicevox-ue/vvstage/internal/archive"
	"github.com/voicevox-ue/vvstage/internal/platform"
	"github.com/voicevox-ue/vvstage/internal/project"
	"github.com/voicevox-ue/vvstage/internal/rules"
	"github.com/voicevox-ue/vvstage/internal/watch"
)

const (
	modeRegister = "register"
	modeCopy     = "copy"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string

	// hostArgs are the -Project= switches taken off the command line.
	hostArgs []string

	rootCmd = &cobra.Command{
		Use:   "vvstage",
		Short: "Stage VOICEVOX CORE runtime dependencies for Unreal Engine builds",
		Long: paragraph(
			fmt.Sprintf("\nStage %s, onnxruntime, the Open JTalk dictionary and voice models next to your packaged game.",
				keyword("VOICEVOX CORE")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	if f := viper.GetString("log.file"); f != "" {
		if err := logToFile(f); err != nil {
			return err
		}
	}

	if _, err := rules.Lookup(viper.GetString("profile")); err != nil {
		return err
	}
	if _, err := platform.Parse(viper.GetString("platform")); err != nil {
		return err
	}

	switch mode := viper.GetString("mode"); mode {
	case modeRegister, modeCopy:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", modeRegister, modeCopy, mode)
	}

	if level := viper.GetInt("archive.level"); level < 1 || level > 22 {
		return fmt.Errorf("archive level must be between 1 and 22, got %d", level)
	}
	if viper.GetDuration("watch.debounce") < 0 {
		return errors.New("watch debounce must not be negative")
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	args, host := project.SplitArgs(os.Args[1:])
	hostArgs = host
	// SetArgs(nil) would fall back to os.Args.
	rootCmd.SetArgs(append([]string{}, args...))

	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", configFile, "config file")
	flags.Bool("debug", false, "enable debug logging")
	flags.StringP("profile", "P", "engine-core", "rules profile ("+strings.Join(rules.Names(), ", ")+")")
	flags.String("platform", "auto", "target platform (Win64, Mac, Linux or auto)")
	flags.StringP("module-dir", "m", "", "ThirdParty module directory holding x64/ and osx/")
	flags.String("project-dir", "", "project directory")
	flags.String("plugin-dir", "", "plugin directory")
	flags.StringSlice("rules", nil, "extra HCL rule files")

	// Config bindings
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("profile", flags.Lookup("profile"))
	_ = viper.BindPFlag("platform", flags.Lookup("platform"))
	_ = viper.BindPFlag("module_dir", flags.Lookup("module-dir"))
	_ = viper.BindPFlag("project_dir", flags.Lookup("project-dir"))
	_ = viper.BindPFlag("plugin_dir", flags.Lookup("plugin-dir"))
	_ = viper.BindPFlag("rules_files", flags.Lookup("rules"))

	viper.SetDefault("profile", "engine-core")
	viper.SetDefault("platform", "auto")
	viper.SetDefault("mode", modeRegister)
	viper.SetDefault("watch.debounce", watch.DefaultDebounce)
	viper.SetDefault("archive.level", archive.DefaultLevel)

	rootCmd.AddCommand(
		planCmd,
		stageCmd,
		watchCmd,
		checkCmd,
		profilesCmd,
		loaderCmd,
		discoverCmd,
		packCmd,
		unpackCmd,
		configCmd,
		manCmd,
	)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "vvstage")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "vvstage")}, dirs...)
	}

	if c := os.Getenv("VVSTAGE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	// A vvstage.yml next to the project wins over the user config.
	viper.AddConfigPath(".")
	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("vvstage")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("vvstage")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		configFile = used
		return
	}

	configFile = filepath.Join(dirs[0], "vvstage.yml")
}
