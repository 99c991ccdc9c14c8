package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/voicevox-ue/vvstage/internal/archive"
	"github.com/voicevox-ue/vvstage/internal/discover"
	"github.com/voicevox-ue/vvstage/internal/report"
)

var (
	discoverAll bool

	discoverCmd = &cobra.Command{
		Use:   "discover [DIR]",
		Short: "Find ThirdParty module directories holding VOICEVOX CORE",
		Long: paragraph(fmt.Sprintf("\n%s a project tree for platform folders containing the core library. Files ignored by git are skipped unless --all is given.",
			keyword("Search"))),
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		},
		RunE: func(_ *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = expand(args[0])
			}
			mods, err := discover.Find(dir, discover.Options{All: discoverAll})
			if err != nil {
				return err
			}
			fmt.Print(report.Modules(mods, reportStyles()))
			return nil
		},
	}

	packCmd = &cobra.Command{
		Use:   "pack DIR ARCHIVE",
		Short: "Archive a staged directory as a reproducible .tar.zst",
		Long: paragraph(fmt.Sprintf("\n%s a staged binaries directory. Entries are sorted and carry no timestamps, so identical trees give identical archives.",
			keyword("Pack"))),
		Example: paragraph("vvstage pack Binaries/Win64 dist/voicevox-win64.tar.zst"),
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			dir, out := expand(args[0]), expand(args[1])
			stats, err := archive.PackFile(dir, out, viper.GetInt("archive.level"))
			if err != nil {
				return err
			}
			info, err := os.Stat(out)
			if err != nil {
				return err
			}
			fmt.Println(report.Packed(stats, out, info.Size(), reportStyles()))
			return nil
		},
	}

	unpackCmd = &cobra.Command{
		Use:   "unpack ARCHIVE DIR",
		Short: "Extract an archive written by pack",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(expand(args[0]))
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck

			dir := expand(args[1])
			if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
				return err
			}
			stats, err := archive.Unpack(f, dir)
			if err != nil {
				return err
			}
			fmt.Printf("extracted %d files into %s\n", stats.Files, filepath.Clean(dir))
			return nil
		},
	}
)

func init() {
	discoverCmd.Flags().BoolVarP(&discoverAll, "all", "a", false, "include files ignored by git")
	packCmd.Flags().Int("level", archive.DefaultLevel, "zstd compression level")
	_ = viper.BindPFlag("archive.level", packCmd.Flags().Lookup("level"))
}
