package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cobra"
	"github.com/voicevox-ue/vvstage/internal/manifest"
	"github.com/voicevox-ue/vvstage/internal/report"
)

var (
	planOutput string
	planFormat string
	planStyle  string

	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Show the module rules a profile produces",
		Long: paragraph(fmt.Sprintf("\n%s the include paths, libraries, delay-load entries and runtime dependencies of a profile without copying anything.",
			keyword("Show"))),
		Example: paragraph("vvstage plan -P native-core --platform Win64\nvvstage plan --format markdown\nvvstage plan -o Intermediate/vvstage.yml"),
		Args:    cobra.NoArgs,
		RunE:    runPlan,
	}
)

func init() {
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "write a manifest (.yml, .yaml or .json) instead of printing")
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "text", "output format: text, markdown, yaml or json")
	planCmd.Flags().StringVarP(&planStyle, "style", "s", styles.AutoStyle, "glamour style name or JSON path for markdown output")
}

func runPlan(*cobra.Command, []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	plan, err := buildPlan(s)
	if err != nil {
		return err
	}
	mr, err := plan.Evaluate()
	if err != nil {
		return err
	}

	if planOutput != "" {
		if err := manifest.Save(planOutput, manifest.New(mr)); err != nil {
			return err
		}
		fmt.Println("Wrote manifest to:", planOutput)
		return nil
	}

	switch planFormat {
	case "text":
		fmt.Print(report.Plan(mr, reportStyles()))
		return nil
	case "markdown", "md":
		style := planStyle
		if !report.IsTTY(os.Stdout) && style == styles.AutoStyle {
			style = "notty"
		}
		out, err := report.RenderMarkdown(report.PlanMarkdown(mr), style, min(report.Width(os.Stdout, 80), 120))
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	case "yaml", "yml":
		return manifest.Encode(os.Stdout, manifest.New(mr), manifest.YAML)
	case "json":
		return manifest.Encode(os.Stdout, manifest.New(mr), manifest.JSON)
	default:
		return fmt.Errorf("unknown format %q", planFormat)
	}
}
