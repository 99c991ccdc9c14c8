// Package report renders plans, checks and staging results for the terminal.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/voicevox-ue/vvstage/internal/archive"
	"github.com/voicevox-ue/vvstage/internal/discover"
	"github.com/voicevox-ue/vvstage/internal/platform"
	"github.com/voicevox-ue/vvstage/internal/rules"
	"github.com/voicevox-ue/vvstage/internal/stage"
	"github.com/voicevox-ue/vvstage/utils"
	"golang.org/x/term"
)

// Styles used by the renderers.
type Styles struct {
	Title    lipgloss.Style
	OK       lipgloss.Style
	Missing  lipgloss.Style
	Optional lipgloss.Style
	Faint    lipgloss.Style
}

// NewStyles returns the report styles. Without color every style is plain.
func NewStyles(color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{Title: plain, OK: plain, Missing: plain, Optional: plain, Faint: plain}
	}
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		OK:       lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Missing:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Optional: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Faint:    lipgloss.NewStyle().Faint(true),
	}
}

// IsTTY reports whether f is a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec
}

// Width returns the terminal width of f, or fallback.
func Width(f *os.File, fallback int) int {
	w, _, err := term.GetSize(int(f.Fd())) //nolint:gosec
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// Check renders the input status of a profile.
func Check(profile string, target platform.Target, results []rules.Status, s Styles) string {
	var b strings.Builder

	b.WriteString(s.Title.Render(fmt.Sprintf("%s inputs for %s", profile, target)))
	b.WriteString("\n\n")

	if len(results) == 0 {
		b.WriteString(s.Optional.Render("  ○ no layout for this platform"))
		b.WriteString("\n")
		return b.String()
	}

	for _, st := range results {
		detail := st.Path
		if st.Present {
			detail = fmt.Sprintf("%s (%s", st.Path, humanize.Bytes(uint64(st.Size))) //nolint:gosec
			if st.Files > 1 || st.Kind == rules.KindDirectory || st.Kind == rules.KindBundle {
				detail += fmt.Sprintf(", %d files", st.Files)
			}
			detail += ")"
		}

		switch {
		case st.Present:
			b.WriteString(s.OK.Render(fmt.Sprintf("  ✓ %s: ", st.Name)))
			b.WriteString(detail)
		case st.Required:
			b.WriteString(s.Missing.Render(fmt.Sprintf("  ✗ %s: ", st.Name)))
			b.WriteString("not found " + s.Faint.Render(detail))
		default:
			b.WriteString(s.Optional.Render(fmt.Sprintf("  ○ %s: ", st.Name)))
			b.WriteString("not found (optional)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Plan renders evaluated module rules as a plain listing.
func Plan(mr *rules.ModuleRules, s Styles) string {
	var b strings.Builder

	b.WriteString(s.Title.Render(fmt.Sprintf("%s (%s) for %s", mr.Profile, mr.Module, mr.Platform)))
	b.WriteString("\n")

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("\n" + title + ":\n")
		for _, it := range items {
			b.WriteString("  " + it + "\n")
		}
	}
	section("Include paths", mr.SystemIncludePaths)
	section("Libraries", mr.AdditionalLibraries)
	section("Delay-load", mr.DelayLoadDLLs)
	section("Definitions", mr.PublicDefinitions)

	if len(mr.RuntimeDependencies) > 0 {
		b.WriteString(fmt.Sprintf("\nRuntime dependencies (%d):\n", len(mr.RuntimeDependencies)))
		for _, p := range mr.RuntimeDependencies {
			b.WriteString("  " + p.Destination + "\n")
			b.WriteString("    " + s.Faint.Render("← "+p.Source) + "\n")
		}
	}
	return b.String()
}

// PlanMarkdown renders evaluated module rules as markdown.
func PlanMarkdown(mr *rules.ModuleRules) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", mr.Profile)
	fmt.Fprintf(&b, "Module `%s` on `%s`.\n", mr.Module, mr.Platform)

	list := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n## %s\n\n", title)
		for _, it := range items {
			fmt.Fprintf(&b, "- `%s`\n", it)
		}
	}
	list("Include paths", mr.SystemIncludePaths)
	list("Libraries", mr.AdditionalLibraries)
	list("Delay-load", mr.DelayLoadDLLs)
	list("Definitions", mr.PublicDefinitions)

	if len(mr.RuntimeDependencies) > 0 {
		b.WriteString("\n## Runtime dependencies\n\n")
		b.WriteString("| Destination | Source |\n|---|---|\n")
		for _, p := range mr.RuntimeDependencies {
			fmt.Fprintf(&b, "| `%s` | `%s` |\n", p.Destination, p.Source)
		}
	}
	if len(mr.Skipped) > 0 {
		list("Skipped", mr.Skipped)
	}
	return b.String()
}

// RenderMarkdown renders markdown with glamour.
func RenderMarkdown(md, style string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		utils.GlamourStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	return r.Render(md)
}

// Staged summarises a copy pass.
func Staged(stats stage.CopyStats, took time.Duration, s Styles) string {
	return s.OK.Render("✓ ") + fmt.Sprintf("staged %d files (%s) in %s",
		stats.Files, humanize.Bytes(uint64(stats.Bytes)), took.Round(time.Millisecond)) //nolint:gosec
}

// Registered summarises a register-mode pass.
func Registered(n int, s Styles) string {
	return s.OK.Render("✓ ") + fmt.Sprintf("registered %d runtime dependencies", n)
}

// Packed summarises an archive.
func Packed(stats archive.Stats, out string, size int64, s Styles) string {
	return s.OK.Render("✓ ") + fmt.Sprintf("packed %d files (%s) into %s (%s)",
		stats.Files, humanize.Bytes(uint64(stats.Bytes)), out, humanize.Bytes(uint64(size))) //nolint:gosec
}

// Modules renders discovered module directories.
func Modules(mods []discover.Module, s Styles) string {
	if len(mods) == 0 {
		return s.Optional.Render("no module directories found") + "\n"
	}

	var b strings.Builder
	for _, m := range mods {
		platforms := make([]string, len(m.Platforms))
		for i, p := range m.Platforms {
			platforms[i] = string(p)
		}
		tag := strings.Join(platforms, ", ")
		if m.Nemo {
			tag += ", nemo"
		}
		b.WriteString(s.Title.Render(m.Dir))
		b.WriteString(" " + s.Faint.Render("["+tag+"]") + "\n")
	}
	return b.String()
}
