// internal/cli/help.go
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/scrapejob/internal/ui"
)

// minFlagWidth keeps flag descriptions aligned across sections
const minFlagWidth = 28

// helpPrinter renders colorized help sections to one writer
type helpPrinter struct {
	w   io.Writer
	cmd *cobra.Command
}

func (p helpPrinter) heading(title string) {
	fmt.Fprintf(p.w, "\n%s%s%s\n", ui.ColorBold+ui.ColorWhite, title, ui.ColorReset)
}

func (p helpPrinter) usage() {
	p.heading("Usage")
	if p.cmd.Runnable() {
		fmt.Fprintf(p.w, "  %s%s%s\n", ui.ColorCyan, p.cmd.UseLine(), ui.ColorReset)
	}
	if p.cmd.HasAvailableSubCommands() {
		fmt.Fprintf(p.w, "  %s%s%s %s<command>%s %s[flags]%s\n",
			ui.ColorCyan, p.cmd.CommandPath(), ui.ColorReset,
			ui.ColorYellow, ui.ColorReset,
			ui.ColorDim, ui.ColorReset)
	}
}

// examples prints comment lines dimmed and command lines as shell prompts
func (p helpPrinter) examples() {
	if !p.cmd.HasExample() {
		return
	}
	p.heading("Examples")
	afterCommand := false
	for _, line := range strings.Split(p.cmd.Example, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "#"):
			if afterCommand {
				fmt.Fprintln(p.w)
			}
			fmt.Fprintf(p.w, "  %s%s%s\n", ui.ColorDim, line, ui.ColorReset)
			afterCommand = false
		default:
			fmt.Fprintf(p.w, "  %s$ %s%s\n", ui.ColorGreen, line, ui.ColorReset)
			afterCommand = true
		}
	}
}

func (p helpPrinter) commands() {
	if !p.cmd.HasAvailableSubCommands() {
		return
	}
	p.heading("Commands")

	var visible []*cobra.Command
	width := 0
	for _, c := range p.cmd.Commands() {
		if !c.IsAvailableCommand() || c.Name() == "help" {
			continue
		}
		visible = append(visible, c)
		width = max(width, len(c.Name()))
	}
	for _, c := range visible {
		fmt.Fprintf(p.w, "  %s%-*s%s  %s%s%s\n",
			ui.ColorCyan, width, c.Name(), ui.ColorReset,
			ui.ColorDim, c.Short, ui.ColorReset)
	}
}

// flags prints pflag usage text with flag names and descriptions in separate columns
func (p helpPrinter) flags(title, usages string) {
	p.heading(title)

	lines := strings.Split(usages, "\n")
	width := minFlagWidth
	for _, line := range lines {
		if name, _, ok := splitFlagLine(line); ok {
			width = max(width, len(name))
		}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, desc, ok := splitFlagLine(line)
		switch {
		case !ok:
			fmt.Fprintf(p.w, "%s%s%s%s\n", strings.Repeat(" ", width+4), ui.ColorDim, strings.TrimSpace(line), ui.ColorReset)
		case desc == "":
			fmt.Fprintf(p.w, "  %s%s%s\n", ui.ColorGreen, name, ui.ColorReset)
		default:
			fmt.Fprintf(p.w, "  %s%-*s%s  %s%s%s\n",
				ui.ColorGreen, width, name, ui.ColorReset,
				ui.ColorDim, desc, ui.ColorReset)
		}
	}
}

// splitFlagLine splits "  -o, --output string   description" into its two columns.
// ok is false for continuation lines.
func splitFlagLine(line string) (name, desc string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	if !strings.HasPrefix(trimmed, "-") {
		return "", "", false
	}
	name, desc, _ = strings.Cut(trimmed, "  ")
	return strings.TrimSpace(name), strings.TrimSpace(desc), true
}

func (p helpPrinter) moreInfo(subcommand bool) {
	target := ""
	if subcommand {
		target = fmt.Sprintf(" %s<command>%s", ui.ColorYellow, ui.ColorReset+ui.ColorDim)
	}
	fmt.Fprintf(p.w, "\n%sUse \"%s%s%s%s %s--help%s\" for more information.%s\n",
		ui.ColorDim,
		ui.ColorCyan, p.cmd.CommandPath(), ui.ColorReset+ui.ColorDim,
		target,
		ui.ColorGreen, ui.ColorReset+ui.ColorDim,
		ui.ColorReset)
}

// customHelpFunc provides a colorized help output
func customHelpFunc(cmd *cobra.Command, args []string) {
	p := helpPrinter{w: cmd.OutOrStdout(), cmd: cmd}

	fmt.Fprintf(p.w, "\n%s%s%s\n", ui.ColorBold+ui.ColorCyan, strings.ToUpper(cmd.Name()), ui.ColorReset)
	if cmd.Short != "" {
		fmt.Fprintln(p.w, cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(p.w, "\n%s\n", wrapText(cmd.Long, 80))
	}

	p.usage()
	p.examples()
	p.commands()
	if cmd.HasAvailableLocalFlags() {
		p.flags("Flags", cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		p.flags("Global Flags", cmd.InheritedFlags().FlagUsages())
	}
	if cmd.HasAvailableSubCommands() {
		p.moreInfo(true)
	}
	fmt.Fprintln(p.w)
}

// customUsageFunc provides a colorized usage output
func customUsageFunc(cmd *cobra.Command) error {
	p := helpPrinter{w: cmd.ErrOrStderr(), cmd: cmd}

	p.usage()
	p.commands()
	if cmd.HasAvailableLocalFlags() {
		p.flags("Flags", cmd.LocalFlags().FlagUsages())
	}
	p.moreInfo(false)
	return nil
}

// wrapText wraps text at width. Blank lines separate paragraphs; list items and
// indented lines are kept as written.
func wrapText(text string, width int) string {
	var paragraphs []string
	for _, para := range strings.Split(text, "\n\n") {
		var out []string
		for _, line := range strings.Split(para, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if strings.HasPrefix(line, " ") || strings.HasPrefix(strings.TrimSpace(line), "-") {
				out = append(out, line)
				continue
			}
			out = append(out, wrapLine(line, width)...)
		}
		if len(out) > 0 {
			paragraphs = append(paragraphs, strings.Join(out, "\n"))
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

func wrapLine(line string, width int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(line) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
