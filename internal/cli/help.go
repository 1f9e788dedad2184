package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maialino123/ecomate-extract/internal/ui"
)

// helpFunc renders colorized help on stdout. Long texts are printed as
// written since they carry aligned lists.
func helpFunc(cmd *cobra.Command, _ []string) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "\n%s\n", ui.ColorBold+ui.ColorCyan+strings.ToUpper(cmd.Name())+ui.ColorReset)
	if cmd.Short != "" {
		fmt.Fprintln(w, cmd.Short)
	}
	if long := strings.TrimSpace(cmd.Long); long != "" && long != cmd.Short {
		fmt.Fprintf(w, "\n%s\n", long)
	}

	writeUsage(w, cmd)

	if cmd.HasExample() {
		writeHeading(w, "Examples")
		for _, line := range strings.Split(cmd.Example, "\n") {
			switch trimmed := strings.TrimSpace(line); {
			case trimmed == "":
				fmt.Fprintln(w)
			case strings.HasPrefix(trimmed, "#"):
				fmt.Fprintf(w, "  %s\n", ui.ColorDim+trimmed+ui.ColorReset)
			default:
				fmt.Fprintf(w, "  %s\n", ui.ColorGreen+"$ "+trimmed+ui.ColorReset)
			}
		}
	}

	writeCommands(w, cmd)
	if cmd.HasAvailableLocalFlags() {
		writeHeading(w, "Flags")
		writeFlags(w, cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		writeHeading(w, "Global Flags")
		writeFlags(w, cmd.InheritedFlags().FlagUsages())
	}
	writeFooter(w, cmd)
}

// usageFunc renders the short usage shown on stderr after a flag error.
func usageFunc(cmd *cobra.Command) error {
	w := cmd.ErrOrStderr()
	writeUsage(w, cmd)
	writeCommands(w, cmd)
	if cmd.HasAvailableLocalFlags() {
		writeHeading(w, "Flags")
		writeFlags(w, cmd.LocalFlags().FlagUsages())
	}
	writeFooter(w, cmd)
	return nil
}

func writeHeading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", ui.ColorBold+ui.ColorWhite+title+ui.ColorReset)
}

func writeUsage(w io.Writer, cmd *cobra.Command) {
	writeHeading(w, "Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s\n", ui.ColorCyan+cmd.UseLine()+ui.ColorReset)
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s %s %s\n",
			ui.ColorCyan+cmd.CommandPath()+ui.ColorReset,
			ui.ColorYellow+"<command>"+ui.ColorReset,
			ui.ColorDim+"[flags]"+ui.ColorReset)
	}
}

func writeCommands(w io.Writer, cmd *cobra.Command) {
	if !cmd.HasAvailableSubCommands() {
		return
	}
	var subs []*cobra.Command
	width := 0
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() && c.Name() != "help" {
			subs = append(subs, c)
			width = max(width, len(c.Name()))
		}
	}

	writeHeading(w, "Commands")
	for _, c := range subs {
		fmt.Fprintf(w, "  %s%s%s\n",
			ui.ColorCyan+c.Name()+ui.ColorReset,
			strings.Repeat(" ", width-len(c.Name())+2),
			ui.ColorDim+c.Short+ui.ColorReset)
	}
}

// writeFlags recolors pflag's usage block, keeping its column layout.
func writeFlags(w io.Writer, usages string) {
	for _, line := range strings.Split(strings.TrimRight(usages, "\n"), "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if !strings.HasPrefix(trimmed, "-") {
			fmt.Fprintf(w, "%s\n", ui.ColorDim+line+ui.ColorReset)
			continue
		}
		indent := line[:len(line)-len(trimmed)]
		name, desc, found := strings.Cut(trimmed, "  ")
		if !found {
			fmt.Fprintf(w, "%s%s\n", indent, ui.ColorGreen+name+ui.ColorReset)
			continue
		}
		fmt.Fprintf(w, "%s%s  %s\n", indent, ui.ColorGreen+name+ui.ColorReset, ui.ColorDim+desc+ui.ColorReset)
	}
}

func writeFooter(w io.Writer, cmd *cobra.Command) {
	target := cmd.CommandPath()
	if cmd.HasAvailableSubCommands() {
		target += " <command>"
	}
	fmt.Fprintf(w, "\n%s\n\n", ui.ColorDim+`Use "`+target+` --help" for more information.`+ui.ColorReset)
}
