package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// stdinIsTerminal reports whether the process stdin is interactive.
var stdinIsTerminal = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// confirm prints question and reads one line from the command's input. It
// returns true only when the answer matches one of accept, ignoring case.
// A non-interactive stdin declines without reading.
func confirm(cmd *cobra.Command, question string, accept ...string) (bool, error) {
	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()
	if f, ok := in.(*os.File); ok && f == os.Stdin && !stdinIsTerminal() {
		fmt.Fprintf(out, "%s (not a terminal, declining)\n", question)
		return false, nil
	}

	fmt.Fprint(out, question+" ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	if err == io.EOF && line == "" {
		fmt.Fprintln(out)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	for _, a := range accept {
		if answer == a {
			return true, nil
		}
	}
	return false, nil
}
