// Package match implements the match command: find every occurrence of a
// wildcard pattern in a text.
package match

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/endorses/wildscan/internal/pkg/cmdutil"
	"github.com/endorses/wildscan/internal/pkg/output"
	"github.com/endorses/wildscan/internal/pkg/wildcard"
	"github.com/spf13/cobra"
)

// Result is the JSON form of a match run.
type Result struct {
	Pattern  string `json:"pattern"`
	Wildcard string `json:"wildcard"`
	Offsets  []int  `json:"offsets"`
}

// NewCommand returns the match command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match [PATTERN TEXT]",
		Short: "Print the offsets where a wildcard pattern occurs in a text",
		Long: `Print every 0-based offset at which PATTERN occurs in TEXT, in increasing
order and separated by spaces. The wildcard byte matches any single byte.

Without arguments, the pattern and the text are read from standard input as
two whitespace-separated tokens.`,
		Example: `  wildscan match 'a?c' abcaac
  echo 'a?c abcaac' | wildscan match
  wildscan match --wildcard '*' 'a*c' abcaac --json`,
		Args: cmdutil.WrapArgs(func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("accepts 0 or 2 arg(s), received %d", len(args))
			}
			return nil
		}),
		RunE: run,
	}

	cmd.Flags().String("wildcard", string(wildcard.DefaultWildcard), "byte that matches any single byte")
	cmd.Flags().Bool("json", false, "print the result as JSON")
	cmd.Flags().Bool("highlight", output.IsTTY(), "also print the text with matches highlighted")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	wc, err := wildcard.ParseWildcard(cmdutil.GetString(cmd.Flags(), "wildcard", "match.wildcard"))
	if err != nil {
		return cmdutil.UsageError(err)
	}

	pattern, text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	offsets, err := wildcard.FindAll(pattern, wc, []byte(text))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if cmdutil.GetBool(cmd.Flags(), "json", "match.json") {
		if offsets == nil {
			offsets = []int{}
		}
		data, err := output.MarshalJSON(Result{Pattern: pattern, Wildcard: string(wc), Offsets: offsets})
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fields := make([]string, len(offsets))
	for i, off := range offsets {
		fields[i] = strconv.Itoa(off)
	}
	fmt.Fprintln(out, strings.Join(fields, " "))

	if cmdutil.GetBool(cmd.Flags(), "highlight", "match.highlight") {
		h := output.NewHighlighter(output.IsTTY())
		fmt.Fprintln(out, h.Render(text, offsets, len(pattern)))
	}
	return nil
}

// readInput returns the pattern and text from args, or from the first two
// whitespace-separated tokens of stdin.
func readInput(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1<<30)
	scanner.Split(bufio.ScanWords)

	var tokens []string
	for len(tokens) < 2 && scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", "", cmdutil.InputError(fmt.Errorf("failed to read input: %w", err))
	}
	if len(tokens) < 2 {
		return "", "", cmdutil.InputError(errors.New("expected a pattern and a text on standard input"))
	}
	return tokens[0], tokens[1], nil
}
