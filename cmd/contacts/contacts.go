// Package contacts implements the contacts command: an interactive phone
// book searchable by number prefix and number pattern.
package contacts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/endorses/wildscan/internal/pkg/cmdutil"
	"github.com/endorses/wildscan/internal/pkg/logger"
	"github.com/endorses/wildscan/internal/pkg/phonebook"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const helpText = `Commands:
  add NUMBER FAMILY   add a contact, or move FAMILY to a new number
  phone FAMILY        print the number of FAMILY
  prefix DIGITS       list families whose number starts with DIGITS
  pattern PATTERN     list families whose number starts with PATTERN,
                      where any non-digit matches any digit
  list                list all contacts
  save [FILE]         save the book (default: the --book file)
  help                show this help
  quit                leave`

// NewCommand returns the contacts command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Interactive phone book with prefix and pattern search",
		Long: `Run an interactive phone book. Commands are read one per line from
standard input, so the book can also be scripted through a pipe.

` + helpText,
		Args: cmdutil.WrapArgs(cobra.NoArgs),
		RunE: run,
	}

	cmd.Flags().String("book", "", "YAML file to load the book from and save it to")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	path := cmdutil.GetString(cmd.Flags(), "book", "contacts.book")

	book := phonebook.New()
	if path != "" {
		loaded, err := phonebook.Load(path)
		if err != nil {
			return cmdutil.InputError(err)
		}
		book = loaded
		logger.Debug("Loaded phone book", "path", path, "contacts", book.Len())
	}

	s := &session{
		book:   book,
		path:   path,
		out:    cmd.OutOrStdout(),
		prompt: isTerminal(cmd.InOrStdin()),
	}
	return s.loop(cmd.InOrStdin())
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type session struct {
	book   *phonebook.Book
	path   string
	out    io.Writer
	prompt bool
}

func (s *session) loop(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if s.prompt {
			fmt.Fprint(s.out, "> ")
		}
		if !scanner.Scan() {
			break
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			break
		}
		s.execute(fields[0], fields[1:])
	}
	if err := scanner.Err(); err != nil {
		return cmdutil.InputError(fmt.Errorf("failed to read commands: %w", err))
	}
	return nil
}

func (s *session) execute(name string, args []string) {
	switch name {
	case "add":
		if len(args) != 2 {
			s.usage("add NUMBER FAMILY")
			return
		}
		if err := s.book.Add(args[0], args[1]); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "added %s\n", args[1])

	case "phone":
		if len(args) != 1 {
			s.usage("phone FAMILY")
			return
		}
		if n, ok := s.book.PhoneByFamily(args[0]); ok {
			fmt.Fprintln(s.out, n)
		} else {
			fmt.Fprintln(s.out, "No users found")
		}

	case "prefix":
		if len(args) != 1 {
			s.usage("prefix DIGITS")
			return
		}
		s.printFamilies(s.book.FamiliesByPrefix(args[0]))

	case "pattern":
		if len(args) != 1 {
			s.usage("pattern PATTERN")
			return
		}
		s.printFamilies(s.book.SearchPattern(args[0]))

	case "list":
		for _, c := range s.book.Contacts() {
			fmt.Fprintf(s.out, "%s %s\n", c.Family, c.Number)
		}

	case "save":
		path := s.path
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			s.usage("save FILE")
			return
		}
		if err := s.book.Save(path); err != nil {
			logger.Error("Failed to save phone book", "path", path, "error", err)
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "saved %d contacts to %s\n", s.book.Len(), path)

	case "help":
		fmt.Fprintln(s.out, helpText)

	default:
		fmt.Fprintf(s.out, "unknown command %q, try help\n", name)
	}
}

func (s *session) printFamilies(families []string) {
	if len(families) == 0 {
		fmt.Fprintln(s.out, "No users found")
		return
	}
	for _, f := range families {
		fmt.Fprintln(s.out, f)
	}
}

func (s *session) usage(syntax string) {
	fmt.Fprintf(s.out, "usage: %s\n", syntax)
}
