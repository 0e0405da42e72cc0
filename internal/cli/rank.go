package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	deperrors "github.com/matzehuels/deprank/pkg/errors"
	"github.com/matzehuels/deprank/pkg/rank"
)

// rankOpts holds the flags of the rank command.
type rankOpts struct {
	file   string
	format string
	strict bool
}

// rankCommand creates the rank command.
func (c *CLI) rankCommand() *cobra.Command {
	opts := &rankOpts{}

	cmd := &cobra.Command{
		Use:   "rank [package|owner/repo|url ...]",
		Short: "Rank packages and repositories by GitHub dependents",
		Long: `Rank Python packages and GitHub repositories by the number of public
repositories that depend on them.

Identifiers may be PyPI package names, owner/repo pairs or GitHub URLs,
separated by commas, whitespace or newlines. Identifiers that resolve to the
same repository are listed once, under the first name given.`,
		Example: `  deprank rank numpy pandas scikit-learn
  deprank rank pallets/flask https://github.com/psf/requests
  deprank rank --file python-libs.txt --format csv
  cat libs.txt | deprank rank --file - --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("strict") {
				opts.strict = c.Config.Strict
			}
			return c.runRank(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read identifiers from a file (- for stdin)")
	cmd.Flags().StringVarP(&opts.format, "format", "o", formatTable, "output format: table, json or csv")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "report unreadable dependents pages as unknown instead of 0")

	return cmd
}

func (c *CLI) runRank(cmd *cobra.Command, args []string, opts *rankOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if err := validateFormat(opts.format); err != nil {
		return err
	}
	input, err := readInput(args, opts.file, c.stdin)
	if err != nil {
		return err
	}
	tokens := rank.Tokenize(input)
	if len(tokens) == 0 {
		return deperrors.New(deperrors.ErrCodeInvalidInput, "no package names or repositories given")
	}

	store, err := c.newCache(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	agg := c.newAggregator(store)
	prog := newProgress(logger)

	var spinner *Spinner
	runOpts := rank.Options{Strict: opts.strict}
	if opts.format == formatTable {
		spinner = newSpinnerWithContext(ctx, fmt.Sprintf("Ranking %d identifiers...", len(tokens)))
		spinner.Start()
		runOpts.Progress = func(done, total int) {
			spinner.SetMessage(fmt.Sprintf("Ranking identifiers... %d/%d", done, total))
		}
	}

	res, err := agg.Aggregate(ctx, input, runOpts)
	if spinner != nil {
		if err != nil && !spinner.Cancelled() {
			spinner.StopWithError("Ranking failed")
		} else {
			spinner.Stop()
		}
	}
	if err != nil {
		return err
	}

	if err := writeResult(c.stdout, res, opts.format); err != nil {
		return err
	}

	msg := fmt.Sprintf("Ranked %d rows", len(res.Rows))
	if res.Cached {
		msg += " from cache"
	}
	prog.done(msg)
	return nil
}

// readInput collects identifiers from args and the --file source.
// File content comes first, then the arguments, one per line.
func readInput(args []string, file string, stdin io.Reader) (string, error) {
	var parts []string

	switch file {
	case "":
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", deperrors.Wrap(deperrors.ErrCodeInvalidInput, err, "read stdin")
		}
		parts = append(parts, string(data))
	default:
		data, err := os.ReadFile(file)
		if err != nil {
			return "", deperrors.Wrap(deperrors.ErrCodeInvalidInput, err, "read %s", file)
		}
		parts = append(parts, string(data))
	}

	parts = append(parts, args...)
	return strings.Join(parts, "\n"), nil
}
