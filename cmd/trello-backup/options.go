package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// ExitError carries the exit status for an error. Usage errors are reported together with the usage text.
type ExitError struct {
	Code  int
	Usage bool
	Err   error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func usageError(err error) *ExitError {
	return &ExitError{Code: 2, Usage: true, Err: err}
}

type options struct {
	key         string
	token       string
	name        string
	attachments bool
	configPath  string
}

type backupFunc func(ctx context.Context, stdout io.Writer, opts *options) error

// newRootCmd builds the command line. The help flag short-circuits everything else, including validation of the
// other flags. The backup function runs only once key, token and name are all given. Arguments are expected to have
// gone through normalizeArgs.
func newRootCmd(stdout io.Writer, backup backupFunc) *cobra.Command {
	var (
		opts        options
		attachments string
	)
	cmd := &cobra.Command{
		Use:           "trello-backup",
		Short:         "Back up Trello boards, cards and attachments",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.key == "" || opts.token == "" || opts.name == "" {
				return usageError(errors.New("-k, -t and -n are required"))
			}
			a, err := strconv.ParseBool(attachments)
			if err != nil {
				return usageError(fmt.Errorf("-a must be true or false, got %q", attachments))
			}
			opts.attachments = a
			return backup(cmd.Context(), stdout, &opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.key, "key", "k", "", "API key")
	flags.StringVarP(&opts.token, "token", "t", "", "API token")
	flags.StringVarP(&opts.name, "name", "n", "", "backup name")
	flags.StringVarP(&attachments, "attachments", "a", "true", "get attachments")
	flags.Lookup("attachments").NoOptDefVal = "true"
	flags.StringVar(&opts.configPath, "config", "", "configuration file")
	flags.SortFlags = false

	cmd.SetOut(stdout)
	cmd.SetErr(stdout)
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		printHelp(c.OutOrStdout(), true)
	})
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	return cmd
}

// wantsHelp reports whether -h or --help appears anywhere before a "--" terminator. Help wins over every other
// option, including unknown or incomplete ones.
func wantsHelp(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--":
			return false
		case "-h", "--help":
			return true
		}
	}
	return false
}

// normalizeArgs joins -a with the value following it, so that both "-a false" and a bare "-a" work: a bare -a
// (last argument or followed by another flag) means true.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if (arg == "-a" || arg == "--attachments") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, arg+"="+args[i+1])
			i++
			continue
		}
		out = append(out, arg)
	}
	return out
}

func printHelp(w io.Writer, showDesc bool) {
	if showDesc {
		_, _ = fmt.Fprint(w, `
trello-backup backs up all Trello boards of a member, with their cards and
attachments, using the member's API key and token.
`)
	}
	_, _ = fmt.Fprintf(w, `
Usage:
  trello-backup -k <key> -t <token> -n <name> [-a true|false] [--config file]

Required:
  -k  API key          [key]
  -t  API token        [token]
  -n  Backup name      [name]          directory the backup is written to

Optional:
  -a  Get attachments  [true|false]    default true
  --config             [file]          YAML configuration, default $%s
  -h  Show this help

Example:
  trello-backup -k 3d1522c... -t 55782c2b664c9c... -n boards-2026 -a false
`, configEnv)
}
