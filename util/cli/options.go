package cli

import (
	"flag"
	"fmt"
	"io"
)

// Options are the storage_gateway command line settings. Command is
// the first positional argument and Args holds the rest.
type Options struct {
	Args             []string
	BypassValidation bool
	Command          string
	ConnectorID      string
	Encoding         string
	EntityID         string
	ErrorOnExisting  bool
	First            int
	Manual           bool
	MetricsListen    string
	MimePrefix       string
	MimeType         string
	NoTriggerImport  bool
	PrintHelp        bool
	Recursive        bool
	UserID           string
}

var EnvMessage = `This requires the following environment vars:

APT_CONFIG_DIR - Path to the directory containing the .env settings file.

APT_SERVICES_CONFIG - Name of the configuration to load. For example:
    test - Loads .env.test from APT_CONFIG_DIR
    demo - Loads .env.demo from APT_CONFIG_DIR
`

var flags *flag.FlagSet

func newFlagSet(opts *Options) *flag.FlagSet {
	fs := flag.NewFlagSet("storage_gateway", flag.ContinueOnError)
	fs.BoolVar(&opts.BypassValidation, "bypass-validation", false, "Ask connectors to skip validation on import")
	fs.StringVar(&opts.ConnectorID, "connector", "", "Import with this connector only")
	fs.StringVar(&opts.Encoding, "encoding", "", "Content encoding of the uploaded file")
	fs.StringVar(&opts.EntityID, "entity", "", "Internal id of the entity the file belongs to")
	fs.BoolVar(&opts.ErrorOnExisting, "no-overwrite", false, "Fail if a file with the same name exists")
	fs.IntVar(&opts.First, "first", 0, "Number of files to list (0 for all)")
	fs.BoolVar(&opts.Manual, "manual", false, "Import with connectors that don't trigger automatically")
	fs.StringVar(&opts.MetricsListen, "metrics-listen", "", "Address for serve to expose /metrics on (overrides METRICS_LISTEN)")
	fs.StringVar(&opts.MimePrefix, "mime-filter", "", "List only files whose MIME type contains this")
	fs.StringVar(&opts.MimeType, "mime", "application/octet-stream", "Declared MIME type of the uploaded file")
	fs.BoolVar(&opts.NoTriggerImport, "no-import", false, "Don't start import jobs for the upload")
	fs.BoolVar(&opts.PrintHelp, "help", false, "Print help message")
	fs.BoolVar(&opts.Recursive, "recursive", false, "List nested files too")
	fs.StringVar(&opts.UserID, "user", "", "Id of the user on whose behalf to act")
	return fs
}

// ParseOpts parses the command line arguments, not including the
// program name. Flags must come before the command.
func ParseOpts(args []string, output io.Writer) (Options, error) {
	opts := Options{}
	flags = newFlagSet(&opts)
	flags.SetOutput(output)
	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	rest := flags.Args()
	if len(rest) > 0 {
		opts.Command = rest[0]
		opts.Args = rest[1:]
	}
	return opts, nil
}

// RequireArgs returns an error unless the command got at least n
// arguments.
func (opts Options) RequireArgs(n int, usage string) error {
	if len(opts.Args) < n {
		return fmt.Errorf("usage: storage_gateway [flags] %s %s", opts.Command, usage)
	}
	return nil
}

func PrintDefaults() {
	if flags != nil {
		flags.PrintDefaults()
	}
}
