package main

import (
	"fmt"
	"os"

	"github.com/saylorsolutions/wordarmor/cmd/internal"
	flag "github.com/spf13/pflag"
)

var version = "dev"

type command struct {
	summary string
	usage   string
	run     func(cfg Config, flags *flag.FlagSet) error
	// extra registers flags specific to the command.
	extra func(flags *flag.FlagSet)
}

var commands = map[string]*command{
	"don": {
		summary: "Armor FILE (or stdin) into messages, one per line on stdout.",
		usage:   "caw don [FLAGS] [FILE]",
		run:     runDon,
	},
	"doff": {
		summary: "Recover data from messages in FILE (or stdin), one per line, in any order.",
		usage:   "caw doff [FLAGS] [FILE]",
		run:     runDoff,
		extra:   doffFlags,
	},
	"table": {
		summary: "Write the mapping table for a date, so it can be used without the secret.",
		usage:   "caw table [FLAGS] OUTPUT",
		run:     runTable,
	},
	"keygen": {
		summary: "Generate a new shared secret and lock it in a keyfile with a passphrase.",
		usage:   "caw keygen [FLAGS] KEYFILE",
		run:     runKeygen,
		extra:   keygenFlags,
	},
	"serve": {
		summary: "Serve the don and doff operations over HTTP.",
		usage:   "caw serve [FLAGS]",
		run:     runServe,
		extra:   serveFlags,
	},
}

func usage() {
	fmt.Printf(`
caw disguises binary data as word-salad messages that rotate daily, using a secret shared with the receiver.

USAGE:  caw COMMAND [FLAGS] [ARGS]

COMMANDS:
    don      %s
    doff     %s
    table    %s
    keygen   %s
    serve    %s

Run 'caw COMMAND --help' for the flags of each command.

SECURITY:
    This is not encryption, this is obfuscation!
The word mapping can be recovered by frequency analysis, so encrypt anything sensitive before armoring it.
Both parties must use the same catalog, secret, and UTC date.

Version: %s
`,
		commands["don"].summary,
		commands["doff"].summary,
		commands["table"].summary,
		commands["keygen"].summary,
		commands["serve"].summary,
		version,
	)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	name := os.Args[1]
	if name == "-h" || name == "--help" || name == "help" {
		usage()
		return
	}
	cmd, ok := commands[name]
	if !ok {
		usage()
		internal.Fatal("Unknown command '%s'", name)
	}

	var common commonFlags
	flags := flag.NewFlagSet("caw "+name, flag.ContinueOnError)
	common.register(flags)
	if cmd.extra != nil {
		cmd.extra(flags)
	}
	flags.Usage = func() {
		fmt.Printf("\n%s\n\nUSAGE:  %s\n\nFLAGS:\n%s\n", cmd.summary, cmd.usage, flags.FlagUsages())
	}
	if err := flags.Parse(os.Args[2:]); err != nil {
		flags.Usage()
		internal.Fatal("Error parsing flags: %v", err)
	}
	if common.help {
		flags.Usage()
		return
	}
	internal.Verbose = common.verbose

	cfg, err := loadConfig(common.config)
	if err != nil {
		internal.Fatal("%v", err)
	}
	cfg = common.merge(flags, cfg)
	if err := cfg.validate(); err != nil {
		internal.Fatal("Configuration error: %v", err)
	}
	if err := cmd.run(cfg, flags); err != nil {
		internal.Fatal("Failed to %s: %v", name, err)
	}
}
