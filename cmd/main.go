package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jcgregorio/logger"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.kaleido.dev/pkg"
)

// flag names
const (
	configFlagName    = "config"
	debugFlagName     = "debug"
	operatorsFlagName = "operators"
	noColorFlagName   = "no-color"
)

var globalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  configFlagName,
		Usage: "path to a YAML config file",
	},
	&cli.BoolFlag{
		Name:  debugFlagName,
		Usage: "log every parsed item to stderr",
	},
	&cli.StringFlag{
		Name:  operatorsFlagName,
		Usage: "binary operators from lowest to highest precedence",
	},
	&cli.BoolFlag{
		Name:  noColorFlagName,
		Usage: "disable colored output",
	},
}

// env is what every command needs, built from the config file and flags.
type env struct {
	cfg *kaleido.Config
	ops *kaleido.OperatorTable
	log *logger.Logger
	out io.Writer
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "kaleido",
		Usage: "parse Kaleidoscope source and emit LLVM IR",
		Flags: globalFlags,
		Action: func(ctx *cli.Context) error {
			e, err := loadEnv(ctx, out)
			if err != nil {
				return err
			}

			return runREPL(e)
		},
		Commands: []*cli.Command{
			{
				Name:  "repl",
				Usage: "start an interactive session",
				Action: func(ctx *cli.Context) error {
					e, err := loadEnv(ctx, out)
					if err != nil {
						return err
					}

					return runREPL(e)
				},
			},
			{
				Name:      "parse",
				Usage:     "print the AST of each file",
				ArgsUsage: "FILE...",
				Action: func(ctx *cli.Context) error {
					e, err := loadEnv(ctx, out)
					if err != nil {
						return err
					}

					return printASTs(ctx.Context, e, ctx.Args().Slice())
				},
			},
			{
				Name:      "ir",
				Usage:     "print the LLVM IR module of each file",
				ArgsUsage: "FILE...",
				Action: func(ctx *cli.Context) error {
					e, err := loadEnv(ctx, out)
					if err != nil {
						return err
					}

					return printModules(ctx.Context, e, ctx.Args().Slice())
				},
			},
		},
	}
}

func loadEnv(ctx *cli.Context, out io.Writer) (*env, error) {
	cfg := kaleido.DefaultConfig()
	if path := ctx.String(configFlagName); path != "" {
		var err error
		if cfg, err = kaleido.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if ctx.IsSet(operatorsFlagName) {
		cfg.Operators = ctx.String(operatorsFlagName)
	}

	if ctx.Bool(debugFlagName) {
		cfg.Debug = true
	}

	if ctx.Bool(noColorFlagName) {
		cfg.Color = false
	}
	color.NoColor = !cfg.Color

	ops, err := cfg.OperatorTable()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid operators %q", cfg.Operators)
	}

	return &env{
		cfg: cfg,
		ops: ops,
		log: logger.NewFromOptions(&logger.Options{
			SyncWriter:   os.Stderr,
			IncludeDebug: cfg.Debug,
		}),
		out: out,
	}, nil
}
