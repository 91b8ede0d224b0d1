package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/reoring/jsonvalidator"
	"github.com/reoring/jsonvalidator/i18n"
	_ "github.com/reoring/jsonvalidator/source"
	"github.com/reoring/jsonvalidator/validator"
	"github.com/reoring/jsonvalidator/value"
)

func main() {
	cmd := &cli.Command{
		Name:  "jsonvalidator",
		Usage: "draft-07 JSON Schema validation with default filling",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "lang",
				Value:   "en",
				Sources: cli.EnvVars("JSONVALIDATOR_LANG"),
				Usage:   "language of violation messages (en, ja)",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			i18n.SetLanguage(c.String("lang"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			validateCommand(),
			checkCommand(),
			patchCommand(),
			serveCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			os.Exit(exit.ExitCode())
		}
		os.Exit(1)
	}
}

func schemaFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "schema",
			Aliases:  []string{"s"},
			Required: true,
			Usage:    "schema file",
		},
		&cli.StringFlag{
			Name:    "base-dir",
			Sources: cli.EnvVars("JSONVALIDATOR_BASE_DIR"),
			Usage:   "directory external $ref documents are read from",
		},
		&cli.BoolFlag{
			Name:  "fail-fast",
			Usage: "stop at the first violation",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "reject duplicate object keys",
		},
	}
}

func parseOptions(c *cli.Command) value.ParseOptions {
	if c.Bool("strict") {
		return value.ParseOptions{OnDuplicateKey: value.DuplicateError}
	}
	return value.ParseOptions{}
}

func options(c *cli.Command) []jsonvalidator.Option {
	opts := []jsonvalidator.Option{
		jsonvalidator.WithBaseDir(c.String("base-dir")),
		jsonvalidator.WithParseOptions(parseOptions(c)),
	}
	if c.Bool("fail-fast") {
		opts = append(opts, jsonvalidator.WithStopOnFirstViolation())
	}
	return opts
}

func compileSchema(c *cli.Command) (*jsonvalidator.Handle, error) {
	text, err := os.ReadFile(c.String("schema"))
	if err != nil {
		return nil, err
	}
	return jsonvalidator.New(text, options(c)...)
}

// readInput reads a file, or stdin for "-" or no argument.
func readInput(name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func inputs(c *cli.Command) []string {
	if c.Args().Len() == 0 {
		return []string{"-"}
	}
	return c.Args().Slice()
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate instances and print them with defaults applied",
		ArgsUsage: "[instance.json ...]",
		Flags:     schemaFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			h, err := compileSchema(c)
			if err != nil {
				return cli.Exit(err, 2)
			}
			defer h.Close()

			failed := 0
			for _, name := range inputs(c) {
				text, err := readInput(name)
				if err != nil {
					return cli.Exit(err, 2)
				}
				out, err := h.Validate(text)
				if err != nil {
					failed++
					report(c.Root().ErrWriter, name, err)
					continue
				}
				fmt.Fprintf(c.Root().Writer, "%s\n", out)
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d instances failed", failed, len(inputs(c))), 1)
			}
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "check schemas against the draft-07 meta-schema",
		ArgsUsage: "schema.json ...",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() == 0 {
				return cli.Exit("no schema given", 2)
			}
			failed := 0
			for _, name := range c.Args().Slice() {
				text, err := os.ReadFile(name)
				if err != nil {
					return cli.Exit(err, 2)
				}
				if err := jsonvalidator.CheckSchema(text); err != nil {
					failed++
					report(c.Root().ErrWriter, name, err)
					continue
				}
				fmt.Fprintf(c.Root().Writer, "%s: ok\n", name)
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d schemas failed", failed, c.Args().Len()), 1)
			}
			return nil
		},
	}
}

func patchCommand() *cli.Command {
	return &cli.Command{
		Name:      "patch",
		Usage:     "print the RFC 6902 patch of defaults for an instance",
		ArgsUsage: "[instance.json]",
		Flags:     schemaFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			h, err := compileSchema(c)
			if err != nil {
				return cli.Exit(err, 2)
			}
			defer h.Close()

			name := c.Args().First()
			text, err := readInput(name)
			if err != nil {
				return cli.Exit(err, 2)
			}
			doc, vs, err := defaultsPatch(h, text, parseOptions(c))
			if err != nil {
				return cli.Exit(err, 2)
			}
			if len(vs) > 0 {
				report(c.Root().ErrWriter, name, vs)
				return cli.Exit("instance is invalid", 1)
			}
			fmt.Fprintf(c.Root().Writer, "%s\n", doc)
			return nil
		},
	}
}

// defaultsPatch parses text with opts and returns the JSON Patch that fills
// its defaults, or the violations when the instance is invalid.
func defaultsPatch(h *jsonvalidator.Handle, text []byte, opts value.ParseOptions) ([]byte, validator.Violations, error) {
	inst, err := value.Parse(text, opts)
	if err != nil {
		return nil, nil, err
	}
	res, err := h.ValidateValue(inst)
	if err != nil {
		return nil, nil, err
	}
	if !res.Valid() {
		return nil, res.Violations, nil
	}
	doc, err := res.Patch.MarshalJSON()
	return doc, nil, err
}

func report(w io.Writer, name string, err error) {
	if name == "" {
		name = "-"
	}
	vs, ok := jsonvalidator.AsViolations(err)
	if !ok {
		ok = errors.As(err, &vs)
	}
	if ok {
		for _, v := range vs {
			fmt.Fprintf(w, "%s: %s\n", name, v)
		}
		return
	}
	fmt.Fprintf(w, "%s: %v\n", name, err)
}
