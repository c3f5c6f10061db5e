package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"stylify/config"
	"stylify/convert"
	"stylify/state"
	"stylify/stylify"
)

const scopeHelp = `%s
SOURCE:
    path to HTML file(s) to process, following formats are supported:
        path to a file: "[path_to_file]file.html"
        path to a directory: "[path_to_directory]directory" - recursively process all files under directory (symbolic links are not followed)
        path to archive with path inside archive to a particular file: "[path_to_archive]archive.zip[path_in_archive]/file.html"
        path to archive with path inside archive: "[path_to_archive]archive.zip[path_in_archive]" - recursively process all documents under archive path

	Only files with .html, .htm and .xhtml extensions are considered (files
	without extension are sniffed), processing of archives inside archives is
	not supported.

DESTINATION:
    always a path, output file name(s) and extension will be derived from other parameters
    if absent - current working directory

Every CSS type selector of a document is replaced by a class selector unique
for this document, and matching elements receive that class. Flags override
values from "scoping" and "output" configuration sections.
`

const dumpConfigHelp = `%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`

func scopeCommand() *cli.Command {
	defaults := stylify.DefaultOptions()
	return &cli.Command{
		Name:         "scope",
		Usage:        "Scopes styles of HTML document(s) to their own elements",
		OnUsageError: usageErrorHandler,
		Action:       convert.Run,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to", Value: config.OutputFmtHTML.String(),
				Usage: "output `TYPE` (supported types: " + strings.Join(config.OutputFmtNames(), ", ") + ")"},
			&cli.BoolFlag{Name: "normalize", Aliases: []string{"n"}, Usage: "rename html and body, hide head, drop meta, title, comments and doctype"},
			&cli.StringFlag{Name: "replace-element", Aliases: []string{"re"}, Value: defaults.ReplaceElement,
				Usage: "`ELEMENT` html and body are renamed to when normalizing"},
			&cli.BoolFlag{Name: "keep-scripts", Aliases: []string{"ks"}, Usage: "do not remove script elements"},
			&cli.StringFlag{Name: "suffix", Usage: "use fixed `MARKER` instead of generating one per document"},
			&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "when producing output do not keep input directory structure"},
			&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exits, overwrite files"},
			&cli.StringFlag{Name: "force-zip-cp",
				Usage: "Force `ENCODING` for ALL non UTF-8 file names in processed archives (see IANA.org for character set names)"},
		},
		ArgsUsage:          "SOURCE [DESTINATION]",
		CustomHelpTemplate: fmt.Sprintf(scopeHelp, cli.CommandHelpTemplate),
	}
}

func dumpConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "dumpconfig",
		Usage: "Dumps either default or actual configuration (YAML)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
		},
		OnUsageError:       usageErrorHandler,
		Action:             outputConfiguration,
		ArgsUsage:          "DESTINATION",
		CustomHelpTemplate: fmt.Sprintf(dumpConfigHelp, cli.CommandHelpTemplate),
	}
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var out io.Writer = os.Stdout
	if len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer func() {
			if er := f.Close(); er != nil && err == nil {
				err = fmt.Errorf("unable to close destination file '%s': %w", fname, er)
			}
		}()
		out = f
	} else {
		fname = "STDOUT"
	}

	what := "actual"
	if cmd.Bool("default") {
		what = "default"
	}
	env.Log.Info("Outputing configuration", zap.String("state", what), zap.String("file", fname))

	return writeConfiguration(out, env.Cfg, what == "default")
}

// writeConfiguration writes either embedded defaults or cfg as YAML.
func writeConfiguration(out io.Writer, cfg *config.Config, defaults bool) error {
	var (
		data []byte
		err  error
	)
	if defaults {
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}
	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
