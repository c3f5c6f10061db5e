// Package convert implements batch processing of HTML documents: single
// files, directory trees and zip archives.
package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"stylify/archive"
	"stylify/config"
	"stylify/state"
	"stylify/stylify"
)

// batch carries everything needed to process a single source tree.
type batch struct {
	env    *state.LocalEnv
	log    *zap.Logger
	eng    *stylify.Engine
	format config.OutputFmt
	dst    string

	processed int
	failed    int
}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("scope")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	applyFlags(cmd, env.Cfg, log)

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		if n, err := env.ForceCodePage(cp); err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
		} else {
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	eng, err := env.NewEngine()
	if err != nil {
		return err
	}

	b := &batch{env: env, log: log, eng: eng, format: env.Cfg.Output.Format, dst: dst}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", b.format))
	defer func(start time.Time) {
		log.Info("Processing completed",
			zap.Duration("elapsed", time.Since(start)), zap.Int("processed", b.processed), zap.Int("failed", b.failed))
	}(time.Now())

	return b.process(ctx, src)
}

// applyFlags superimposes explicitly specified command line flags on top of
// loaded configuration.
func applyFlags(cmd *cli.Command, cfg *config.Config, log *zap.Logger) {
	if cmd.IsSet("normalize") {
		cfg.Scoping.NormalizeHTML = cmd.Bool("normalize")
	}
	if cmd.IsSet("replace-element") {
		cfg.Scoping.ReplaceElement = cmd.String("replace-element")
	}
	if cmd.IsSet("keep-scripts") {
		cfg.Scoping.RemoveScripts = !cmd.Bool("keep-scripts")
	}
	if cmd.IsSet("suffix") {
		cfg.Scoping.UniqueSuffix = cmd.String("suffix")
	}
	if cmd.IsSet("to") {
		format, err := config.ParseOutputFmt(cmd.String("to"))
		if err != nil {
			log.Warn("Unknown output format requested, keeping configured one", zap.Stringer("format", cfg.Output.Format), zap.Error(err))
			return
		}
		cfg.Output.Format = format
	}
}

// process determines the input type (directory, archive, or single file) and
// processes it accordingly. Source may point inside of an archive.
func (b *batch) process(ctx context.Context, src string) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := b.processDir(ctx, head); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := b.processArchive(ctx, head, filepath.ToSlash(tail), ""); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		isHTML, err := isHTMLFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if isHTML && len(tail) == 0 {
			data, err := os.ReadFile(head)
			if err == nil {
				err = b.processDocument(ctx, data, filepath.Base(head))
			}
			if err != nil {
				b.failed++
				b.log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as HTML document (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding documents and archives.
func (b *batch) processDir(ctx context.Context, dir string) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			b.log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			b.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			b.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if isArchive {
			count++
			if err := b.processArchive(ctx, path, "", filepath.Dir(rel)); err != nil {
				if ctx.Err() != nil {
					return err
				}
				b.log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		isHTML, err := isHTMLFile(path)
		if err != nil {
			b.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !isHTML {
			b.log.Debug("Skipping file, not recognized as document or archive", zap.String("file", path))
			return nil
		}

		count++

		data, err := os.ReadFile(path)
		if err == nil {
			err = b.processDocument(ctx, data, rel)
		}
		if err != nil {
			b.failed++
			b.log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
}

// processArchive processes documents inside archive under pathIn. Output
// paths are prefixed with pathOut.
func (b *batch) processArchive(ctx context.Context, path, pathIn, pathOut string) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			b.log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	return archive.Walk(ctx, path, pathIn, func(arc string, f *zip.File) error {
		isHTML, err := isHTMLInArchive(f)
		if err != nil {
			b.log.Warn("Skipping file in archive", zap.String("archive", arc), zap.String("path", f.Name), zap.Error(err))
			return nil
		}
		if !isHTML {
			b.log.Debug("Skipping file, not recognized as document", zap.String("archive", arc), zap.String("file", f.Name))
			return nil
		}

		count++

		name, err := archive.EntryName(f, b.env.CodePage)
		if err != nil {
			n, _ := ianaindex.IANA.Name(b.env.CodePage)
			b.log.Warn("Unable to convert archive name from specified encoding",
				zap.String("charset", n), zap.String("path", f.Name), zap.Error(err))
		}

		data, err := archive.ReadEntry(f)
		if err == nil {
			err = b.processDocument(ctx, data, filepath.Join(pathOut, filepath.FromSlash(name)))
		}
		if err != nil {
			b.failed++
			b.log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
		}
		return nil
	})
}

// processDocument scopes single document. "src" is path of the source
// relative to the original input (just base name when single file was
// requested), it defines where under destination directory result goes.
func (b *batch) processDocument(ctx context.Context, data []byte, src string) (rerr error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	var outputName, marker string

	b.log.Info("Scoping starting", zap.String("from", src))
	defer func(start time.Time) {
		// one bad document should not stop the batch
		if r := recover(); r != nil {
			b.log.Error("Scoping ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("scoping panic: %v", r)
		} else if rerr == nil {
			b.processed++
			b.log.Info("Scoping completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("marker", marker))
		}
	}(time.Now())

	res, err := b.eng.ProcessBytes(data, "")
	if err != nil {
		return fmt.Errorf("unable to scope document (%s): %w", src, err)
	}
	marker = res.Marker
	if res.CSSErrors > 0 || res.Violations > 0 {
		b.log.Warn("Document styles were not fully scoped",
			zap.String("from", src), zap.Int("css_errors", res.CSSErrors), zap.Int("violations", res.Violations))
	}

	outputName = buildOutputPath(res, src, b.dst, b.format, b.env)

	if _, err := os.Stat(outputName); err == nil {
		if !b.env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		b.log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(outputName, []byte(res.HTML), 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	b.report(data, src, outputName, res)
	return nil
}

// report stores processing artifacts for debugging.
func (b *batch) report(data []byte, src, outputName string, res *stylify.Result) {
	rpt := b.env.Rpt
	if rpt == nil {
		return
	}

	// marker may be fixed by user, sequence number keeps entries apart
	prefix := fmt.Sprintf("%04d-%s", b.processed+b.failed+1, config.CleanFileName(filepath.Base(src)))
	rpt.StoreData(prefix+"/source"+filepath.Ext(src), data)
	rpt.StoreData(prefix+"/tree.txt", []byte(dumpTree(res)))

	var sb strings.Builder
	for i, sheet := range res.Stylesheets {
		fmt.Fprintf(&sb, "/* style block %d */\n%s\n", i+1, sheet)
	}
	rpt.StoreData(prefix+"/scoped.css", []byte(sb.String()))
	rpt.Store(prefix+"/result"+filepath.Ext(outputName), outputName)
}
