// Package build drives index generation: it resolves input sources, feeds
// records through the layout engine and writes finished documents.
package build

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"bix/archive"
	"bix/build/docx"
	"bix/build/pdf"
	"bix/config"
	"bix/layout"
	"bix/records"
	"bix/state"
)

const sourceExt = ".csv"

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

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
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	format, err := config.ParseOutputFmt(cmd.String("to"))
	if err != nil {
		log.Warn("Unknown output format requested, switching to pdf", zap.Error(err))
		format = config.OutputFmtPdf
	}

	env.NoDirs, env.Overwrite, env.NoSort = cmd.Bool("nodirs"), cmd.Bool("overwrite"), cmd.Bool("nosort")

	// CSV files coming from old tooling are not necessarily UTF-8
	cp := cmd.String("force-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully decoding all sources", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, format, log)
}

// process handles source resolution independently of CLI framework. It
// determines the input type (directory, archive, or single file) and
// processes accordingly. A source may point inside an archive:
// "records.zip/books/security.csv".
func process(ctx context.Context, src, dst string, format config.OutputFmt, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exist - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, format, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		if isArchiveFile(head) {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", dst, format, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		if isIndexFile(head) && len(tail) == 0 {
			file, err := os.Open(head)
			if err != nil {
				return fmt.Errorf("unable to open source file: %w", err)
			}
			defer file.Close()
			if err := processIndex(ctx, file, filepath.Base(head), dst, format, log); err != nil {
				return fmt.Errorf("unable to process file (%s): %w", head, err)
			}
			break
		}
		return fmt.Errorf("input was not recognized as index records file (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding record files and processes them.
func processDir(ctx context.Context, dir, dst string, format config.OutputFmt, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		if isArchiveFile(path) {
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, format, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}
		if !isIndexFile(path) {
			log.Debug("Skipping file, not recognized as records or archive", zap.String("file", path))
			return nil
		}

		count++

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			return nil
		}
		defer file.Close()

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processIndex(ctx, file, src, dst, format, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processArchive walks all record files inside archive under "pathIn" and
// processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, format config.OutputFmt, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	err = archive.Walk(path, pathIn, sourceExt, func(arch string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arch), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		cp := state.EnvFromContext(ctx).CodePage

		pathInArchive := f.FileHeader.Name
		if cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}
		if err := processIndex(ctx, r, filepath.Join(pathOut, pathInArchive), dst, format, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arch), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// documentWriter is what both backends provide on top of layout.Backend.
type documentWriter interface {
	layout.Backend
	Save(path string) error
}

// processIndex generates a single index document. "src" is part of the
// source path (always including file name) relative to the original path,
// "dst" is the destination directory.
func processIndex(ctx context.Context, r io.Reader, src, dst string, format config.OutputFmt, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	log.Info("Index generation starting", zap.String("from", src))

	rptName := reportName(src)
	if env.Rpt != nil {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("unable to read records from %q: %w", src, err)
		}
		env.Rpt.StoreData(fmt.Sprintf("sources/%s", rptName), data)
		r = bytes.NewReader(data)
	}

	recs, err := records.Read(r, env.CodePage)
	if err != nil {
		return fmt.Errorf("unable to read records from %q: %w", src, err)
	}
	if len(recs) == 0 {
		log.Warn("No records found", zap.String("source", src))
		return nil
	}

	if env.NoSort {
		if !records.IsSorted(recs) {
			return fmt.Errorf("source %q is not sorted by topic, remove --nosort or fix the source", src)
		}
	} else {
		records.Sort(recs)
	}

	outputPath := buildOutputPath(src, dst, format, recs, env)
	if _, err := os.Stat(outputPath); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputPath)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputPath))
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	idxCfg := env.Cfg.Document.Index

	var doc documentWriter
	switch format {
	case config.OutputFmtPdf:
		doc = pdf.New(idxCfg, log)
	case config.OutputFmtDocx:
		doc = docx.New(idxCfg, env.Cfg.Document.FixZip, log)
	default:
		// this should never happen
		panic("unsupported format requested")
	}

	var backend layout.Backend = doc
	if env.Rpt != nil {
		trace := newTraceBackend(doc)
		backend = trace
		defer func() {
			env.Rpt.StoreData(fmt.Sprintf("traces/%s.txt", rptName), []byte(trace.String()))
		}()
	}

	if err := layout.Layout(ctx, recs, backend, layoutConfig(idxCfg), log); err != nil {
		return fmt.Errorf("unable to lay out %q: %w", src, err)
	}
	if err := doc.Save(outputPath); err != nil {
		return fmt.Errorf("unable to write %q: %w", outputPath, err)
	}
	if err := env.Rpt.StoreCopy(fmt.Sprintf("documents/%s", filepath.Base(outputPath)), outputPath); err != nil {
		log.Warn("Unable to store produced document in debug report", zap.String("file", outputPath), zap.Error(err))
	}

	log.Info("Index generation completed", zap.String("to", outputPath), zap.Int("entries", len(recs)))
	return nil
}

// reportName flattens a source path into a unique report entry name. Report
// names must not repeat within a single run.
func reportName(src string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, src)
	return fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
}

func layoutConfig(cfg config.IndexConfig) layout.Config {
	return layout.Config{
		Filler: layout.FillerConfig{
			BlankLines: cfg.Filler.BlankLines,
			Text:       cfg.Filler.Text,
			FontName:   cfg.Filler.FontName,
			FontSizePt: cfg.Filler.FontSizePt,
		},
		Entry: layout.EntryStyle{
			TopicFontName:   cfg.Entry.TopicFontName,
			TopicFontSizePt: cfg.Entry.TopicFontSizePt,
		},
	}
}

func isArchiveFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

func isIndexFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), sourceExt)
}
