// Package app はアプリケーションのメインロジックを実装します
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shiroemons/go-vnunpack/internal/unpack/config"
	"github.com/shiroemons/go-vnunpack/internal/unpack/extract"
	"github.com/shiroemons/go-vnunpack/internal/unpack/fileutil"
	"github.com/shiroemons/go-vnunpack/internal/unpack/interfaces"
	"github.com/shiroemons/go-vnunpack/pkg/vnarc"
)

// App はアプリケーションのメインロジックを管理します
type App struct {
	config    *config.Config
	logger    *config.DebugLogger
	slog      *slog.Logger
	fs        interfaces.FileSystem
	finder    *fileutil.ArchiveFinder
	extractor interfaces.ArchiveExtractor
	stdout    io.Writer

	mu sync.Mutex // stdout 用
}

// Options はAppの設定オプション
type Options struct {
	FileSystem interfaces.FileSystem
	Extractor  interfaces.ArchiveExtractor
	Stdout     io.Writer
	Slog       *slog.Logger
}

// New は新しいAppを作成します
func New(cfg *config.Config) *App {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions は新しいAppをオプション付きで作成します
func NewWithOptions(cfg *config.Config, opts Options) *App {
	// デフォルトのファイルシステムを設定
	fs := opts.FileSystem
	if fs == nil {
		fs = fileutil.NewOSFileSystem()
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	sl := opts.Slog
	if sl == nil {
		sl = config.NewLogger(cfg.DebugMode)
	}

	return &App{
		config:    cfg,
		logger:    config.NewDebugLoggerTo(cfg.DebugMode, stdout),
		slog:      sl,
		fs:        fs,
		finder:    fileutil.NewArchiveFinder(fs),
		extractor: opts.Extractor,
		stdout:    stdout,
	}
}

// Run はアプリケーションを実行します
func (a *App) Run(ctx context.Context) error {
	if err := a.config.Validate(); err != nil {
		return err
	}

	// コンテキストのキャンセルチェック
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	paths, err := a.finder.Expand(a.config.ArchivePaths)
	if err != nil {
		return err
	}
	a.logger.Printf("%d 個のアーカイブを処理します\n", len(paths))

	extractor, err := a.archiveExtractor()
	if err != nil {
		return err
	}

	if a.config.ListOnly {
		return a.listAll(ctx, extractor, paths)
	}
	return a.extractAll(ctx, extractor, paths)
}

// archiveExtractor は設定からデフォルトのExtractorを組み立てます
func (a *App) archiveExtractor() (interfaces.ArchiveExtractor, error) {
	if a.extractor != nil {
		return a.extractor, nil
	}
	registry, err := extract.NewRegistry(a.config.PakVersion, a.slog)
	if err != nil {
		return nil, err
	}
	return extract.NewExtractor(a.fs, extract.Options{
		Registry: registry,
		Format:   a.config.Format,
		Logger:   a.logger,
		Slog:     a.slog,
	}), nil
}

// listAll は各アーカイブのエントリ一覧を表示します
func (a *App) listAll(ctx context.Context, extractor interfaces.ArchiveExtractor, paths []string) error {
	var errs []error
	for _, p := range paths {
		listing, err := extractor.List(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		a.printListing(listing)
	}
	return joinFailures(errs, len(paths))
}

// extractAll は各アーカイブを抽出します。
// 並列モードでは Workers 個までのアーカイブを同時に処理します。
func (a *App) extractAll(ctx context.Context, extractor interfaces.ArchiveExtractor, paths []string) error {
	summaries := make([]interfaces.Summary, len(paths))
	errs := make([]error, len(paths))

	run := func(i int) {
		saver, err := a.saverFor(paths[i], len(paths) > 1)
		if err != nil {
			errs[i] = err
			return
		}
		summaries[i], errs[i] = extractor.Extract(ctx, paths[i], saver)
		a.reportDryRun(paths[i], saver)
	}

	if a.config.Parallel && len(paths) > 1 {
		var g errgroup.Group
		g.SetLimit(a.config.Workers)
		for i := range paths {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range paths {
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				continue
			}
			run(i)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var failed []error
	for i := range paths {
		if errs[i] != nil {
			a.slog.Error("アーカイブの処理に失敗しました", "archive", paths[i], "error", errs[i])
			failed = append(failed, errs[i])
			continue
		}
		a.printSummary(summaries[i])
	}
	return joinFailures(failed, len(paths))
}

// saverFor はアーカイブごとの保存先を返します。
// 複数のアーカイブを処理する場合はアーカイブ名のサブディレクトリに保存します。
func (a *App) saverFor(archivePath string, multiple bool) (vnarc.Saver, error) {
	if a.config.DryRun {
		return fileutil.NewDryRunSaver(), nil
	}

	root := a.config.OutputDir
	if multiple {
		base := filepath.Base(archivePath)
		root = filepath.Join(root, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	saver, err := fileutil.NewDiskSaver(a.fs, root, a.config.ImageFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrepareOutput, err)
	}
	return saver, nil
}

// reportDryRun はドライランで保存予定だったファイルを表示します
func (a *App) reportDryRun(archivePath string, saver vnarc.Saver) {
	dry, ok := saver.(*fileutil.DryRunSaver)
	if !ok {
		return
	}
	files, images := dry.Files(), dry.Images()
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.stdout, "[ドライラン] %s: %d 個のファイルと %d 枚の画像を保存します\n", archivePath, len(files), len(images))
	if a.logger.Enabled() {
		for _, f := range images {
			fmt.Fprintf(a.stdout, "  画像: %s\n", f)
		}
		for _, f := range files {
			fmt.Fprintf(a.stdout, "  ファイル: %s\n", f)
		}
	}
}

func (a *App) printListing(l interfaces.Listing) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.stdout, "%s (%s)\n", l.Archive, l.Format)
	if len(l.Linked) > 0 {
		fmt.Fprintf(a.stdout, "関連形式: %s\n", strings.Join(l.Linked, ", "))
	}
	fmt.Fprintln(a.stdout, "----------------------------")
	fmt.Fprintf(a.stdout, "%-32s %10s %10s %s\n", "ファイル名", "サイズ", "オフセット", "圧縮")
	fmt.Fprintln(a.stdout, "----------------------------")
	if len(l.Entries) == 0 {
		fmt.Fprintln(a.stdout, "ファイルがありません")
	}
	for _, e := range l.Entries {
		compressed := ""
		if e.Compressed {
			compressed = "*"
		}
		fmt.Fprintf(a.stdout, "%-32s %10d %10d %s\n", e.Path, e.Size, e.Offset, compressed)
	}
	fmt.Fprintln(a.stdout, "----------------------------")
	fmt.Fprintf(a.stdout, "%d 個のエントリ\n", len(l.Entries))
}

func (a *App) printSummary(s interfaces.Summary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.stdout, "%s (%s): %d 個のファイルを抽出しました", s.Archive, s.Format, s.Saved)
	if s.Composites > 0 {
		fmt.Fprintf(a.stdout, "、%d 枚の画像を合成しました", s.Composites)
	}
	if s.Failed > 0 {
		fmt.Fprintf(a.stdout, "、%d 個の保存に失敗しました", s.Failed)
	}
	fmt.Fprintln(a.stdout)
}

// joinFailures は失敗したアーカイブのエラーをまとめます
func joinFailures(errs []error, total int) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w (%d/%d): %w", ErrArchivesFailed, len(errs), total, errors.Join(errs...))
}
