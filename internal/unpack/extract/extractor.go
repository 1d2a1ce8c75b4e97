// Package extract はアーカイブ1つ分の抽出処理を行います
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shiroemons/go-vnunpack/internal/unpack/config"
	unpackerrors "github.com/shiroemons/go-vnunpack/internal/unpack/errors"
	"github.com/shiroemons/go-vnunpack/internal/unpack/interfaces"
	"github.com/shiroemons/go-vnunpack/pkg/grp"
	"github.com/shiroemons/go-vnunpack/pkg/vnarc"
)

// Extractor はアーカイブの認識から保存までを行います
type Extractor struct {
	fs       interfaces.FileSystem
	registry *vnarc.Registry
	composer vnarc.Composer
	format   string
	logger   interfaces.Logger
	slog     *slog.Logger
}

// Options はExtractorの設定オプション
type Options struct {
	Registry *vnarc.Registry // nil ならpak2とpak1を登録したRegistry
	Composer vnarc.Composer  // nil なら grp.Codec
	Format   string          // 空でなければ認識せずにこの形式で読む
	Logger   interfaces.Logger // nil ならデバッグ出力なし
	Slog     *slog.Logger
}

// NewExtractor は新しいExtractorを作成します
func NewExtractor(fs interfaces.FileSystem, opts Options) *Extractor {
	var logger interfaces.Logger = config.NewDebugLogger(false)
	if opts.Logger != nil {
		logger = opts.Logger
	}
	sl := opts.Slog
	if sl == nil {
		sl = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	registry := opts.Registry
	if registry == nil {
		registry = vnarc.DefaultRegistry(vnarc.WithLogger(sl))
	}
	composer := opts.Composer
	if composer == nil {
		composer = grp.NewCodec()
	}
	return &Extractor{
		fs:       fs,
		registry: registry,
		composer: composer,
		format:   opts.Format,
		logger:   logger,
		slog:     sl,
	}
}

// NewRegistry はpak1のバージョンを設定したRegistryを作成します
func NewRegistry(pakVersion int, sl *slog.Logger) (*vnarc.Registry, error) {
	opts := []vnarc.Option{vnarc.WithLogger(sl)}
	pak1 := vnarc.NewPak1Decoder(opts...)
	if pakVersion != 0 {
		if err := pak1.SetVersion(pakVersion); err != nil {
			return nil, err
		}
	}
	return vnarc.NewRegistry(vnarc.NewPak2Decoder(opts...), pak1), nil
}

// Extract はアーカイブを開いて全エントリを saver に保存します
func (e *Extractor) Extract(ctx context.Context, archivePath string, saver vnarc.Saver) (interfaces.Summary, error) {
	summary := interfaces.Summary{Archive: archivePath}

	f, err := e.fs.Open(archivePath)
	if err != nil {
		return summary, unpackerrors.NewArchiveError(unpackerrors.OpOpen, archivePath, "", fmt.Errorf("%w: %w", unpackerrors.ErrFileNotFound, err))
	}
	defer f.Close()

	summary, err = e.ExtractFrom(ctx, archivePath, f, saver)
	if err != nil {
		return summary, unpackerrors.NewArchiveError(unpackerrors.OpExtract, archivePath, summary.Format, err)
	}
	return summary, nil
}

// ExtractFrom は rs をアーカイブとして読み、全エントリを saver に保存します。
// 構造エラーが起きた時点でそのアーカイブの処理を打ち切ります。
func (e *Extractor) ExtractFrom(ctx context.Context, name string, rs io.ReadSeeker, saver vnarc.Saver) (interfaces.Summary, error) {
	summary := interfaces.Summary{Archive: name}

	c, dec, meta, err := e.open(ctx, name, rs)
	if err != nil {
		return summary, err
	}
	summary.Format = dec.Name()
	summary.Entries = meta.Len()

	// 抽出に必要な設定を先に確認する
	if checker, ok := dec.(vnarc.ConfigChecker); ok {
		if err := checker.CheckConfig(); err != nil {
			return summary, err
		}
	}

	if pp, ok := dec.(vnarc.Preprocessor); ok {
		n, err := pp.Preprocess(c, meta, e.composer, saver)
		summary.Composites = n
		if err != nil {
			return summary, err
		}
		if n > 0 {
			e.logger.Printf("%s: %d 個のスプライトを合成しました\n", name, n)
		}
	}

	for _, i := range meta.Remaining() {
		// コンテキストのキャンセルチェック
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		entry := meta.Entries[i]
		data, err := dec.ReadEntry(c, meta, i)
		if err != nil {
			return summary, unpackerrors.NewEntryError(i, entry.Path, err)
		}
		if err := saver.SaveFile(entry.Path, data); err != nil {
			summary.Failed++
			e.slog.Warn("ファイルの保存に失敗しました", "archive", name, "entry", entry.Path, "error", err)
			continue
		}
		summary.Saved++
		e.logger.Printf("抽出: %s (%d バイト)\n", entry.Path, len(data))
	}
	return summary, nil
}

// List はアーカイブのエントリ一覧を返します
func (e *Extractor) List(ctx context.Context, archivePath string) (interfaces.Listing, error) {
	listing := interfaces.Listing{Archive: archivePath}

	f, err := e.fs.Open(archivePath)
	if err != nil {
		return listing, unpackerrors.NewArchiveError(unpackerrors.OpOpen, archivePath, "", fmt.Errorf("%w: %w", unpackerrors.ErrFileNotFound, err))
	}
	defer f.Close()

	_, dec, meta, err := e.open(ctx, archivePath, f)
	if err != nil {
		return listing, unpackerrors.NewArchiveError(unpackerrors.OpList, archivePath, "", err)
	}
	listing.Format = dec.Name()
	listing.Linked = vnarc.LinkedFormats(dec)
	listing.Entries = append([]vnarc.Entry(nil), meta.Entries...)
	return listing, nil
}

// open はデコーダを決めてエントリテーブルを読み込みます
func (e *Extractor) open(ctx context.Context, name string, rs io.ReadSeeker) (*vnarc.Container, vnarc.Decoder, *vnarc.Meta, error) {
	// コンテキストのキャンセルチェック
	select {
	case <-ctx.Done():
		return nil, nil, nil, ctx.Err()
	default:
	}

	c, err := vnarc.NewContainer(rs)
	if err != nil {
		return nil, nil, nil, err
	}

	dec, err := e.decoderFor(name, c)
	if err != nil {
		return nil, nil, nil, err
	}

	meta, err := dec.ReadMeta(c)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s としてテーブルを読めません: %w", dec.Name(), err)
	}
	e.logger.Printf("%s: %s として %d 個のエントリを読み込みました\n", name, dec.Name(), meta.Len())
	return c, dec, meta, nil
}

func (e *Extractor) decoderFor(name string, c *vnarc.Container) (vnarc.Decoder, error) {
	if e.format != "" {
		return e.registry.Lookup(e.format)
	}

	if e.logger.Enabled() {
		for _, rec := range e.registry.ProbeAll(c) {
			if rec.Recognized() {
				e.logger.Printf("- %s: 候補として検出 (%d エントリ)\n", rec.Format, rec.Entries)
			} else {
				e.logger.Printf("- %s: %v\n", rec.Format, rec.Reason)
			}
		}
	}

	dec, err := e.registry.Recognize(c)
	if err != nil {
		if errors.Is(err, vnarc.ErrUnrecognizedFormat) {
			return nil, fmt.Errorf("%w: %w", unpackerrors.ErrInvalidArchive, err)
		}
		return nil, err
	}
	return dec, nil
}
