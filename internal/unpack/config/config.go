// Package config はvnunpackコマンドの設定管理を行います
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const Version = "0.1.0"

// 画像の保存形式
const (
	ImageFormatPNG = "png"
	ImageFormatBMP = "bmp"
)

const defaultWorkers = 4

var (
	// ErrNoArchives はアーカイブが指定されていない場合のエラー
	ErrNoArchives = errors.New("アーカイブファイルを指定してください")

	// ErrInvalidPakVersion はPAKバージョンが不正な場合のエラー
	ErrInvalidPakVersion = errors.New("-pak-version には 1 か 2 を指定してください")

	// ErrInvalidImageFormat は画像形式が不正な場合のエラー
	ErrInvalidImageFormat = errors.New("-image-format には png か bmp を指定してください")

	// ErrInvalidWorkers はワーカー数が不正な場合のエラー
	ErrInvalidWorkers = errors.New("ワーカー数は1以上を指定してください")
)

// Config はアプリケーションの設定を保持します
type Config struct {
	ArchivePaths []string
	OutputDir    string
	PakVersion   int
	Format       string
	ImageFormat  string
	ListOnly     bool
	DebugMode    bool
	DryRun       bool
	Parallel     bool
	Workers      int
	ShowVersion  bool
}

// ParseFlags はコマンドライン引数を解析して設定を返します
func ParseFlags() *Config {
	config, err := parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		// flag.ExitOnError の場合はここに来ない
		fmt.Fprintf(os.Stderr, "エラー: %v\n", err)
		os.Exit(2)
	}
	return config
}

// ParseArgs は args を解析して設定を返します
func ParseArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("vnunpack", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return parse(fs, args)
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	config := &Config{}

	// カスタムUsage関数を設定（ダブルハイフン表示）
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage of %s: [options] <archive.pak>...\n", fs.Name())
		fmt.Fprintln(out, "  --output string")
		fmt.Fprintln(out, "    \toutput directory for the extracted files (default \".\")")
		fmt.Fprintln(out, "  -o string\toutput directory (shorthand)")
		fmt.Fprintln(out, "  -pak-version int")
		fmt.Fprintln(out, "    \tleaf/pak1 version (1 or 2), required to extract leaf/pak1 archives")
		fmt.Fprintln(out, "  --format string")
		fmt.Fprintln(out, "    \tforce archive format (twilight-frontier/pak2, leaf/pak1)")
		fmt.Fprintln(out, "  -f string\tforce archive format (shorthand)")
		fmt.Fprintln(out, "  -image-format string")
		fmt.Fprintln(out, "    \timage format for composed sprites: png or bmp (default \"png\")")
		fmt.Fprintln(out, "  --list")
		fmt.Fprintln(out, "    \tlist entries without extracting")
		fmt.Fprintln(out, "  -l\tlist entries (shorthand)")
		fmt.Fprintln(out, "  --debug")
		fmt.Fprintln(out, "    \tenable debug output")
		fmt.Fprintln(out, "  -d\tenable debug output (shorthand)")
		fmt.Fprintln(out, "  --dry-run")
		fmt.Fprintln(out, "    \tperform a dry run without writing output files")
		fmt.Fprintln(out, "  -n\tperform a dry run (shorthand)")
		fmt.Fprintln(out, "  --parallel")
		fmt.Fprintln(out, "    \textract multiple archives in parallel")
		fmt.Fprintln(out, "  -p\textract in parallel (shorthand)")
		fmt.Fprintln(out, "  --workers int")
		fmt.Fprintln(out, "    \tnumber of archives extracted at the same time (default 4)")
		fmt.Fprintln(out, "  -w int\tnumber of workers (shorthand)")
		fmt.Fprintln(out, "  --version")
		fmt.Fprintln(out, "    \tshow version information")
		fmt.Fprintln(out, "  -v\tshow version information (shorthand)")
	}

	// 出力ディレクトリ
	fs.StringVar(&config.OutputDir, "output", ".", "output directory for the extracted files")
	fs.StringVar(&config.OutputDir, "o", ".", "output directory (shorthand)")

	// 形式
	fs.IntVar(&config.PakVersion, "pak-version", 0, "leaf/pak1 version (1 or 2)")
	fs.StringVar(&config.Format, "format", "", "force archive format")
	fs.StringVar(&config.Format, "f", "", "force archive format (shorthand)")
	fs.StringVar(&config.ImageFormat, "image-format", ImageFormatPNG, "image format for composed sprites")

	// 一覧表示
	fs.BoolVar(&config.ListOnly, "list", false, "list entries without extracting")
	fs.BoolVar(&config.ListOnly, "l", false, "list entries (shorthand)")

	// デバッグモード
	fs.BoolVar(&config.DebugMode, "debug", false, "enable debug output")
	fs.BoolVar(&config.DebugMode, "d", false, "enable debug output (shorthand)")

	// ドライランモード
	fs.BoolVar(&config.DryRun, "dry-run", false, "perform a dry run without writing output files")
	fs.BoolVar(&config.DryRun, "n", false, "perform a dry run (shorthand)")

	// 並列処理
	fs.BoolVar(&config.Parallel, "parallel", false, "extract multiple archives in parallel")
	fs.BoolVar(&config.Parallel, "p", false, "extract in parallel (shorthand)")
	fs.IntVar(&config.Workers, "workers", defaultWorkers, "number of workers")
	fs.IntVar(&config.Workers, "w", defaultWorkers, "number of workers (shorthand)")

	// バージョン表示
	fs.BoolVar(&config.ShowVersion, "version", false, "show version information")
	fs.BoolVar(&config.ShowVersion, "v", false, "show version information (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	config.ArchivePaths = fs.Args()
	config.ImageFormat = strings.ToLower(config.ImageFormat)

	return config, nil
}

// Validate は設定の整合性を確認します
func (c *Config) Validate() error {
	if len(c.ArchivePaths) == 0 {
		return ErrNoArchives
	}
	if c.PakVersion != 0 && c.PakVersion != 1 && c.PakVersion != 2 {
		return fmt.Errorf("%w: %d", ErrInvalidPakVersion, c.PakVersion)
	}
	if c.ImageFormat != ImageFormatPNG && c.ImageFormat != ImageFormatBMP {
		return fmt.Errorf("%w: %s", ErrInvalidImageFormat, c.ImageFormat)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	return nil
}

// HandleVersion はバージョン表示を処理します
func HandleVersion(showVersion bool) {
	if showVersion {
		fmt.Printf("vnunpack version %s\n", Version)
		os.Exit(0)
	}
}

// DebugLogger はデバッグ出力を管理します
type DebugLogger struct {
	enabled bool
	out     io.Writer
}

// NewDebugLogger は新しいDebugLoggerを作成します
func NewDebugLogger(enabled bool) *DebugLogger {
	return &DebugLogger{enabled: enabled, out: os.Stdout}
}

// NewDebugLoggerTo は出力先を指定してDebugLoggerを作成します
func NewDebugLoggerTo(enabled bool, out io.Writer) *DebugLogger {
	return &DebugLogger{enabled: enabled, out: out}
}

// Enabled はデバッグモードが有効かどうかを返します
func (d *DebugLogger) Enabled() bool {
	return d.enabled
}

// Printf はデバッグモードが有効な場合のみメッセージを表示します
func (d *DebugLogger) Printf(format string, a ...any) {
	if d.enabled {
		fmt.Fprintf(d.out, format, a...)
	}
}

// NewLogger はエンジン向けの構造化ロガーを作成します。
// 通常は警告以上、デバッグモードではデバッグ以上を標準エラーに出します。
func NewLogger(debug bool) *slog.Logger {
	return NewLoggerTo(os.Stderr, debug)
}

// NewLoggerTo は出力先を指定して構造化ロガーを作成します
func NewLoggerTo(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
