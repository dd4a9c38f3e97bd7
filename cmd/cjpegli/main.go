// Command cjpegli encodes PNG or JPEG input into a perceptually tuned
// JPEG using the jpegli encoder.
package main

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	jpegli "github.com/ajroetker/go-jpegli"
)

func main() {
	ctx := context.Background()
	if err := NewRoot(ctx).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRoot builds the command tree.
func NewRoot(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cjpegli",
		Short: "encode images to JPEG with perceptual quality control",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFile, _ := cmd.Flags().GetString("log-file")

			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}
			var out io.Writer = os.Stderr
			if logFile != "" {
				out = &lumberjack.Logger{
					Filename:   logFile,
					MaxSize:    10, // megabytes
					MaxBackups: 3,
				}
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
		},
	}
	cmd.AddCommand(NewEncodeCmd(ctx))
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "rotate logs into this file instead of stderr")
	return cmd
}

// NewEncodeCmd encodes one input image to one output JPEG.
func NewEncodeCmd(ctx context.Context) *cobra.Command {
	var (
		distance    float64
		quality     int
		xyb         bool
		noAdaptive  bool
		stdTables   bool
		progressive int
		restart     int
	)
	cmd := &cobra.Command{
		Use:   "encode <input> <output.jpg>",
		Short: "encode a PNG or JPEG file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()
			img, format, err := image.Decode(in)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			slog.InfoContext(ctx, "decoded input",
				"file", args[0], "format", format,
				"width", img.Bounds().Dx(), "height", img.Bounds().Dy())

			opts := jpegli.DefaultEncodingOptions()
			opts.Distance = float32(distance)
			opts.Quality = quality
			opts.XYBMode = xyb
			opts.AdaptiveQuantization = !noAdaptive
			opts.StandardQuantTables = stdTables
			opts.ProgressiveLevel = progressive
			opts.RestartInterval = restart

			out, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer out.Close()
			if err := jpegli.Encode(out, img, opts); err != nil {
				return fmt.Errorf("encode %s: %w", args[1], err)
			}
			info, err := out.Stat()
			if err == nil {
				slog.InfoContext(ctx, "encoded output", "file", args[1], "bytes", info.Size())
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&distance, "distance", 1.0, "target perceptual distance, lower is better")
	f.IntVar(&quality, "quality", 0, "libjpeg-style quality 1-100, overrides distance")
	f.BoolVar(&xyb, "xyb", false, "encode in the XYB color space")
	f.BoolVar(&noAdaptive, "no-adaptive-quant", false, "disable adaptive quantization")
	f.BoolVar(&stdTables, "std-tables", false, "use Annex K quantization tables")
	f.IntVar(&progressive, "progressive", 2, "progressive level, 0 is sequential")
	f.IntVar(&restart, "restart-interval", 0, "MCUs between restart markers")
	return cmd
}
