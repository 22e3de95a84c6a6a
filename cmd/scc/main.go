// scc is a command-line front end for the sample-cache codec: it compresses
// and decompresses raw 16-bit sample streams, and bridges to common audio
// containers via pkg/transcode.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikolaydubina/neuralink-compression-challenge/pkg/codec"
	"github.com/nikolaydubina/neuralink-compression-challenge/pkg/transcode"
)

var (
	version   = "0.1.0"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Flags
var (
	outputPath string
	overwrite  bool
	verbose    bool
	quiet      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !quiet {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scc",
	Short: "Compress and decompress 16-bit sample streams",
	Long: `scc - sample-cache codec

Losslessly compresses streams of 16-bit samples by maintaining a
frequency-ordered recency cache shared between encoder and decoder.

Examples:
  scc compress input.wav output.scc
  scc decompress output.scc restored.wav
  scc import song.flac song.scc
  scc export song.scc song.mp3
  scc info output.scc`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output")

	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(decompressCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

var compressCmd = &cobra.Command{
	Use:   "compress <input> [output]",
	Short: "Compress a 44-byte-header sample stream",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		output := outputArg(args, input, ".scc")
		return runCodec(input, output, codec.Encode, "Compressed")
	},
}

var decompressCmd = &cobra.Command{
	Use:   "decompress <input> [output]",
	Short: "Decompress back to a raw 44-byte-header sample stream",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		output := outputArg(args, input, ".wav")
		return runCodec(input, output, codec.Decode, "Decompressed")
	},
}

func init() {
	for _, c := range []*cobra.Command{compressCmd, decompressCmd} {
		c.Flags().StringVarP(&outputPath, "output", "o", "", "Output file")
		c.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing output file")
	}
}

func outputArg(args []string, input, ext string) string {
	if len(args) > 1 {
		return args[1]
	}
	if outputPath != "" {
		return outputPath
	}
	trimmed := input[:len(input)-len(filepath.Ext(input))]
	return trimmed + ext
}

func runCodec(input, output string, run func(r io.Reader, w io.Writer) (codec.Stats, error), verb string) error {
	if !overwrite {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("output file already exists: %s (use --overwrite)", output)
		}
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	start := time.Now()
	stats, err := run(in, out)
	if err != nil {
		out.Close()
		os.Remove(output)
		return fmt.Errorf("%s failed: %w", verb, err)
	}
	elapsed := time.Since(start)

	if !quiet {
		inStat, _ := in.Stat()
		outStat, _ := out.Stat()
		fmt.Printf("%s: %s -> %s (%v)\n", verb, input, output, elapsed.Round(time.Millisecond))
		if inStat != nil && outStat != nil {
			fmt.Printf("  %s -> %s\n", formatSize(inStat.Size()), formatSize(outStat.Size()))
		}
		printStats(stats)
	}
	return nil
}

func printStats(stats codec.Stats) {
	if !verbose {
		return
	}
	fmt.Printf("  samples:       %d\n", stats.TotalSamples())
	fmt.Printf("  encoded runs:  %d (%d samples)\n", stats.EncodedRuns, stats.EncodedSamples)
	fmt.Printf("  literal runs:  %d (%d samples)\n", stats.LiteralRuns, stats.LiteralSamples)

	sizes := make([]int, 0, len(stats.PackerUsage))
	for size := range stats.PackerUsage {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	for _, size := range sizes {
		fmt.Printf("  packer %d-bit:  %d runs\n", size, stats.PackerUsage[size])
	}
}

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show information about a WAV-headered file (raw or compressed)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showFileInfo(args[0])
	},
}

func showFileInfo(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, _ := file.Stat()
	info, err := transcode.GetInfo(file, transcode.FormatWAV)
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	fmt.Printf("File:        %s\n", path)
	fmt.Printf("Size:        %s\n", formatSize(stat.Size()))
	fmt.Printf("Sample Rate: %d Hz\n", info.SampleRate)
	fmt.Printf("Channels:    %d\n", info.Channels)
	fmt.Printf("Bit Depth:   %d\n", info.BitDepth)
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scc %s\n", version)
		fmt.Printf("  Build time: %s\n", buildTime)
		fmt.Printf("  Git commit: %s\n", gitCommit)
		fmt.Printf("  Go version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
