package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikolaydubina/neuralink-compression-challenge/pkg/codec"
	"github.com/nikolaydubina/neuralink-compression-challenge/pkg/transcode"
)

var importFmt string
var exportFmt string

var importCmd = &cobra.Command{
	Use:   "import <input> <output.scc>",
	Short: "Decode a foreign audio file and compress it",
	Long: `Decodes a WAV, FLAC, MP3, or OGG file to raw samples, synthesises a
WAV container header for them, and compresses the result with the
sample-cache codec.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(args[0], args[1])
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <input.scc> <output>",
	Short: "Decompress and encode to a foreign audio format",
	Long: `Decompresses a sample-cache file back to raw samples and its WAV
header, then encodes the result to WAV, FLAC, or MP3 (named by --format or
the output file's extension).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(args[0], args[1])
	},
}

func init() {
	importCmd.Flags().StringVarP(&importFmt, "format", "f", "", "Input format (wav, flac, mp3, ogg); default: detect from extension")
	importCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing output file")

	exportCmd.Flags().StringVarP(&exportFmt, "format", "f", "", "Output format (wav, flac, mp3); default: detect from extension")
	exportCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing output file")
}

func runImport(input, output string) error {
	if !overwrite {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("output file already exists: %s (use --overwrite)", output)
		}
	}

	format := transcode.Format(importFmt)
	if format == "" {
		format = transcode.DetectFormat(input)
	}
	if format == transcode.FormatUnknown {
		return fmt.Errorf("cannot detect input format for %s (use --format)", input)
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer in.Close()

	start := time.Now()
	samples, info, err := transcode.Import(format, in)
	if err != nil {
		return fmt.Errorf("decode %s: %w", format, err)
	}

	var raw bytes.Buffer
	raw.Write(transcode.BuildWAVHeader(info, len(samples)*2))
	for _, s := range samples {
		binary.Write(&raw, binary.LittleEndian, s)
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	stats, err := codec.Encode(&raw, out)
	if err != nil {
		out.Close()
		os.Remove(output)
		return fmt.Errorf("compress: %w", err)
	}

	if !quiet {
		fmt.Printf("Imported: %s -> %s (%v)\n", input, output, time.Since(start).Round(time.Millisecond))
		printStats(stats)
	}
	return nil
}

func runExport(input, output string) error {
	if !overwrite {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("output file already exists: %s (use --overwrite)", output)
		}
	}

	format := transcode.Format(exportFmt)
	if format == "" {
		format = transcode.DetectFormat(output)
	}
	if format == transcode.FormatUnknown {
		return fmt.Errorf("cannot detect output format for %s (use --format)", output)
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer in.Close()

	start := time.Now()
	var raw bytes.Buffer
	stats, err := codec.Decode(in, &raw)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}

	header := raw.Bytes()[:codec.HeaderSize]
	info, err := transcode.ParseWAVHeader(header)
	if err != nil {
		return fmt.Errorf("parse header: %w", err)
	}

	body := raw.Bytes()[codec.HeaderSize:]
	samples := make([]int16, len(body)/2)
	r := bytes.NewReader(body)
	for i := range samples {
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return fmt.Errorf("read samples: %w", err)
		}
		samples[i] = int16(binary.LittleEndian.Uint16(b[:]))
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	if err := transcode.Export(format, out, samples, info); err != nil {
		out.Close()
		os.Remove(output)
		return fmt.Errorf("encode %s: %w", format, err)
	}

	if !quiet {
		fmt.Printf("Exported: %s -> %s (%v)\n", input, output, time.Since(start).Round(time.Millisecond))
		printStats(stats)
	}
	return nil
}
