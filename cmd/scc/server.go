package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikolaydubina/neuralink-compression-challenge/pkg/codec"
	"github.com/nikolaydubina/neuralink-compression-challenge/pkg/transcode"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long:  `Start an HTTP server that provides compression, decompression, and format bridging as an API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		host, _ := cmd.Flags().GetString("host")
		return runServer(host, port)
	},
}

func init() {
	serveCmd.Flags().StringP("port", "p", "8080", "Server port")
	serveCmd.Flags().StringP("host", "H", "0.0.0.0", "Server host")
}

func runServer(host, port string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/", handleIndex)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/api/compress", handleCompress)
	mux.HandleFunc("/api/decompress", handleDecompress)
	mux.HandleFunc("/api/import", handleImport)
	mux.HandleFunc("/api/export", handleExport)
	mux.HandleFunc("/api/info", handleInfo)
	mux.HandleFunc("/api/formats", handleFormats)

	handler := corsMiddleware(loggingMiddleware(mux))

	addr := fmt.Sprintf("%s:%s", host, port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	fmt.Printf("Starting server on http://%s\n", addr)
	fmt.Println("\nEndpoints:")
	fmt.Println("  GET  /                - Web interface")
	fmt.Println("  GET  /health          - Health check")
	fmt.Println("  POST /api/compress    - Compress a raw sample stream")
	fmt.Println("  POST /api/decompress  - Decompress a .scc file")
	fmt.Println("  POST /api/import      - Decode a foreign file and compress it")
	fmt.Println("  POST /api/export      - Decompress a .scc file to a foreign format")
	fmt.Println("  POST /api/info        - Get file info")
	fmt.Println("  GET  /api/formats     - List supported import/export formats")

	return server.ListenAndServe()
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(indexHTML))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"version": version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func handleFormats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"import": transcode.SupportedImportFormats(),
		"export": transcode.SupportedExportFormats(),
	})
}

func handleCompress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := uploadedFile(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	var out bytes.Buffer
	if _, err := codec.Encode(file, &out); err != nil {
		jsonError(w, "Compression failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	sendFile(w, &out, outputName(header.Filename, ".scc"), "application/octet-stream")
}

func handleDecompress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := uploadedFile(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	var out bytes.Buffer
	if _, err := codec.Decode(file, &out); err != nil {
		jsonError(w, "Decompression failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	sendFile(w, &out, outputName(header.Filename, ".wav"), "audio/wav")
}

func handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := uploadedFile(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	format := transcode.DetectFormat(header.Filename)
	if format == transcode.FormatUnknown {
		jsonError(w, "Unsupported input format: "+filepath.Ext(header.Filename), http.StatusBadRequest)
		return
	}

	samples, info, err := transcode.Import(format, file)
	if err != nil {
		jsonError(w, "Decode failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var raw bytes.Buffer
	raw.Write(transcode.BuildWAVHeader(info, len(samples)*2))
	for _, s := range samples {
		binary.Write(&raw, binary.LittleEndian, s)
	}

	var out bytes.Buffer
	if _, err := codec.Encode(&raw, &out); err != nil {
		jsonError(w, "Compression failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	sendFile(w, &out, outputName(header.Filename, ".scc"), "application/octet-stream")
}

func handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	targetFmt := r.URL.Query().Get("format")
	if targetFmt == "" {
		targetFmt = "wav"
	}
	format := transcode.Format(targetFmt)

	file, header, err := uploadedFile(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	var raw bytes.Buffer
	if _, err := codec.Decode(file, &raw); err != nil {
		jsonError(w, "Decompression failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	body := raw.Bytes()
	if len(body) < codec.HeaderSize {
		jsonError(w, "Decompressed stream is shorter than the container header", http.StatusInternalServerError)
		return
	}
	info, err := transcode.ParseWAVHeader(body[:codec.HeaderSize])
	if err != nil {
		jsonError(w, "Parse header failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	sampleBytes := body[codec.HeaderSize:]
	samples := make([]int16, len(sampleBytes)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(sampleBytes[i*2 : i*2+2]))
	}

	var out bytes.Buffer
	if err := transcode.Export(format, &out, samples, info); err != nil {
		jsonError(w, "Encode failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	sendFile(w, &out, outputName(header.Filename, "."+string(format)), getMimeType(format))
}

func handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := uploadedFile(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	info, err := transcode.GetInfo(file, transcode.FormatWAV)
	if err != nil {
		jsonError(w, "Failed to analyze file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"filename":    header.Filename,
		"size":        header.Size,
		"sample_rate": info.SampleRate,
		"channels":    info.Channels,
		"bit_depth":   info.BitDepth,
	})
}

// Helpers

func uploadedFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(200 << 20); err != nil {
		return nil, nil, fmt.Errorf("failed to parse form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("no file provided; use the 'file' form field")
	}
	return file, header, nil
}

func outputName(filename, ext string) string {
	base := filename[:len(filename)-len(filepath.Ext(filename))]
	return base + ext
}

func sendFile(w http.ResponseWriter, body *bytes.Buffer, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", body.Len()))
	io.Copy(w, body)
}

func getMimeType(format transcode.Format) string {
	switch format {
	case transcode.FormatMP3:
		return "audio/mpeg"
	case transcode.FormatWAV:
		return "audio/wav"
	case transcode.FormatFLAC:
		return "audio/flac"
	case transcode.FormatOGG:
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}

func jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Middleware

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if !quiet {
			fmt.Printf("%s %s %s %v\n", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start).Round(time.Millisecond))
		}
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Sample-Cache Codec</title>
    <style>
        * { box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 800px;
            margin: 0 auto;
            padding: 40px 20px;
            background: #f5f5f5;
        }
        h1 { color: #333; margin-bottom: 10px; }
        .subtitle { color: #666; margin-bottom: 30px; }
        .card {
            background: white;
            border-radius: 8px;
            padding: 30px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            margin-bottom: 20px;
        }
        .drop-zone {
            border: 2px dashed #ccc;
            border-radius: 8px;
            padding: 40px;
            text-align: center;
            cursor: pointer;
            transition: all 0.3s;
        }
        .drop-zone:hover, .drop-zone.dragover {
            border-color: #007bff;
            background: #f8f9ff;
        }
        .drop-zone input { display: none; }
        .btn {
            background: #007bff;
            color: white;
            border: none;
            padding: 12px 24px;
            border-radius: 4px;
            cursor: pointer;
            font-size: 16px;
        }
        .btn:hover { background: #0056b3; }
        .file-info { color: #666; margin-top: 10px; }
    </style>
</head>
<body>
    <h1>Sample-Cache Codec</h1>
    <p class="subtitle">Lossless compression for 16-bit sample streams</p>

    <div class="card">
        <div class="drop-zone" id="dropZone">
            <p>This page does not upload files; click for how to send a WAV (or .scc) file to the API</p>
        </div>
        <div class="file-info" id="fileInfo"></div>
        <button class="btn" id="compressBtn" disabled>Compress</button>
        <button class="btn" id="decompressBtn" disabled>Decompress</button>
    </div>

    <div class="card">
        <h3>API Usage</h3>
        <pre style="background:#f5f5f5;padding:15px;border-radius:4px;overflow-x:auto">
# Compress a 44-byte-header sample stream
curl -X POST -F "file=@input.wav" http://localhost:8080/api/compress -o output.scc

# Decompress back
curl -X POST -F "file=@output.scc" http://localhost:8080/api/decompress -o restored.wav

# Import a foreign format and compress in one step
curl -X POST -F "file=@song.flac" http://localhost:8080/api/import -o song.scc

# Export a compressed file to MP3
curl -X POST -F "file=@song.scc" "http://localhost:8080/api/export?format=mp3" -o song.mp3</pre>
    </div>

    <script>
        const dropZone = document.getElementById('dropZone');
        const fileInfo = document.getElementById('fileInfo');
        dropZone.onclick = () => fileInfo.textContent = 'Use the API directly: see curl examples below.';
    </script>
</body>
</html>`
