// Package models fetches whisper ggml model files from HuggingFace.
package models

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const whisperRepoURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// DefaultModel is fetched when the caller does not name one. It is the
// smallest English model that transcribes meetings acceptably.
const DefaultModel = "ggml-base.en.bin"

// Download fetches a whisper ggml model into modelsDir. An existing
// non-empty file is left alone. Progress goes to out.
func Download(modelsDir, modelName string, out io.Writer) error {
	if modelName == "" {
		modelName = DefaultModel
	}
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return fmt.Errorf("creating models dir: %w", err)
	}

	destPath := filepath.Join(modelsDir, modelName)
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		fmt.Fprintf(out, "Model already exists: %s (%.0f MB)\n", destPath, float64(info.Size())/(1024*1024))
		return nil
	}

	url := whisperRepoURL + modelName
	fmt.Fprintf(out, "Downloading %s\n  from %s\n  to   %s\n", modelName, url, destPath)

	resp, err := http.Get(url) //nolint:gosec // repository URL is a compile-time constant
	if err != nil {
		return fmt.Errorf("downloading model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	// Write to a temp file first, then rename.
	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	pr := &progressWriter{writer: f, total: resp.ContentLength, label: modelName, out: out}
	written, err := io.Copy(pr, resp.Body)
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing model file: %w", err)
	}

	fmt.Fprintf(out, "\nDownloaded %.1f MB\n", float64(written)/(1024*1024))

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("moving model file: %w", err)
	}
	return nil
}

// progressWriter reports download progress every percent step.
type progressWriter struct {
	writer  io.Writer
	out     io.Writer
	total   int64
	written int64
	lastPct int
	label   string
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.writer.Write(b)
	p.written += int64(n)
	if p.total > 0 {
		pct := int(p.written * 100 / p.total)
		if pct != p.lastPct {
			p.lastPct = pct
			fmt.Fprintf(p.out, "\r  %s: %d%%", p.label, pct)
		}
	}
	return n, err
}
