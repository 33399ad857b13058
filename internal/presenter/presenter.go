// Package presenter turns a successful compression into a result panel and a
// downloadable artifact.
package presenter

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/domain"
	"github.com/Pavankumarbhedam/Pdf-compressior/pkg/utils"
)

const downloadSuffix = "_compressed.pdf"

var (
	// ErrNoResult is returned by Save when nothing has been presented yet.
	ErrNoResult = errors.New("no compressed result to save")
	// ErrNoFreeName is returned by Save when every candidate name is taken.
	ErrNoFreeName = errors.New("no free file name")
)

// maxCopies bounds the "-N" suffixes Save tries.
var maxCopies = 10000

// Presentation is what the result panel shows.
type Presentation struct {
	FileName        string
	OriginalSize    string
	TargetSize      string
	CompressedSize  string
	OriginalBytes   int64
	CompressedBytes int64
	// Artifact is the local path of the stored result.
	Artifact string
}

// DownloadName derives the download file name from the original one.
func DownloadName(original string) string {
	if len(original) >= 4 && strings.EqualFold(original[len(original)-4:], ".pdf") {
		original = original[:len(original)-4]
	}
	return original + downloadSuffix
}

// Presenter keeps the current result artifact. Presenting a new result
// releases the previous one.
type Presenter struct {
	mu       sync.Mutex
	spoolDir string
	ownsDir  bool
	logger   log.Logger

	current Presentation
	has     bool
}

// New stores artifacts under spoolDir, or under a fresh temporary directory
// when spoolDir is empty.
func New(spoolDir string, logger log.Logger) (*Presenter, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	p := &Presenter{spoolDir: spoolDir, logger: logger}
	if spoolDir == "" {
		dir, err := os.MkdirTemp("", "pdfcompress-*")
		if err != nil {
			return nil, fmt.Errorf("create spool dir: %w", err)
		}
		p.spoolDir = dir
		p.ownsDir = true
	} else if err := os.MkdirAll(spoolDir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return p, nil
}

// Present stores data as the current artifact and builds the panel model.
func (p *Presenter) Present(original domain.SelectedFile, targetKb int, data []byte) (Presentation, error) {
	f, err := os.CreateTemp(p.spoolDir, "result-*.pdf")
	if err != nil {
		return Presentation{}, fmt.Errorf("create artifact: %w", err)
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return Presentation{}, fmt.Errorf("write artifact: %w", err)
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return Presentation{}, fmt.Errorf("close artifact: %w", err)
	}

	pr := Presentation{
		FileName:        DownloadName(original.Name),
		OriginalSize:    utils.FormatKB(original.SizeBytes),
		TargetSize:      fmt.Sprintf("%d KB", targetKb),
		CompressedSize:  utils.FormatKB(int64(len(data))),
		OriginalBytes:   original.SizeBytes,
		CompressedBytes: int64(len(data)),
		Artifact:        f.Name(),
	}

	p.mu.Lock()
	prev, hadPrev := p.current, p.has
	p.current, p.has = pr, true
	p.mu.Unlock()

	if hadPrev {
		p.release(prev)
	}

	level.Info(p.logger).Log("msg", "result presented",
		"file", pr.FileName,
		"original", humanize.Bytes(uint64(pr.OriginalBytes)),
		"compressed", humanize.Bytes(uint64(pr.CompressedBytes)),
	)

	return pr, nil
}

// Current returns the presented result, if any.
func (p *Presenter) Current() (Presentation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.has
}

// Save copies the current artifact into dir under its download name without
// overwriting existing files. It returns the written path.
func (p *Presenter) Save(dir string) (string, error) {
	pr, ok := p.Current()
	if !ok {
		return "", ErrNoResult
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	dest, err := saveCopy(pr.Artifact, filepath.Join(dir, pr.FileName))
	if err != nil {
		return "", fmt.Errorf("save %s: %w", pr.FileName, err)
	}

	level.Info(p.logger).Log("msg", "result saved", "path", dest)
	return dest, nil
}

// Close releases the current artifact and the spool directory if it was
// created by New.
func (p *Presenter) Close() error {
	p.mu.Lock()
	pr, has := p.current, p.has
	p.current, p.has = Presentation{}, false
	p.mu.Unlock()

	if has {
		p.release(pr)
	}
	if p.ownsDir {
		return os.RemoveAll(p.spoolDir)
	}
	return nil
}

func (p *Presenter) release(pr Presentation) {
	if err := os.Remove(pr.Artifact); err != nil && !errors.Is(err, fs.ErrNotExist) {
		level.Warn(p.logger).Log("msg", "cannot release artifact", "path", pr.Artifact, "err", err)
	}
}

// saveCopy writes src to p, or to p with a "-N" suffix when p is taken.
// Existing files are never opened for writing.
func saveCopy(src, p string) (string, error) {
	dir := filepath.Dir(p)
	ext := filepath.Ext(p)
	name := strings.TrimSuffix(filepath.Base(p), ext)

	for i := 0; i < maxCopies; i++ {
		dest := p
		if i > 0 {
			dest = filepath.Join(dir, fmt.Sprintf("%s-%d%s", name, i, ext))
		}
		err := copyFile(src, dest)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		return dest, nil
	}
	return "", fmt.Errorf("%s: %w", p, ErrNoFreeName)
}

// copyFile creates dest exclusively and fills it from src. A partially
// written dest is removed; a dest that already existed is left alone.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	if err = out.Close(); err != nil {
		_ = os.Remove(dest)
		return err
	}
	return nil
}
