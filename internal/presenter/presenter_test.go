package presenter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/domain"
)

func TestDownloadName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report_compressed.pdf"},
		{"REPORT.PDF", "REPORT_compressed.pdf"},
		{"Mixed.Pdf", "Mixed_compressed.pdf"},
		{"notes", "notes_compressed.pdf"},
		{"archive.pdf.pdf", "archive.pdf_compressed.pdf"},
		{"my.pdfs", "my.pdfs_compressed.pdf"},
		{".pdf", "_compressed.pdf"},
		{"", "_compressed.pdf"},
	}
	for _, c := range cases {
		got := DownloadName(c.in)
		if got != c.want {
			t.Fatalf("DownloadName(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}

func newPresenter(t *testing.T) *Presenter {
	t.Helper()
	p, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPresent(t *testing.T) {
	p := newPresenter(t)

	original := domain.SelectedFile{Name: "scan.pdf", SizeBytes: 5 * 1024 * 1024}
	data := bytes.Repeat([]byte{'x'}, 2*1024*1024)

	pr, err := p.Present(original, 100, data)
	require.NoError(t, err)

	assert.Equal(t, "scan_compressed.pdf", pr.FileName)
	assert.Equal(t, "5120.00 KB", pr.OriginalSize)
	assert.Equal(t, "100 KB", pr.TargetSize)
	assert.Equal(t, "2048.00 KB", pr.CompressedSize)
	assert.Equal(t, int64(len(data)), pr.CompressedBytes)

	stored, err := os.ReadFile(pr.Artifact)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestPresent_ReleasesPreviousArtifact(t *testing.T) {
	p := newPresenter(t)
	original := domain.SelectedFile{Name: "a.pdf", SizeBytes: 10}

	first, err := p.Present(original, 20, []byte("first"))
	require.NoError(t, err)
	second, err := p.Present(original, 20, []byte("second"))
	require.NoError(t, err)

	_, err = os.Stat(first.Artifact)
	assert.True(t, os.IsNotExist(err), "previous artifact should be released")

	_, err = os.Stat(second.Artifact)
	assert.NoError(t, err)

	cur, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, second.Artifact, cur.Artifact)
}

func TestSave(t *testing.T) {
	p := newPresenter(t)
	out := t.TempDir()

	_, err := p.Save(out)
	require.ErrorIs(t, err, ErrNoResult)

	_, err = p.Present(domain.SelectedFile{Name: "Invoice.PDF", SizeBytes: 10}, 50, []byte("%PDF-small"))
	require.NoError(t, err)

	path, err := p.Save(out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "Invoice_compressed.pdf"), path)

	again, err := p.Save(out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "Invoice_compressed-1.pdf"), again)

	b, err := os.ReadFile(again)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-small", string(b))
}

func TestSave_KeepsExistingFiles(t *testing.T) {
	p := newPresenter(t)
	out := t.TempDir()
	_, err := p.Present(domain.SelectedFile{Name: "report.pdf", SizeBytes: 10}, 50, []byte("%PDF-new"))
	require.NoError(t, err)

	prev := maxCopies
	maxCopies = 3
	t.Cleanup(func() { maxCopies = prev })

	taken := []string{"report_compressed.pdf", "report_compressed-1.pdf", "report_compressed-2.pdf"}
	for _, name := range taken {
		require.NoError(t, os.WriteFile(filepath.Join(out, name), []byte("USER DATA"), 0o644))
	}

	_, err = p.Save(out)
	require.ErrorIs(t, err, ErrNoFreeName)

	for _, name := range taken {
		b, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Equal(t, "USER DATA", string(b), name)
	}
}

func TestSave_SkipsTakenSuffixes(t *testing.T) {
	p := newPresenter(t)
	out := t.TempDir()
	_, err := p.Present(domain.SelectedFile{Name: "report.pdf", SizeBytes: 10}, 50, []byte("%PDF-new"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(out, "report_compressed.pdf"), []byte("USER DATA"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "report_compressed-1.pdf"), []byte("USER DATA"), 0o644))

	path, err := p.Save(out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "report_compressed-2.pdf"), path)

	b, err := os.ReadFile(filepath.Join(out, "report_compressed.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "USER DATA", string(b))
}

func TestClose_RemovesOwnedSpool(t *testing.T) {
	p, err := New("", nil)
	require.NoError(t, err)

	pr, err := p.Present(domain.SelectedFile{Name: "a.pdf"}, 20, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, p.Close())
	_, err = os.Stat(filepath.Dir(pr.Artifact))
	assert.True(t, os.IsNotExist(err))
}
