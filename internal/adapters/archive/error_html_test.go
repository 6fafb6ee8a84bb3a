package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStripNoise(t *testing.T) {
	page := []byte(`<html><head>
<script src="bundle.js"></script>
<style>.a { color: red; }</style>
</head>
<body>
<SCRIPT>window.dataLayer = [];</SCRIPT>
<div id="listing">Keizersgracht 1</div>
<style>.b {}</style>
</body></html>`)

	got := string(stripNoise(page))
	require.Contains(t, got, `<div id="listing">Keizersgracht 1</div>`)
	require.NotContains(t, got, "script")
	require.NotContains(t, got, "SCRIPT")
	require.NotContains(t, got, "color: red")
	require.NotContains(t, got, "<head>")
}

func TestStripNoiseWithoutBody(t *testing.T) {
	// фрагмент без body сохраняется как есть, минус скрипты
	fragment := []byte(`<div>partial</div><script>x()</script>`)
	require.Equal(t, "<div>partial</div>", string(stripNoise(fragment)))
}

func TestArchivePageLayout(t *testing.T) {
	root := t.TempDir()
	a := NewErrorHTMLArchive(root)

	path, err := a.ArchivePage(context.Background(), "amsterdam", 43891234, []byte("<body><div>x</div></body>"))
	require.NoError(t, err)

	expected := filepath.Join(root, time.Now().Format("2006-01-02"), "amsterdam", "43891234.html")
	require.Equal(t, expected, path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "<body><div>x</div></body>", string(raw))
}

func TestArchivePageUnknownCity(t *testing.T) {
	root := t.TempDir()
	a := NewErrorHTMLArchive(root)

	path, err := a.ArchivePage(context.Background(), "", 1, []byte("<body>x</body>"))
	require.NoError(t, err)
	require.Contains(t, path, string(filepath.Separator)+"unknown"+string(filepath.Separator))
}
