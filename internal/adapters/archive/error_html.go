package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/Blickwinkle262/DutchRentScope/internal/contextkeys"
	"github.com/Blickwinkle262/DutchRentScope/internal/core/port"
)

// ErrorHTMLArchive сохраняет неразобранные страницы на диск для ручного
// анализа селекторов. Раскладка: <root>/<дата>/<город>/<house_id>.html.
type ErrorHTMLArchive struct {
	root string
}

func NewErrorHTMLArchive(root string) *ErrorHTMLArchive {
	return &ErrorHTMLArchive{root: root}
}

var (
	scriptPattern = regexp.MustCompile(`(?is)<script.*?</script>`)
	stylePattern  = regexp.MustCompile(`(?is)<style.*?</style>`)
	bodyPattern   = regexp.MustCompile(`(?is)<body.*?</body>`)
)

// stripNoise убирает скрипты и стили и оставляет только body: для разбора
// селекторов важна разметка, а не мегабайты бандлов.
func stripNoise(html []byte) []byte {
	if body := bodyPattern.Find(html); body != nil {
		html = body
	}
	html = scriptPattern.ReplaceAll(html, nil)
	html = stylePattern.ReplaceAll(html, nil)
	return html
}

// ArchivePage сохраняет страницу и возвращает путь к файлу.
func (a *ErrorHTMLArchive) ArchivePage(ctx context.Context, city string, houseID int64, html []byte) (string, error) {
	logger := contextkeys.LoggerFromContext(ctx)

	if city == "" {
		city = "unknown"
	}
	dir := filepath.Join(a.root, time.Now().Format("2006-01-02"), city)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error archive: failed to create dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.html", houseID))
	if err := os.WriteFile(path, stripNoise(html), 0o644); err != nil {
		return "", fmt.Errorf("error archive: failed to write %s: %w", path, err)
	}

	logger.Info("Archived unparseable page", port.Fields{
		"house_id": houseID,
		"path":     path,
	})
	return path, nil
}
