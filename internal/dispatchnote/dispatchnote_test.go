package dispatchnote

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blameja-pos/internal/models"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D}

func newRenderer(t *testing.T, logo bool) *Renderer {
	t.Helper()
	c := Company{Name: "Бламеја ДООЕЛ", Address: "ул. Маршал Тито 1, Струмица", Phone: "034 123 456"}
	if logo {
		c.Logo = DataURL(pngHeader)
	}
	r, err := NewRenderer(c)
	require.NoError(t, err)
	return r
}

func TestLinesSkipsUnprintableRows(t *testing.T) {
	rows, total := Lines([]Row{
		{Code: "12", Name: "Семе пченка", Unit: models.UnitKilogram, Qty: 2.5, BasePrice: 100, FinalPrice: 90},
		{Code: "", Name: "  ", Qty: 1, FinalPrice: 0},
		{Code: "7", Name: "", Unit: models.UnitPiece, Qty: 3, BasePrice: 0, FinalPrice: 10},
		{Code: "8", Name: "Прскалка", Unit: models.UnitPiece, Qty: 1, BasePrice: 500, FinalPrice: 900},
	})

	require.Len(t, rows, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{rows[0].Seq, rows[1].Seq, rows[2].Seq})
	assert.Equal(t, 225.0, rows[0].Amount)
	assert.Equal(t, 30.0, rows[1].Amount)
	assert.Equal(t, 500.0, rows[2].Price)
	assert.Equal(t, 755.0, total)
}

func TestRenderDocument(t *testing.T) {
	r := newRenderer(t, true)

	html, err := r.RenderBytes(Document{
		No:           "15/2025",
		Date:         "2025-03-01",
		Buyer:        `Петар <"Агро">`,
		BuyerAddress: "Радовиш",
		Rows: []Row{
			{Code: "12", Name: "Фунгицид & средство", Unit: models.UnitPiece, Qty: 1000, BasePrice: 1.5, FinalPrice: 1.5},
		},
	})
	require.NoError(t, err)
	out := string(html)

	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, "ИСПРАТНИЦА бр. 15/2025")
	assert.Contains(t, out, "Тел: 034 123 456")
	assert.NotContains(t, out, "Транс. сметка:")
	assert.Contains(t, out, "Петар &lt;&#34;Агро&#34;&gt;")
	assert.Contains(t, out, "Фунгицид &amp; средство")
	assert.Contains(t, out, "1,000.00")
	assert.Contains(t, out, "Вкупно: 1,500.00")
	assert.Contains(t, out, `src="data:image/png;base64,`)
	assert.Contains(t, out, "Печати")
	assert.NotContains(t, out, "Нема ставки")
}

func TestRenderEmptyDocument(t *testing.T) {
	r := newRenderer(t, false)

	html, err := r.RenderBytes(Document{No: "1", Date: "2025-03-01"})
	require.NoError(t, err)
	out := string(html)

	assert.Contains(t, out, `<tr><td colspan="7" class="c">Нема ставки</td></tr>`)
	assert.Contains(t, out, "Вкупно: 0.00")
	assert.NotContains(t, out, `class="logo"`)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "dispatch-15-2025.html", FileName("15/2025"))
	assert.Equal(t, "dispatch-draft.html", FileName("  "))
}

func TestLoadLogo(t *testing.T) {
	empty, err := LoadLogo("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	url, err := LoadLogo(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(url), "data:image/png;base64,"))

	_, err = LoadLogo(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
