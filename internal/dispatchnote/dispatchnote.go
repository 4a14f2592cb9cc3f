// Package dispatchnote renders the printable dispatch note (испратница) as a
// self-contained HTML document: embedded styles, inline logo, no external assets.
package dispatchnote

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"

	"blameja-pos/internal/models"
	"blameja-pos/internal/pricing"
)

//go:embed templates/dispatch.html.tmpl
var templatesFS embed.FS

// Company identity printed in the header.
type Company struct {
	Name        string
	Address     string
	Phone       string
	BankAccount string
	Logo        template.URL
}

// Row is one entered line. Rows with no name and no positive price are not printed.
type Row struct {
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Unit       models.Unit `json:"unit"`
	Qty        float64     `json:"qty"`
	BasePrice  float64     `json:"base_price"`
	FinalPrice float64     `json:"final_price"`
}

func (r Row) Printable() bool {
	return strings.TrimSpace(r.Name) != "" || r.FinalPrice > 0
}

type Document struct {
	No           string
	Date         string
	Buyer        string
	BuyerAddress string
	Rows         []Row
}

// PrintedRow is a numbered row as it appears in the table.
type PrintedRow struct {
	Seq    int
	Code   string
	Name   string
	Unit   string
	Qty    float64
	Price  float64
	Amount float64
}

type view struct {
	Company      Company
	No           string
	Date         string
	Buyer        string
	BuyerAddress string
	Rows         []PrintedRow
	Total        float64
}

type Renderer struct {
	company Company
	tmpl    *template.Template
}

func NewRenderer(company Company) (*Renderer, error) {
	tmpl, err := template.New("dispatch.html.tmpl").
		Funcs(template.FuncMap{"money": pricing.FormatMoney}).
		ParseFS(templatesFS, "templates/dispatch.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("error parsing dispatch note template: %w", err)
	}
	return &Renderer{company: company, tmpl: tmpl}, nil
}

// Lines numbers the printable rows and prices them at the clamped final price.
func Lines(rows []Row) ([]PrintedRow, float64) {
	out := make([]PrintedRow, 0, len(rows))
	amounts := make([]float64, 0, len(rows))
	for _, r := range rows {
		if !r.Printable() {
			continue
		}
		price := pricing.ClampFinalToBase(r.FinalPrice, r.BasePrice)
		amount := pricing.LineTotal(r.Qty, price)
		out = append(out, PrintedRow{
			Seq:    len(out) + 1,
			Code:   r.Code,
			Name:   strings.TrimSpace(r.Name),
			Unit:   string(r.Unit),
			Qty:    r.Qty,
			Price:  price,
			Amount: amount,
		})
		amounts = append(amounts, amount)
	}
	return out, pricing.Sum(amounts...)
}

func (r *Renderer) Render(w io.Writer, doc Document) error {
	rows, total := Lines(doc.Rows)
	v := view{
		Company:      r.company,
		No:           doc.No,
		Date:         doc.Date,
		Buyer:        doc.Buyer,
		BuyerAddress: doc.BuyerAddress,
		Rows:         rows,
		Total:        total,
	}
	if err := r.tmpl.Execute(w, v); err != nil {
		return fmt.Errorf("error rendering dispatch note %s: %w", doc.No, err)
	}
	return nil
}

func (r *Renderer) RenderBytes(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var unsafeFileChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// FileName is the download name for a dispatch note.
func FileName(docNo string) string {
	no := strings.Trim(unsafeFileChars.ReplaceAllString(strings.TrimSpace(docNo), "-"), "-")
	if no == "" {
		no = "draft"
	}
	return "dispatch-" + no + ".html"
}

// LoadLogo reads an image and returns it as a base64 data URL. An empty path
// means no logo.
func LoadLogo(path string) (template.URL, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading logo %s: %w", path, err)
	}
	return DataURL(data), nil
}

func DataURL(data []byte) template.URL {
	mime, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
}
