package fetcher

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/xRamax/scrapper-violet-wave/internal/model"
)

// ErrNoLeadColumns is returned when a header has neither a name nor a phone
// column.
var ErrNoLeadColumns = eris.New("fetcher: header has no name or phone column")

// Header aliases, compared after folding case and accents.
var (
	nameAliases  = []string{"name", "nombre", "business", "negocio", "empresa", "company", "razon social"}
	phoneAliases = []string{"phone", "phone number", "telefono", "tel", "movil", "celular", "mobile", "whatsapp"}
	notesAliases = []string{"notes", "notas", "address", "direccion", "website", "web", "rating"}
)

// CandidatesFromRows maps data rows to candidates using the header row.
// Several notes-like columns are joined with " · ". Rows with neither a name
// nor a phone are skipped.
func CandidatesFromRows(header []string, rows [][]string) ([]model.Candidate, error) {
	nameCol, phoneCol := -1, -1
	var noteCols []int
	for i, h := range header {
		key := foldHeader(h)
		switch {
		case nameCol < 0 && contains(nameAliases, key):
			nameCol = i
		case phoneCol < 0 && contains(phoneAliases, key):
			phoneCol = i
		case contains(notesAliases, key):
			noteCols = append(noteCols, i)
		}
	}
	if nameCol < 0 && phoneCol < 0 {
		return nil, eris.Wrapf(ErrNoLeadColumns, "header %q", header)
	}

	var out []model.Candidate
	for _, row := range rows {
		c := model.Candidate{
			Name:  cell(row, nameCol),
			Phone: cell(row, phoneCol),
		}
		if c.Name == "" && c.Phone == "" {
			continue
		}
		var notes []string
		for _, col := range noteCols {
			if v := cell(row, col); v != "" {
				notes = append(notes, v)
			}
		}
		c.Notes = strings.Join(notes, " · ")
		out = append(out, c)
	}
	return out, nil
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// foldHeader lowercases h, strips accents and collapses separators.
func foldHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, h)
	if err != nil {
		folded = h
	}
	folded = strings.ToLower(folded)
	folded = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(folded)
	return strings.Join(strings.Fields(folded), " ")
}
