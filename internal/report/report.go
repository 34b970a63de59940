package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-booking-engine/internal/domain"
)

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`RESERVATION RECEIPT
===================

Reservation:  #{{.ID}}
Purchased:    {{.PurchaseDate.Format "2006-01-02 15:04 MST"}}
Customer:     {{.Purchaser.Name}} {{.Purchaser.Surname}} <{{.Purchaser.Email}}>

Movie:        {{.Movie}}
Screening:    {{.Screening.Format "2006-01-02 15:04"}}
Room:         {{.RoomID}}
Seats:        {{join .SeatLabels " "}}
{{- if or .UnderMinAge .OverMaxAge}}
Reduced:      {{.UnderMinAge}} child, {{.OverMaxAge}} senior
{{- end}}
{{- if .CouponCode}}
Coupon:       {{.CouponCode}}
{{- end}}
Pricing:      {{.DiscountType}}

Total:        {{.Total.StringFixed 2}}
Card:         {{.MaskedCard}}
Payment ref:  {{.PaymentReference}}
`))

// FileGenerator writes plain text receipts into a directory.
type FileGenerator struct {
	dir string
}

func NewFileGenerator(dir string) *FileGenerator {
	return &FileGenerator{dir: dir}
}

func (g *FileGenerator) Generate(ctx context.Context, summary domain.ReservationSummary) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	name := fmt.Sprintf("reservation-%d-%s.txt", summary.ID, uuid.NewString()[:8])
	path := filepath.Join(g.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}

	if err := receiptTemplate.Execute(f, summary); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("render report: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}

	return path, nil
}
