package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/yuin/goldmark"

	"tripweaver/models"
)

// RenderMarkdown writes the itinerary as a Markdown document.
func RenderMarkdown(it models.Itinerary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", mdLine(it.Title))

	facts := []struct{ label, value string }{
		{"Destination", it.Destination},
		{"Duration", it.Duration},
		{"Budget", it.TotalBudget},
	}
	for _, f := range facts {
		if f.value != "" {
			fmt.Fprintf(&sb, "**%s:** %s  \n", f.label, mdLine(f.value))
		}
	}
	if it.Overview != "" {
		fmt.Fprintf(&sb, "\n%s\n", it.Overview)
	}

	for _, d := range it.Days {
		sb.WriteString("\n")
		sb.WriteString("## " + dayHeading(d) + "\n\n")
		for _, a := range d.Activities {
			fmt.Fprintf(&sb, "- %s\n", mdLine(a))
		}
		if meals := mealLines(d.Meals); len(meals) > 0 {
			sb.WriteString("\n")
			for _, m := range meals {
				fmt.Fprintf(&sb, "**%s:** %s  \n", m[0], mdLine(m[1]))
			}
		}
		if d.Accommodation != "" {
			fmt.Fprintf(&sb, "\n**Stay:** %s  \n", mdLine(d.Accommodation))
		}
		if d.EstimatedCost != "" {
			fmt.Fprintf(&sb, "**Estimated cost:** %s  \n", mdLine(d.EstimatedCost))
		}
		if d.Notes != "" {
			fmt.Fprintf(&sb, "\n> %s\n", mdLine(d.Notes))
		}
	}

	if len(it.Tips) > 0 {
		sb.WriteString("\n## Tips\n\n")
		for _, tip := range it.Tips {
			fmt.Fprintf(&sb, "- %s\n", mdLine(tip))
		}
	}
	return sb.String()
}

// RenderHTML converts RenderMarkdown's output to HTML. Raw HTML in the
// itinerary is not passed through.
func RenderHTML(it models.Itinerary) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(RenderMarkdown(it)), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

func dayHeading(d models.Day) string {
	if d.Date == "" {
		return fmt.Sprintf("Day %d", d.Day)
	}
	return fmt.Sprintf("Day %d - %s", d.Day, d.Date)
}

func mealLines(m models.Meals) [][2]string {
	var out [][2]string
	for _, slot := range [][2]string{{"Breakfast", m.Breakfast}, {"Lunch", m.Lunch}, {"Dinner", m.Dinner}} {
		if slot[1] != "" {
			out = append(out, slot)
		}
	}
	return out
}

// mdLine keeps user text on one line.
func mdLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const qrSize = 32.0

// RenderPDF lays the itinerary out on A4 pages. When shareURL is set a QR code
// linking to it is placed on the first page.
func RenderPDF(it models.Itinerary, shareURL string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	textWidth := 0.0
	if shareURL != "" {
		png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("qr code: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("share-qr", opts, bytes.NewReader(png))
		pageW, _ := pdf.GetPageSize()
		pdf.ImageOptions("share-qr", pageW-15-qrSize, 12, qrSize, qrSize, false, opts, 0, shareURL)
		textWidth = pageW - 30 - qrSize - 4
	}

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(textWidth, 9, tr(it.Title), "", "L", false)
	pdf.SetFont("Arial", "", 11)
	for _, line := range []string{
		labelled("Destination", it.Destination),
		labelled("Duration", it.Duration),
		labelled("Budget", it.TotalBudget),
	} {
		if line != "" {
			pdf.CellFormat(textWidth, 6, tr(line), "", 1, "L", false, 0, "")
		}
	}
	if shareURL != "" && pdf.GetY() < 12+qrSize {
		pdf.SetY(12 + qrSize + 2)
	}
	if it.Overview != "" {
		pdf.Ln(3)
		pdf.MultiCell(0, 5.5, tr(it.Overview), "", "L", false)
	}

	for _, d := range it.Days {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 8, tr(dayHeading(d)), "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		for _, a := range d.Activities {
			pdf.MultiCell(0, 5.5, tr("- "+a), "", "L", false)
		}
		for _, m := range mealLines(d.Meals) {
			pdf.MultiCell(0, 5.5, tr(m[0]+": "+m[1]), "", "L", false)
		}
		if d.Accommodation != "" {
			pdf.MultiCell(0, 5.5, tr("Stay: "+d.Accommodation), "", "L", false)
		}
		if d.EstimatedCost != "" {
			pdf.MultiCell(0, 5.5, tr("Estimated cost: "+d.EstimatedCost), "", "L", false)
		}
		if d.Notes != "" {
			pdf.SetFont("Arial", "I", 10)
			pdf.MultiCell(0, 5, tr(d.Notes), "", "L", false)
			pdf.SetFont("Arial", "", 11)
		}
	}

	if len(it.Tips) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 8, "Tips", "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		for _, tip := range it.Tips {
			pdf.MultiCell(0, 5.5, tr("- "+tip), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func labelled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + ": " + value
}
