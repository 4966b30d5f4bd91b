// Package report renders a one-page PDF snapshot of the MAC table and
// per-protocol statistics, for operators who want an offline record, using a
// section-by-section gofpdf layout.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/sasetz/psip-switch/internal/core/domain"
	"github.com/sasetz/psip-switch/internal/core/storage"
)

// Exporter renders storage.Snapshot values to PDF bytes.
type Exporter struct{}

// NewExporter returns a stateless Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Render builds a one-page PDF from a point-in-time snapshot. The caller is
// expected to have taken snap outside any storage grant.
func (e *Exporter) Render(snap storage.Snapshot, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, snap, generatedAt)
	e.addInterfaces(pdf, snap)
	e.addMACTable(pdf, snap)
	e.addStats(pdf, snap)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) addHeader(pdf *gofpdf.Fpdf, snap storage.Snapshot, generatedAt time.Time) {
	pdf.SetFont("Arial", "B", 20)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 12, snap.Device.Hostname+" — bridge snapshot", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

func (e *Exporter) addInterfaces(pdf *gofpdf.Fpdf, snap storage.Snapshot) {
	pdf.SetFont("Arial", "B", 13)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 9, "Interfaces", "", 1, "L", false, 0, "")

	ifaces := append([]domain.InterfaceRecord(nil), snap.Interfaces...)
	sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].ID.OSName < ifaces[j].ID.OSName })

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 9)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(45, 7, "Name", "1", 0, "L", true, 0, "")
	pdf.CellFormat(55, 7, "Address", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Up", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Running", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, rec := range ifaces {
		pdf.CellFormat(45, 6, rec.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 6, rec.ID.Address.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, boolCell(rec.Up), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, boolCell(rec.Control.Running), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *Exporter) addMACTable(pdf *gofpdf.Fpdf, snap storage.Snapshot) {
	pdf.SetFont("Arial", "B", 13)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 9, fmt.Sprintf("MAC table (%d entries)", len(snap.MACTable)), "", 1, "L", false, 0, "")

	type row struct {
		addr domain.MAC
		iface string
	}
	rows := make([]row, 0, len(snap.MACTable))
	for addr, entry := range snap.MACTable {
		rows = append(rows, row{addr: addr, iface: entry.Interface.OSName})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].addr.Less(rows[j].addr) })

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 9)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(60, 7, "Address", "1", 0, "L", true, 0, "")
	pdf.CellFormat(60, 7, "Interface", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, r := range rows {
		pdf.CellFormat(60, 6, r.addr.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, r.iface, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *Exporter) addStats(pdf *gofpdf.Fpdf, snap storage.Snapshot) {
	pdf.SetFont("Arial", "B", 13)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 9, "Protocol statistics", "", 1, "L", false, 0, "")

	type row struct {
		protocol string
		iface    string
		in, out  int64
	}
	rows := make([]row, 0, len(snap.Stats))
	for key, v := range snap.Stats {
		rows = append(rows, row{protocol: string(key.Protocol), iface: key.Interface.OSName, in: v.InputCount, out: v.OutputCount})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].protocol != rows[j].protocol {
			return rows[i].protocol < rows[j].protocol
		}
		return rows[i].iface < rows[j].iface
	})

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 9)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(40, 7, "Protocol", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "Interface", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Input", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Output", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, r := range rows {
		pdf.CellFormat(40, 6, r.protocol, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, r.iface, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", r.in), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", r.out), "1", 1, "C", false, 0, "")
	}
}

func boolCell(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
