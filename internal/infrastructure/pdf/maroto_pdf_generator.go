// Package pdf genera el reporte imprimible de un lote de NFCom registrado en la bitácora.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Relatório de lote + acción │ Lote + fecha           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: procesados / éxitos / fallas / total emitido       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA ÉXITOS: Contrato | NFCom | Situação | Protocolo | R$  │
//	│  TABLA FALLAS: Contrato/NFCom | Motivo | Reintento           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: empresa, usuario y leyenda                          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/nfcom-bff/internal/application/billing"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorDanger  = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var _ billing.BatchReportGenerator = (*MarotoPDFGenerator)(nil)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.BatchReportGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// ContentType MIME del reporte.
func (g *MarotoPDFGenerator) ContentType() string { return "application/pdf" }

// Extension extensión del archivo.
func (g *MarotoPDFGenerator) Extension() string { return "pdf" }

// GenerateBatchReport genera el PDF del lote y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateBatchReport(
	_ context.Context,
	batch *entity.BatchResult,
	meta billing.BatchReportMeta,
) ([]byte, error) {
	if batch == nil {
		return nil, fmt.Errorf("pdf: lote nulo")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Relatório de lote NFCom", true).
		WithAuthor(meta.CompanyID, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(batch, meta))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(batch))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	if len(batch.Successes) > 0 {
		m.AddRows(sectionTitle("NFCom processadas", colorPrimary))
		m.AddRows(successHeaderRow())
		m.AddRows(successRows(batch.Successes)...)
	}
	if len(batch.Failures) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(sectionTitle("Falhas", colorDanger))
		m.AddRows(failureHeaderRow())
		m.AddRows(failureRows(batch.Failures)...)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(meta))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título y acción (izq), id del lote y fecha (der).
func headerRow(batch *entity.BatchResult, meta billing.BatchReportMeta) core.Row {
	mode := "Execução"
	if !batch.Execute {
		mode = "Simulação (sem emissão)"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("RELATÓRIO DE LOTE NFCom", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(actionLabel(batch.Action)+" · "+mode, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Lote "+batch.ID, props.Text{
				Style: fontstyle.Bold, Size: 7, Align: align.Right, Top: 2,
			}),
			text.New("Processado em "+batch.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Gerado em "+meta.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func summaryRow(batch *entity.BatchResult) core.Row {
	cell := func(label, value string, c *props.Color) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1, Align: align.Center}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 12, Color: c, Top: 5, Align: align.Center}),
		)
	}
	return row.New(14).Add(
		cell("Processados", fmt.Sprint(batch.TotalProcessed), colorPrimary),
		cell("Sucesso", fmt.Sprint(batch.TotalSuccess), colorPrimary),
		cell("Falhas", fmt.Sprint(batch.TotalFailed), colorDanger),
		cell("Valor total", formatBRL(successTotal(batch.Successes)), colorPrimary),
	)
}

func sectionTitle(title string, c *props.Color) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(strings.ToUpper(title), props.Text{Style: fontstyle.Bold, Size: 8, Color: c, Top: 2}),
	))
}

func headerCell(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 1, Left: 1, Right: 1,
	}))
}

func successHeaderRow() core.Row {
	return row.New(6).Add(
		headerCell("Contrato", 3, align.Left),
		headerCell("NFCom", 2, align.Center),
		headerCell("Situação", 2, align.Center),
		headerCell("Protocolo", 3, align.Left),
		headerCell("Valor", 2, align.Right),
	)
}

func successRows(items []entity.BatchSuccess) []core.Row {
	out := make([]core.Row, 0, len(items))
	for _, s := range items {
		number := "—"
		if s.Number > 0 {
			number = fmt.Sprint(s.Number)
		}
		status := statusLabel(s.Status, s.DryRun)
		if s.Rejection != nil {
			status += " (" + s.Rejection.Code + ")"
		}
		out = append(out, row.New(6).Add(
			col.New(3).Add(text.New(nonEmpty(s.ContractID, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(number, props.Text{Size: 8, Top: 1, Align: align.Center})),
			col.New(2).Add(text.New(status, props.Text{Size: 8, Top: 1, Align: align.Center})),
			col.New(3).Add(text.New(nonEmpty(s.Protocol, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatBRL(s.Total), props.Text{Size: 8, Top: 1, Align: align.Right, Right: 1})),
		))
	}
	return out
}

func failureHeaderRow() core.Row {
	return row.New(6).Add(
		headerCell("Contrato / NFCom", 3, align.Left),
		headerCell("Motivo", 7, align.Left),
		headerCell("Reenviar", 2, align.Center),
	)
}

func failureRows(items []entity.BatchFailure) []core.Row {
	out := make([]core.Row, 0, len(items))
	for _, f := range items {
		retry := "Não"
		if f.Retryable {
			retry = "Sim"
		}
		out = append(out, row.New(8).Add(
			col.New(3).Add(text.New(nonEmpty(f.ContractID, f.NFComID), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(7).Add(text.New(f.Reason, props.Text{Size: 7, Top: 1, Left: 1, Color: colorDanger})),
			col.New(2).Add(text.New(retry, props.Text{Size: 8, Top: 1, Align: align.Center})),
		))
	}
	return out
}

func footerRow(meta billing.BatchReportMeta) core.Row {
	return row.New(10).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Empresa %s · gerado por %s", meta.CompanyID, nonEmpty(meta.GeneratedBy, "—")), props.Text{
			Size: 7, Color: colorGray, Top: 1,
		}),
		text.New("Documento interno de conferência. A situação fiscal vigente é a do back office.", props.Text{
			Size: 6.5, Color: colorGray, Top: 5,
		}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func actionLabel(action string) string {
	switch action {
	case entity.BatchActionEmit:
		return "Emissão a partir de contratos"
	case entity.BatchActionTransmit:
		return "Transmissão à SEFAZ"
	case entity.BatchActionEmail:
		return "Envio por e-mail"
	case entity.BatchActionDelete:
		return "Exclusão"
	}
	return action
}

func statusLabel(status string, dryRun bool) string {
	if dryRun {
		return "Simulada"
	}
	switch status {
	case entity.NFComStatusPending:
		return "Pendente"
	case entity.NFComStatusAuthorized:
		return "Autorizada"
	case entity.NFComStatusCancelled:
		return "Cancelada"
	case entity.NFComStatusRejected:
		return "Rejeitada"
	}
	return nonEmpty(status, "—")
}

func successTotal(items []entity.BatchSuccess) decimal.Decimal {
	total := decimal.Zero
	for _, s := range items {
		total = total.Add(s.Total)
	}
	return total
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatBRL formato monetario brasileño: "R$ 1.234,56".
func formatBRL(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "R$ " + string(buf) + "," + frac
}
