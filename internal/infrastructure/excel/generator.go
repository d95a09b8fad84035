// Package excel genera la planilla XLSX de un lote de NFCom registrado en la bitácora.
package excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/nfcom-bff/internal/application/billing"
	"github.com/jhoicas/nfcom-bff/internal/domain/entity"
)

const (
	sheetSummary   = "Resumo"
	sheetSuccesses = "Processadas"
	sheetFailures  = "Falhas"

	// numFmtMoney "#,##0.00" del catálogo integrado de excelize.
	numFmtMoney = 4
)

var _ billing.BatchReportGenerator = (*Generator)(nil)

// Generator implementa billing.BatchReportGenerator con excelize.
type Generator struct{}

// NewGenerator construye el generador.
func NewGenerator() *Generator {
	return &Generator{}
}

// ContentType MIME de la planilla.
func (g *Generator) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension extensión del archivo.
func (g *Generator) Extension() string { return "xlsx" }

// GenerateBatchReport una hoja de resumen, una de procesadas y una de fallas.
func (g *Generator) GenerateBatchReport(_ context.Context, batch *entity.BatchResult, meta billing.BatchReportMeta) ([]byte, error) {
	if batch == nil {
		return nil, fmt.Errorf("excel: lote nulo")
	}
	file := excelize.NewFile()
	defer file.Close()

	header, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00467F"}},
	})
	if err != nil {
		return nil, fmt.Errorf("excel: estilo de cabecera: %w", err)
	}
	money, err := file.NewStyle(&excelize.Style{NumFmt: numFmtMoney})
	if err != nil {
		return nil, fmt.Errorf("excel: estilo monetario: %w", err)
	}

	if err := file.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("excel: %w", err)
	}
	g.writeSummary(file, batch, meta)

	if _, err := file.NewSheet(sheetSuccesses); err != nil {
		return nil, fmt.Errorf("excel: %w", err)
	}
	if err := g.writeSuccesses(file, batch.Successes, header, money); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(sheetFailures); err != nil {
		return nil, fmt.Errorf("excel: %w", err)
	}
	if err := g.writeFailures(file, batch.Failures, header); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: serializar: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, batch *entity.BatchResult, meta billing.BatchReportMeta) {
	set := func(cell string, value any) {
		_ = file.SetCellValue(sheetSummary, cell, value)
	}
	mode := "Execução"
	if !batch.Execute {
		mode = "Simulação"
	}

	set("A1", "Lote")
	set("B1", batch.ID)
	set("A2", "Ação")
	set("B2", batch.Action)
	set("A3", "Modo")
	set("B3", mode)
	set("A4", "Transmitir")
	set("B4", boolLabel(batch.Transmit))
	set("A5", "Processado em")
	set("B5", batch.CreatedAt.Format("02/01/2006 15:04:05"))
	set("A6", "Processados")
	set("B6", batch.TotalProcessed)
	set("A7", "Sucesso")
	set("B7", batch.TotalSuccess)
	set("A8", "Falhas")
	set("B8", batch.TotalFailed)
	set("A10", "Empresa")
	set("B10", meta.CompanyID)
	set("A11", "Gerado por")
	set("B11", meta.GeneratedBy)
	set("A12", "Gerado em")
	set("B12", meta.GeneratedAt.Format("02/01/2006 15:04:05"))

	_ = file.SetColWidth(sheetSummary, "A", "A", 18)
	_ = file.SetColWidth(sheetSummary, "B", "B", 40)
}

func (g *Generator) writeSuccesses(file *excelize.File, items []entity.BatchSuccess, header, money int) error {
	headers := []any{"Contrato", "NFCom ID", "Número", "Situação", "Protocolo", "Valor", "cStat", "Motivo", "Aviso"}
	if err := file.SetSheetRow(sheetSuccesses, "A1", &headers); err != nil {
		return fmt.Errorf("excel: cabecera: %w", err)
	}
	_ = file.SetCellStyle(sheetSuccesses, "A1", "I1", header)

	for i, s := range items {
		status := s.Status
		if s.DryRun {
			status = "simulada"
		}
		var code, reason string
		if s.Rejection != nil {
			code, reason = s.Rejection.Code, s.Rejection.Reason
		}
		values := []any{s.ContractID, s.NFComID, s.Number, status, s.Protocol, s.Total.InexactFloat64(), code, reason, s.Warning}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := file.SetSheetRow(sheetSuccesses, cell, &values); err != nil {
			return fmt.Errorf("excel: fila %d: %w", i+2, err)
		}
	}
	if len(items) > 0 {
		_ = file.SetCellStyle(sheetSuccesses, "F2", fmt.Sprintf("F%d", len(items)+1), money)
	}

	_ = file.SetColWidth(sheetSuccesses, "A", "B", 38)
	_ = file.SetColWidth(sheetSuccesses, "C", "D", 12)
	_ = file.SetColWidth(sheetSuccesses, "E", "E", 20)
	_ = file.SetColWidth(sheetSuccesses, "F", "G", 12)
	_ = file.SetColWidth(sheetSuccesses, "H", "I", 48)
	return nil
}

func (g *Generator) writeFailures(file *excelize.File, items []entity.BatchFailure, header int) error {
	headers := []any{"Contrato", "NFCom ID", "Motivo", "Reenviar"}
	if err := file.SetSheetRow(sheetFailures, "A1", &headers); err != nil {
		return fmt.Errorf("excel: cabecera: %w", err)
	}
	_ = file.SetCellStyle(sheetFailures, "A1", "D1", header)

	for i, f := range items {
		values := []any{f.ContractID, f.NFComID, f.Reason, boolLabel(f.Retryable)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := file.SetSheetRow(sheetFailures, cell, &values); err != nil {
			return fmt.Errorf("excel: fila %d: %w", i+2, err)
		}
	}

	_ = file.SetColWidth(sheetFailures, "A", "B", 38)
	_ = file.SetColWidth(sheetFailures, "C", "C", 70)
	_ = file.SetColWidth(sheetFailures, "D", "D", 10)
	return nil
}

func boolLabel(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
