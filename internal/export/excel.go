package export

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"avtoprokat/internal/models"
	"avtoprokat/internal/service"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Бронирования"

// ExcelExporter renders a bookings report as an xlsx workbook with one row
// per booking and the invoice amounts alongside.
type ExcelExporter struct {
	invoices *service.InvoiceGenerator
	logger   *zerolog.Logger
}

func NewExcelExporter(invoices *service.InvoiceGenerator, logger *zerolog.Logger) *ExcelExporter {
	return &ExcelExporter{invoices: invoices, logger: logger}
}

// WriteReport streams the workbook into an HTTP response.
func (e *ExcelExporter) WriteReport(w http.ResponseWriter, bookings []*models.Booking) error {
	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))

	return e.Write(w, bookings)
}

// Write renders the workbook into any writer.
func (e *ExcelExporter) Write(w io.Writer, bookings []*models.Booking) error {
	f, err := e.build(bookings)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %v", err)
	}

	e.logger.Info().Int("bookings", len(bookings)).Msg("Excel report generated")
	return nil
}

func (e *ExcelExporter) build(bookings []*models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"ID", "Номер", "Машина", "Арендатор", "Получение", "Возврат",
		"Дней", "Статус", "Сумма", "Налог", "Итого",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle)

	for i, booking := range bookings {
		row := i + 2
		invoice := e.invoices.Generate(booking)

		values := []any{
			booking.ID,
			booking.Reference,
			booking.CarName,
			booking.RenterID,
			booking.Interval.Start.Format("02.01.2006 15:04"),
			booking.Interval.End.Format("02.01.2006 15:04"),
			invoice.Days,
			booking.Status,
			service.Round2(invoice.Subtotal),
			service.Round2(invoice.Tax),
			service.Round2(invoice.Total),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "C", 25)
	_ = f.SetColWidth(sheetName, "D", "K", 16)

	_ = f.DeleteSheet("Sheet1")

	return f, nil
}
