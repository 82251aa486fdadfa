// Package export строит Excel-отчёты по журналу записей: плоский список
// записей за период и сетку занятости (даты в колонках, слоты в строках).
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"zapis/internal/database"
	"zapis/internal/models"
	"zapis/internal/schedule"
	"zapis/internal/timeutil"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	statusIconScheduled = "🕑"
	statusIconCompleted = "✅"
	statusIconPaid      = "💰"
	statusIconCancelled = "❌"
)

type Exporter struct {
	db          *database.DB
	path        string
	granularity int
	loc         *time.Location
	logger      *zerolog.Logger
}

func NewExporter(db *database.DB, path string, granularityMinutes int, loc *time.Location, logger *zerolog.Logger) *Exporter {
	if granularityMinutes <= 0 {
		granularityMinutes = models.DefaultGranularityMinutes
	}
	if loc == nil {
		loc = time.Local
	}
	return &Exporter{
		db:          db,
		path:        path,
		granularity: granularityMinutes,
		loc:         loc,
		logger:      logger,
	}
}

// ExportAppointmentList создает Excel файл со списком записей за период.
func (e *Exporter) ExportAppointmentList(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	from, _ := timeutil.DayBounds(startDate, e.loc)
	_, to := timeutil.DayBounds(endDate, e.loc)
	appts, err := e.db.GetAppointmentsByRange(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("error getting appointments: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Записи"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	headers := []string{
		"ID", "Дата", "Время", "Услуга", "Длительность", "Клиент", "Телефон",
		"Статус", "Цена", "Примечание",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, appt := range appts {
		row := i + 3
		startsAt := appt.StartsAt.In(e.loc)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), appt.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), startsAt.Format("02.01.2006"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), startsAt.Format("15:04"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), appt.ServiceName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), fmt.Sprintf("%d мин", appt.DurationMinutes))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), appt.ClientName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), appt.Phone)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), fmt.Sprintf("%s %s", statusIcon(appt.Status), appt.Status))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), fmt.Sprintf("%.2f", float64(appt.PriceCents)/100))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), appt.Notes)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "C", 12)
	_ = f.SetColWidth(sheetName, "D", "D", 25)
	_ = f.SetColWidth(sheetName, "E", "E", 14)
	_ = f.SetColWidth(sheetName, "F", "G", 20)
	_ = f.SetColWidth(sheetName, "H", "H", 16)
	_ = f.SetColWidth(sheetName, "I", "I", 12)
	_ = f.SetColWidth(sheetName, "J", "J", 30)

	_ = f.MergeCell(sheetName, "A1", "J1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("appointments_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("appointments", len(appts)).Msg("Excel file created")
	return filePath, nil
}

// ExportScheduleGrid создает Excel файл с сеткой занятости: колонка на каждую
// дату периода, строка на каждый слот рабочего дня.
func (e *Exporter) ExportScheduleGrid(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	weekly, err := e.db.GetWeeklySchedule(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting weekly schedule: %v", err)
	}

	exceptions, err := e.loadExceptions(ctx, startDate, endDate)
	if err != nil {
		return "", err
	}

	from, _ := timeutil.DayBounds(startDate, e.loc)
	_, to := timeutil.DayBounds(endDate, e.loc)
	appts, err := e.db.GetAppointmentsByRange(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("error getting appointments: %v", err)
	}
	byDateMinute := indexAppointments(appts, e.loc, e.granularity)

	// Слоты каждого дня и общий отсортированный список строк сетки.
	daySlots := make(map[string]map[int]bool)
	rowMinutes := collectRowMinutes(weekly, exceptions, startDate, endDate, e.granularity, daySlots)

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Журнал"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	dateHeaders := e.writeDateHeaders(f, sheetName, startDate, endDate)
	e.writeSlotHeaders(f, sheetName, rowMinutes)
	e.writeGridCells(f, sheetName, rowMinutes, dateHeaders, daySlots, byDateMinute)

	_ = f.SetColWidth(sheetName, "A", "A", 10)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheetName, string(i), string(i), 24)
	}

	lastCol := getLastColumn(len(dateHeaders) + 1)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("grid_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel grid created")
	return filePath, nil
}

func (e *Exporter) loadExceptions(ctx context.Context, startDate, endDate time.Time) (map[string]*models.ScheduleException, error) {
	list, err := e.db.ListExceptions(ctx, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("error getting exceptions: %v", err)
	}
	out := make(map[string]*models.ScheduleException, len(list))
	for i := range list {
		out[list[i].Date] = &list[i]
	}
	return out, nil
}

func (e *Exporter) writeDateHeaders(f *excelize.File, sheetName string, startDate, endDate time.Time) map[string]int {
	col := 2
	currentDate := startDate
	dateHeaders := make(map[string]int)

	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for !currentDate.After(endDate) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, currentDate.Format("02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, style)
		dateHeaders[currentDate.Format("2006-01-02")] = col

		col++
		currentDate = currentDate.AddDate(0, 0, 1)
	}
	return dateHeaders
}

func (e *Exporter) writeSlotHeaders(f *excelize.File, sheetName string, rowMinutes []int) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, minute := range rowMinutes {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		_ = f.SetCellValue(sheetName, cell, models.FormatClock(minute))
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func (e *Exporter) writeGridCells(
	f *excelize.File, sheetName string,
	rowMinutes []int,
	dateHeaders map[string]int,
	daySlots map[string]map[int]bool,
	byDateMinute map[string]map[int]*models.Appointment,
) {
	for dateKey, col := range dateHeaders {
		offered := daySlots[dateKey]
		for i, minute := range rowMinutes {
			cell, _ := excelize.CoordinatesToCellName(col, i+3)

			appt := byDateMinute[dateKey][minute]
			if appt != nil {
				value := "↑ занято"
				if timeutil.MinuteOfDay(appt.StartsAt.In(e.loc)) == minute {
					value = fmt.Sprintf("%s %s (%s)\n%s", statusIcon(appt.Status), appt.ClientName, appt.Phone, appt.ServiceName)
					if appt.Notes != "" {
						value += fmt.Sprintf("\n💬 %s", appt.Notes)
					}
				}
				_ = f.SetCellValue(sheetName, cell, value)
				_ = f.SetCellStyle(sheetName, cell, cell, e.bookedCellStyle(f, appt.Status))
				continue
			}

			if offered == nil || !offered[minute] {
				_ = f.SetCellValue(sheetName, cell, "—")
				_ = f.SetCellStyle(sheetName, cell, cell, e.closedCellStyle(f))
				continue
			}

			_ = f.SetCellValue(sheetName, cell, "Свободно")
			_ = f.SetCellStyle(sheetName, cell, cell, e.freeCellStyle(f))
		}
	}
}

func (e *Exporter) bookedCellStyle(f *excelize.File, status string) int {
	color := "#FFEB9C"
	if status == models.StatusCompleted || status == models.StatusPaid {
		color = "#C6EFCE"
	}
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
	return style
}

func (e *Exporter) freeCellStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFFFFF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
	return style
}

func (e *Exporter) closedCellStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#F2F2F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top"},
	})
	return style
}

// collectRowMinutes обходит период, запоминает слоты каждого дня в daySlots и
// возвращает объединение слотов всех дней для строк сетки.
func collectRowMinutes(
	weekly models.WeeklySchedule,
	exceptions map[string]*models.ScheduleException,
	startDate, endDate time.Time,
	granularity int,
	daySlots map[string]map[int]bool,
) []int {
	seen := make(map[int]bool)
	currentDate := startDate
	for !currentDate.After(endDate) {
		dateKey := currentDate.Format("2006-01-02")
		day := schedule.ResolveDay(weekly, exceptions[dateKey], timeutil.Weekday(currentDate))
		slots := schedule.GenerateSlots(day, granularity, 0)
		set := make(map[int]bool, len(slots))
		for _, minute := range slots {
			set[minute] = true
			seen[minute] = true
		}
		daySlots[dateKey] = set
		currentDate = currentDate.AddDate(0, 0, 1)
	}

	out := make([]int, 0, len(seen))
	for minute := range seen {
		out = append(out, minute)
	}
	sort.Ints(out)
	return out
}

// indexAppointments раскладывает активные записи по дате и минуте слота.
// Запись длиннее шага сетки занимает и последующие слоты.
func indexAppointments(appts []models.Appointment, loc *time.Location, granularity int) map[string]map[int]*models.Appointment {
	out := make(map[string]map[int]*models.Appointment)
	for i := range appts {
		appt := &appts[i]
		if !appt.Active() {
			continue
		}
		startsAt := appt.StartsAt.In(loc)
		dateKey := startsAt.Format("2006-01-02")
		if out[dateKey] == nil {
			out[dateKey] = make(map[int]*models.Appointment)
		}
		start := timeutil.MinuteOfDay(startsAt)
		for minute := start; minute < start+appt.DurationMinutes; minute += granularity {
			out[dateKey][minute] = appt
		}
	}
	return out
}

func statusIcon(status string) string {
	switch status {
	case models.StatusScheduled:
		return statusIconScheduled
	case models.StatusCompleted:
		return statusIconCompleted
	case models.StatusPaid:
		return statusIconPaid
	case models.StatusCancelled:
		return statusIconCancelled
	default:
		return "❓"
	}
}

// getLastColumn возвращает последнюю колонку для объединения ячеек
func getLastColumn(colCount int) string {
	if colCount <= 26 {
		return string(rune('A' + colCount - 1))
	}

	firstChar := string(rune('A' + (colCount-1)/26 - 1))
	secondChar := string(rune('A' + (colCount-1)%26))
	return firstChar + secondChar
}
