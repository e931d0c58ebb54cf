// Package render рисует недельное расписание учителя в PNG
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Константы размеров и отступов
const (
	imageWidth       = 1120
	imageHeight      = 720
	headerHeight     = 70
	leftLabelsWidth  = 60
	dayPaddingX      = 6
	minSlotHeight    = 8.0
	slotBorderRadius = 5.0
	shadowOffset     = 2.0
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 18
)

// Цветовая схема
var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 255}
	hourLabelColor = color.RGBA{110, 115, 120, 255}
	hourLineColor  = color.NRGBA{150, 150, 150, 255}
	todayBgColor   = color.NRGBA{255, 99, 71, 90}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{225, 225, 225, 255}

	slotColor       = color.RGBA{133, 193, 85, 230}
	slotTextColor   = color.RGBA{20, 24, 28, 255}
	slotShadowColor = color.RGBA{0, 0, 0, 20}
)

// hourRange диапазон часов на картинке, end включительно
type hourRange struct {
	start int
	end   int
	total int
}

// Options параметры отрисовки
type Options struct {
	Title string
	// Today подсвечивается, если не nil
	Today *model.Weekday
}

// AvailabilityPNG рисует недельную сетку Monday..Sunday со слотами учителя
func AvailabilityPNG(availability model.Availability, opts Options) ([]byte, error) {
	hours := calculateHourRange(availability)

	dc := createCanvas()
	dayWidth := (imageWidth - leftLabelsWidth) / len(model.Weekdays)
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	dc.SetFontFace(basicfont.Face7x13)

	drawHeader(dc, opts.Title)
	drawHourLabels(dc, hours, cellHeight)
	for i, day := range model.Weekdays {
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)
		isToday := opts.Today != nil && *opts.Today == day

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, isToday)
		drawDayHeader(dc, day, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, slot := range availability[day] {
			drawSlot(dc, slot, x, y, dayWidth, hours, cellHeight)
		}
	}

	return encodeImage(dc)
}

// TodayIn день недели для подсветки в зоне loc
func TodayIn(now time.Time, loc *time.Location) *model.Weekday {
	if loc != nil {
		now = now.In(loc)
	}
	day := model.Weekday(now.Weekday().String())
	return &day
}

// calculateHourRange по слотам; без слотов рабочий день по умолчанию
func calculateHourRange(availability model.Availability) hourRange {
	minHour := 24
	maxHour := 0

	for _, slots := range availability {
		for _, slot := range slots {
			startH, _, ok := parseHHMM(slot.StartTime)
			if !ok {
				continue
			}
			endH, endM, ok := parseHHMM(slot.EndTime)
			if !ok {
				continue
			}
			if endM > 0 {
				endH++
			}
			if startH < minHour {
				minHour = startH
			}
			if endH > maxHour {
				maxHour = endH
			}
		}
	}

	if minHour == 24 {
		minHour = defaultMinHour
		maxHour = defaultMaxHour
	}

	startHour := max(minHour-hourPaddingTop, 0)
	endHour := min(maxHour+hourPaddingBot, 24)

	return hourRange{
		start: startHour,
		end:   endHour,
		total: endHour - startHour,
	}
}

func parseHHMM(s string) (hour, minute int, ok bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

func createCanvas() *gg.Context {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	return dc
}

func drawHeader(dc *gg.Context, title string) {
	if title == "" {
		title = "Weekly availability"
	}
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, float64(imageWidth)/2, float64(headerHeight)/4, 0.5, 0.5)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	dc.SetColor(hourLabelColor)
	for hIdx := 0; hIdx <= hours.total; hIdx++ {
		y := float64(headerHeight) + float64(hIdx)*cellHeight
		dc.DrawStringAnchored(formatHourLabel(hours.start+hIdx), float64(leftLabelsWidth)-8, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, day model.Weekday, x, y float64, dayWidth int) {
	dc.SetColor(textColor)
	dc.DrawStringAnchored(string(day), x+float64(dayWidth)/2, y-12, 0.5, 0)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)
	for hIdx := 0; hIdx <= hours.total; hIdx++ {
		hy := y + float64(hIdx)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawSlot(dc *gg.Context, slot model.TimeSlot, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startH, startM, ok := parseHHMM(slot.StartTime)
	if !ok {
		return
	}
	endH, endM, ok := parseHHMM(slot.EndTime)
	if !ok {
		return
	}
	slotStart := float64(startH) + float64(startM)/60.0
	slotEnd := float64(endH) + float64(endM)/60.0

	slotY := y + (slotStart-float64(hours.start))*cellHeight
	slotHeight := max((slotEnd-slotStart)*cellHeight, minSlotHeight)
	slotWidth := float64(dayWidth) - float64(dayPaddingX*2)

	// Тень
	dc.SetColor(slotShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, slotY+1+shadowOffset, slotWidth, slotHeight-2, slotBorderRadius)
	dc.Fill()

	dc.SetColor(slotColor)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+1, slotWidth, slotHeight-2, slotBorderRadius)
	dc.Fill()

	dc.SetColor(darkenColor(slotColor, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, slotY+1, slotWidth, slotHeight-2, slotBorderRadius)
	dc.Stroke()

	if slotHeight > 16 {
		dc.SetColor(slotTextColor)
		label := fmt.Sprintf("%s-%s", slot.StartTime, slot.EndTime)
		dc.DrawStringAnchored(label, x+dayPaddingX+6, slotY+14, 0, 0)
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func formatHourLabel(h int) string {
	if h < 10 {
		return "0" + strconv.Itoa(h) + ":00"
	}
	return strconv.Itoa(h) + ":00"
}
