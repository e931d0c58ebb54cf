package render

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityPNG(t *testing.T) {
	availability := model.Availability{
		model.Monday: {{Day: model.Monday, StartTime: "09:00", EndTime: "10:00"}},
	}

	data, err := AvailabilityPNG(availability, Options{Title: "Ada Lovelace"})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, imageWidth, imageHeight), img.Bounds())

	// середина слота в понедельник зелёная, вторник в то же время серый
	r, g, _, _ := img.At(135, 400).RGBA()
	assert.Greater(t, g>>8, r>>8+30)

	r, g, _, _ = img.At(285, 400).RGBA()
	assert.Equal(t, r>>8, g>>8)
}

func TestAvailabilityPNG_Empty(t *testing.T) {
	data, err := AvailabilityPNG(nil, Options{})
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestCalculateHourRange(t *testing.T) {
	tests := []struct {
		name         string
		availability model.Availability
		want         hourRange
	}{
		{name: "empty uses working day", availability: nil, want: hourRange{start: 7, end: 19, total: 12}},
		{name: "partial hour rounds up", availability: model.Availability{
			model.Friday: {{Day: model.Friday, StartTime: "13:15", EndTime: "14:30"}},
		}, want: hourRange{start: 12, end: 16, total: 4}},
		{name: "clamped to day", availability: model.Availability{
			model.Sunday: {{Day: model.Sunday, StartTime: "00:00", EndTime: "23:59"}},
		}, want: hourRange{start: 0, end: 24, total: 24}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateHourRange(tt.availability))
		})
	}
}

func TestTodayIn(t *testing.T) {
	// среда 23:30 UTC это уже четверг в UTC+3
	now := time.Date(2024, 3, 6, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, model.Wednesday, *TodayIn(now, time.UTC))
	assert.Equal(t, model.Thursday, *TodayIn(now, time.FixedZone("UTC+3", 3*60*60)))
}
