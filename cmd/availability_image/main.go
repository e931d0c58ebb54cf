package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/Freeeeeet/campus_scheduler/internal/render"
)

// Рисует пример недельного расписания в PNG, чтобы проверить вёрстку без сервера
func main() {
	out := flag.String("out", "availability.png", "output file")
	flag.Parse()

	availability := model.Availability{}
	for _, slot := range []model.TimeSlot{
		{Day: model.Monday, StartTime: "09:00", EndTime: "10:00"},
		{Day: model.Monday, StartTime: "14:00", EndTime: "15:30"},
		{Day: model.Tuesday, StartTime: "10:00", EndTime: "11:00"},
		{Day: model.Wednesday, StartTime: "15:00", EndTime: "16:00"},
		{Day: model.Friday, StartTime: "11:00", EndTime: "12:00"},
		{Day: model.Friday, StartTime: "13:00", EndTime: "14:00"},
	} {
		var err error
		availability, err = availability.AddSlot(slot)
		if err != nil {
			fmt.Printf("Ошибка добавления слота: %v\n", err)
			os.Exit(1)
		}
	}

	imageData, err := render.AvailabilityPNG(availability, render.Options{
		Title: "Sample teacher",
		Today: render.TodayIn(time.Now(), time.Local),
	})
	if err != nil {
		fmt.Printf("Ошибка генерации изображения: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, imageData, 0644); err != nil {
		fmt.Printf("Ошибка сохранения файла: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Изображение сохранено в %s\n", *out)
	fmt.Printf("📊 Дней со слотами: %d\n", len(availability.Days()))
}
