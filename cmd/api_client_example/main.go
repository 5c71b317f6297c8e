package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"flipclock/display"
	"flipclock/panel"
	"flipclock/providers/kma"
)

func main() {
	baseURL := flag.String("url", "http://localhost:9001", "Base URL of the kiosk server")
	flag.Parse()

	fmt.Println("Weather API Client Example")
	fmt.Println("=========================")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	endpoint := *baseURL + "/api/weather"
	fmt.Printf("Fetching %s...\n", endpoint)

	payload, err := panel.NewHTTPFetcher(endpoint, nil).FetchPayload(ctx)
	if err != nil {
		fmt.Printf("Error fetching weather: %v\n", err)
		os.Exit(1)
	}

	for name, section := range payload.Sections() {
		if section.Err != nil {
			fmt.Printf("  %-10s %s (%v)\n", name, section.State, section.Err)
			continue
		}
		fmt.Printf("  %-10s %s, %d items\n", name, section.State, len(section.Items))
	}

	// Render into a scratch board to show what the panel would display
	board := display.NewDefaultBoard()
	snap := panel.Project(payload, time.Now().In(kma.KST))
	for step, perr := range snap.Problems {
		fmt.Printf("Projection step %s failed: %v\n", step, perr)
	}
	panel.Apply(board, snap)

	fmt.Println("\nPanel fields:")
	for _, id := range []string{
		display.CurrentTemp, display.Humidity, display.MinMaxTemp,
		display.WeatherStatus, display.FineDust,
	} {
		text, _ := board.Text(id)
		fmt.Printf("  %-15s %s\n", id, text)
	}
	if color, ok := board.Style(display.FineDust, "color"); ok {
		fmt.Printf("  %-15s %s\n", "fine-dust color", color)
	}
}
