package main

import (
	"context"
	"flag"
	"log"
	"os"

	"hrms/config"
	"hrms/database"
	"hrms/services"
	"hrms/services/directory"
)

// Bulk loads outlets from a CSV file, the same format the admin import endpoint accepts.
func main() {
	path := flag.String("file", "outlets.csv", "CSV file with a header row")
	flag.Parse()

	// Load config and connect to database
	config.LoadConfig()
	database.ConnectDb()
	services.Init(database.Database.Db)
	defer services.App.Close()

	file, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	rows, err := directory.ParseCSV(file)
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	log.Printf("Total rows to import: %d", len(rows))

	ctx := context.Background()
	sum := services.App.Directory.Import(ctx, rows)
	for _, rowErr := range sum.Errors {
		log.Printf("Row %d (%s): %s", rowErr.Row, rowErr.Code, rowErr.Error)
	}

	// approval links for newly covered outlets go out now instead of on the next server sweep
	if sum.Dispatched > 0 {
		sent, err := services.App.Dispatcher.Drain(ctx)
		if err != nil {
			log.Printf("Failed to deliver approval links: %v", err)
		}
		log.Printf("Delivered %d lifecycle events", sent)
	}

	log.Printf("Import completed: %d inserted, %d updated, %d skipped, %d errors",
		sum.Inserted, sum.Updated, sum.Skipped, len(sum.Errors))
}
