package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/ahjaypee/se-asia-scanner/internal/scan"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("scan-history")
	var (
		dbPath      = fs.StringLong("db", "se-asia-scanner.db", "Database file path")
		showTrips   = fs.BoolLong("trips", "List trips instead of scans")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SE_ASIA_SCANNER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	db, err := scan.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if *showTrips {
		trips, err := db.ListTrips()
		if err != nil {
			slog.Error("Failed to list trips", "error", err)
			os.Exit(1)
		}
		for _, trip := range trips {
			fmt.Printf("%s  %s  %d scans  %d.%02d\n",
				trip.CreatedAt.Format("2006-01-02"),
				trip.Name,
				len(trip.ScanIDs),
				trip.TotalCents/100, trip.TotalCents%100,
			)
		}
		return
	}

	scans, err := db.ListScans()
	if err != nil {
		slog.Error("Failed to list scans", "error", err)
		os.Exit(1)
	}
	for _, record := range scans {
		fmt.Printf("%s  %-7s  %.2f %s -> %d.%02d %s\n",
			record.CreatedAt.Format("2006-01-02"),
			record.Mode,
			record.Total, record.From,
			record.ConvertedCents/100, record.ConvertedCents%100, record.To,
		)
	}
}
