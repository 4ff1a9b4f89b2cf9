// Command migrate applies or inspects the database schema.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"sharify/internal/config"
	"sharify/internal/database"

	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		log.Println("schema applied")
	case "status":
		for _, line := range status(db) {
			log.Println(line)
		}
	default:
		return usage()
	}
	return nil
}

func status(db *gorm.DB) []string {
	m := db.Migrator()
	lines := make([]string, 0, len(database.PersistentModels()))
	for _, model := range database.PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		name := fmt.Sprintf("%T", model)
		if err := stmt.Parse(model); err == nil {
			name = stmt.Schema.Table
		}
		state := "missing"
		if m.HasTable(model) {
			state = "present"
		}
		lines = append(lines, fmt.Sprintf("%-12s %s", name, state))
	}
	return lines
}
