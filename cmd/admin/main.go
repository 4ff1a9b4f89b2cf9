// Package main manages administrator accounts.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"sharify/internal/config"
	"sharify/internal/database"
	"sharify/internal/models"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin promote <email>     - Promote account to admin")
		fmt.Println("  go run ./cmd/admin demote <email>      - Demote account from admin")
		fmt.Println("  go run ./cmd/admin list-admins         - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <email>\n", command)
			os.Exit(1)
		}
		setAdmin(db, os.Args[2], command == "promote")
	case "list-admins":
		listAdmins(db)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func setAdmin(db *gorm.DB, email string, admin bool) {
	var account models.Account
	if err := db.Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("Account %s not found\n", email)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	if account.IsAdmin == admin {
		fmt.Printf("%s (ID: %d) already has is_admin=%v\n", account.Email, account.ID, admin)
		return
	}

	if err := db.Model(&account).Update("is_admin", admin).Error; err != nil {
		log.Fatalf("Failed to update account: %v", err)
	}
	verb := "promoted"
	if !admin {
		verb = "demoted"
	}
	fmt.Printf("✅ Successfully %s %s (ID: %d)\n", verb, account.Email, account.ID)
}

func listAdmins(db *gorm.DB) {
	var admins []models.Account
	if err := db.Where("is_admin = ?", true).Order("id").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Email: %s\n", admin.ID, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
}
