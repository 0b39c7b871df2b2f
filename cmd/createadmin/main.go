package main

import (
	"context"
	"log"
	"os"

	"chatroom-backend/internal/auth"
	"chatroom-backend/internal/chat"
	"chatroom-backend/internal/config"
	"chatroom-backend/internal/database"

	"github.com/joho/godotenv"
)

// Creates the privileged admin user directly against the data model,
// bypassing the HTTP layer. Safe to re-run; a second run reports the
// duplicate and exits.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()

	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	username := envOr("ADMIN_USERNAME", "admin")
	password := envOr("ADMIN_PASSWORD", "admin123")

	store := chat.NewStore(db, auth.DefaultPasswordPolicy())
	admin, err := store.CreateUser(context.Background(), chat.CreateUserParams{
		Username:    username,
		Email:       envOr("ADMIN_EMAIL", "admin@example.com"),
		Password:    password,
		DisplayName: "Administrator",
		Superuser:   true,
	})
	if err != nil {
		log.Fatalf("Error creating admin: %v", err)
	}

	log.Printf("Admin user created: %s", admin.Username)
	log.Println("Login credentials:")
	log.Printf("Username: %s", username)
	log.Printf("Password: %s", password)
}

func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
