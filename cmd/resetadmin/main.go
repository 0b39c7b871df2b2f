package main

import (
	"context"
	"log"
	"os"

	"chatroom-backend/internal/auth"
	"chatroom-backend/internal/config"
	"chatroom-backend/internal/database"

	"github.com/joho/godotenv"
)

// Resets the admin password and reactivates the account, for recovering a
// locked-out deployment.
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

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	ctx := context.Background()
	tag, err := db.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, is_active = TRUE, is_superuser = TRUE, updated_at = NOW()
		WHERE username = $2
	`, hash, username)
	if err != nil {
		log.Fatal("Failed to reset admin:", err)
	}
	if tag.RowsAffected() == 0 {
		log.Fatalf("No user named %q found; run cmd/createadmin first", username)
	}

	// Force re-login with the new credential.
	_, err = db.Exec(ctx, `
		DELETE FROM auth_tokens WHERE user_id = (SELECT id FROM users WHERE username = $1)
	`, username)
	if err != nil {
		log.Fatal("Failed to revoke admin session:", err)
	}

	log.Printf("Admin %q reset. Password: %s", username, password)
}
