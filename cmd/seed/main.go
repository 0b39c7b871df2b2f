package main

import (
	"context"
	"log"
	"time"

	"chatroom-backend/internal/config"
	"chatroom-backend/internal/database"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds demo users and a demo group. Idempotent via ON CONFLICT DO NOTHING.
func main() {
	// Load environment variables
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

	ctx := context.Background()

	users := []struct {
		Username    string
		Email       string
		Password    string
		DisplayName string
	}{
		{"alice", "alice@example.com", "correcthorse1", "Alice"},
		{"bob", "bob@example.com", "correcthorse2", "Bob"},
		{"clara", "clara@example.com", "correcthorse3", "Clara"},
	}

	for _, u := range users {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)

		_, err := db.Exec(ctx, `
			INSERT INTO users (username, email, password_hash, display_name, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (username) DO NOTHING
		`, u.Username, u.Email, string(hashedPassword), u.DisplayName, time.Now())

		if err != nil {
			log.Printf("Failed to create user %s: %v\n", u.Username, err)
		} else {
			log.Printf("User %s created (or already exists)\n", u.Username)
		}
	}

	// Demo group owned by alice, with everyone as a member
	_, err = db.Exec(ctx, `
		INSERT INTO groups (name, description, created_by)
		SELECT 'General', 'Demo chatroom', id FROM users WHERE username = 'alice'
		AND NOT EXISTS (SELECT 1 FROM groups WHERE name = 'General')
	`)
	if err != nil {
		log.Printf("Failed to create demo group: %v\n", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id, role)
		SELECT g.id, u.id, CASE WHEN u.username = 'alice' THEN 'admin' ELSE 'member' END
		FROM groups g, users u
		WHERE g.name = 'General' AND u.username IN ('alice', 'bob', 'clara')
		ON CONFLICT (group_id, user_id) DO NOTHING
	`)
	if err != nil {
		log.Printf("Failed to add demo members: %v\n", err)
	}

	log.Println("Seeding completed successfully!")
}
