package database

import (
	"context"
	"fmt"
	"log"

	"chatroom-backend/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Database struct {
	Pool *pgxpool.Pool
}

func NewConnection(cfg *config.Config) (*Database, error) {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	log.Println("Successfully connected to database")
	return &Database{Pool: pool}, nil
}

func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func RunMigrations(db *Database) error {
	ctx := context.Background()

	// Create users table
	createUsersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		username VARCHAR(150) UNIQUE NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		display_name VARCHAR(50) NOT NULL DEFAULT '',
		avatar TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'offline' CHECK (status IN ('online', 'away', 'busy', 'offline')),
		last_seen TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		bio VARCHAR(500) NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	// One opaque bearer token per user
	createAuthTokensTable := `
	CREATE TABLE IF NOT EXISTS auth_tokens (
		token VARCHAR(40) PRIMARY KEY,
		user_id UUID UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	createPublicMessagesTable := `
	CREATE TABLE IF NOT EXISTS public_messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		message_type VARCHAR(20) NOT NULL DEFAULT 'text' CHECK (message_type IN ('text', 'image', 'file', 'system')),
		edited BOOLEAN NOT NULL DEFAULT FALSE,
		edited_at TIMESTAMP WITH TIME ZONE,
		reply_to_id UUID REFERENCES public_messages(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (edited = (edited_at IS NOT NULL))
	);`

	createPrivateMessagesTable := `
	CREATE TABLE IF NOT EXISTS private_messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		receiver_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		message_type VARCHAR(20) NOT NULL DEFAULT 'text' CHECK (message_type IN ('text', 'image', 'file')),
		edited BOOLEAN NOT NULL DEFAULT FALSE,
		edited_at TIMESTAMP WITH TIME ZONE,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		read_at TIMESTAMP WITH TIME ZONE,
		reply_to_id UUID REFERENCES private_messages(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (edited = (edited_at IS NOT NULL))
	);`

	createGroupsTable := `
	CREATE TABLE IF NOT EXISTS groups (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_private BOOLEAN NOT NULL DEFAULT FALSE,
		max_participants INTEGER NOT NULL DEFAULT 100,
		avatar TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	createGroupMembersTable := `
	CREATE TABLE IF NOT EXISTS group_members (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(20) NOT NULL DEFAULT 'member' CHECK (role IN ('admin', 'moderator', 'member')),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		last_read_message_id UUID,
		UNIQUE (group_id, user_id)
	);`

	createGroupMessagesTable := `
	CREATE TABLE IF NOT EXISTS group_messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		group_id UUID NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		message_type VARCHAR(20) NOT NULL DEFAULT 'text' CHECK (message_type IN ('text', 'image', 'file', 'system')),
		edited BOOLEAN NOT NULL DEFAULT FALSE,
		edited_at TIMESTAMP WITH TIME ZONE,
		reply_to_id UUID REFERENCES group_messages(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (edited = (edited_at IS NOT NULL))
	);`

	// Attachments survive message deletion (SET NULL) but not uploader deletion (CASCADE)
	createChatFilesTable := `
	CREATE TABLE IF NOT EXISTS chat_files (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		url TEXT NOT NULL,
		original_name VARCHAR(255) NOT NULL,
		file_size BIGINT NOT NULL,
		file_type VARCHAR(100) NOT NULL,
		uploaded_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		uploaded_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		public_message_id UUID REFERENCES public_messages(id) ON DELETE SET NULL,
		private_message_id UUID REFERENCES private_messages(id) ON DELETE SET NULL,
		group_message_id UUID REFERENCES group_messages(id) ON DELETE SET NULL,
		CHECK (num_nonnulls(public_message_id, private_message_id, group_message_id) <= 1)
	);`

	createChatImagesTable := `
	CREATE TABLE IF NOT EXISTS chat_images (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		url TEXT NOT NULL,
		original_name VARCHAR(255) NOT NULL,
		file_size BIGINT NOT NULL,
		width INTEGER,
		height INTEGER,
		uploaded_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		uploaded_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		public_message_id UUID REFERENCES public_messages(id) ON DELETE SET NULL,
		private_message_id UUID REFERENCES private_messages(id) ON DELETE SET NULL,
		group_message_id UUID REFERENCES group_messages(id) ON DELETE SET NULL,
		CHECK (num_nonnulls(public_message_id, private_message_id, group_message_id) <= 1)
	);`

	createIndexes := `
	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
	CREATE INDEX IF NOT EXISTS idx_public_messages_created_at ON public_messages(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_private_messages_sender_receiver ON private_messages(sender_id, receiver_id);
	CREATE INDEX IF NOT EXISTS idx_private_messages_receiver_is_read ON private_messages(receiver_id, is_read);
	CREATE INDEX IF NOT EXISTS idx_group_members_group_active ON group_members(group_id, is_active);
	CREATE INDEX IF NOT EXISTS idx_group_members_user_active ON group_members(user_id, is_active);
	CREATE INDEX IF NOT EXISTS idx_group_messages_group_created_at ON group_messages(group_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_chat_files_uploaded_by ON chat_files(uploaded_by, uploaded_at);
	CREATE INDEX IF NOT EXISTS idx_chat_images_uploaded_by ON chat_images(uploaded_by, uploaded_at);`

	migrations := []string{
		createUsersTable,
		createAuthTokensTable,
		createPublicMessagesTable,
		createPrivateMessagesTable,
		createGroupsTable,
		createGroupMembersTable,
		createGroupMessagesTable,
		createChatFilesTable,
		createChatImagesTable,
		createIndexes,
	}

	for _, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func (db *Database) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return db.Pool.Begin(ctx)
}

func (db *Database) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return db.Pool.QueryRow(ctx, sql, args...)
}

func (db *Database) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return db.Pool.Query(ctx, sql, args...)
}

func (db *Database) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return db.Pool.Exec(ctx, sql, args...)
}
