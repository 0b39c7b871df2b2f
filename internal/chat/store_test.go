package chat_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chatroom-backend/internal/auth"
	"chatroom-backend/internal/chat"
	"chatroom-backend/internal/config"
	"chatroom-backend/internal/database"
	"chatroom-backend/internal/models"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

// setupTestStore connects to the configured database or skips the test when
// none is reachable.
func setupTestStore(t *testing.T) (*chat.Store, *database.Database) {
	t.Helper()

	_ = godotenv.Load("../../.env")
	cfg := config.New()

	db, err := database.NewConnection(cfg)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	t.Cleanup(db.Close)

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return chat.NewStore(db, auth.DefaultPasswordPolicy()), db
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

// registerUser creates a user and registers cleanup; cascades remove
// everything the user owns.
func registerUser(t *testing.T, store *chat.Store, db *database.Database, prefix string) *models.User {
	t.Helper()

	username := uniqueName(prefix)
	user, err := store.CreateUser(context.Background(), chat.CreateUserParams{
		Username:    username,
		Email:       username + "@test.com",
		Password:    "Str0ngPass!",
		DisplayName: "Test " + prefix,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Exec(context.Background(), "DELETE FROM users WHERE id = $1", user.ID)
	})
	return user
}

func Test_CreateUser_DuplicateUsername(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	user := registerUser(t, store, db, "alice")

	_, err := store.CreateUser(ctx, chat.CreateUserParams{
		Username:    user.Username,
		Email:       "other@test.com",
		Password:    "An0therPass!",
		DisplayName: "Impostor",
	})
	req.ErrorIs(err, chat.ErrDuplicateUsername)
}

func Test_CreateUser_WeakPasswordFails(t *testing.T) {
	req := require.New(t)
	store, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := store.CreateUser(ctx, chat.CreateUserParams{
		Username:    uniqueName("weak"),
		Email:       "weak@test.com",
		Password:    "1234",
		DisplayName: "Weak",
	})

	var verr *chat.ValidationError
	req.ErrorAs(err, &verr)
	req.Contains(verr.Fields, "password")
}

func Test_Authenticate(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	user := registerUser(t, store, db, "login")

	got, err := store.Authenticate(ctx, user.Username, "Str0ngPass!")
	req.NoError(err)
	req.Equal(user.ID, got.ID)

	_, err = store.Authenticate(ctx, user.Username, "wrong password")
	req.ErrorIs(err, chat.ErrInvalidCredentials)

	_, err = store.Authenticate(ctx, "nobody_here", "Str0ngPass!")
	req.ErrorIs(err, chat.ErrInvalidCredentials)

	_, err = db.Exec(ctx, "UPDATE users SET is_active = FALSE WHERE id = $1", user.ID)
	req.NoError(err)
	_, err = store.Authenticate(ctx, user.Username, "Str0ngPass!")
	req.ErrorIs(err, chat.ErrAccountDisabled)
}

func Test_IssueToken_GetOrCreate(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	user := registerUser(t, store, db, "token")

	first, err := store.IssueToken(ctx, user.ID)
	req.NoError(err)
	req.Len(first, auth.TokenLength)

	second, err := store.IssueToken(ctx, user.ID)
	req.NoError(err)
	req.Equal(first, second)

	resolved, err := store.UserForToken(ctx, first)
	req.NoError(err)
	req.Equal(user.ID, resolved.ID)

	req.NoError(store.RevokeToken(ctx, user.ID))
	req.ErrorIs(store.RevokeToken(ctx, user.ID), chat.ErrNoActiveSession)

	_, err = store.UserForToken(ctx, first)
	req.ErrorIs(err, chat.ErrInvalidCredentials)

	// A fresh issue after revocation mints a different token.
	third, err := store.IssueToken(ctx, user.ID)
	req.NoError(err)
	req.NotEqual(first, third)
}

func Test_IssueToken_ConcurrentCallersObserveSameToken(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	user := registerUser(t, store, db, "race")

	const callers = 8
	tokens := make(chan string, callers)
	for i := 0; i < callers; i++ {
		go func() {
			token, err := store.IssueToken(ctx, user.ID)
			if err != nil {
				tokens <- "error: " + err.Error()
				return
			}
			tokens <- token
		}()
	}

	first := <-tokens
	for i := 1; i < callers; i++ {
		req.Equal(first, <-tokens)
	}
}

func Test_MarkRead_Idempotent(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	sender := registerUser(t, store, db, "sender")
	receiver := registerUser(t, store, db, "receiver")

	msg, err := store.SendPrivateMessage(ctx, sender.ID, models.SendPrivateMessageRequest{
		ReceiverID: receiver.ID,
		Content:    "hello",
	})
	req.NoError(err)
	req.False(msg.IsRead)
	req.Nil(msg.ReadAt)

	// Only the receiver may mark it.
	_, err = store.MarkRead(ctx, msg.ID, sender.ID)
	req.ErrorIs(err, chat.ErrNotReceiver)

	read, err := store.MarkRead(ctx, msg.ID, receiver.ID)
	req.NoError(err)
	req.True(read.IsRead)
	req.NotNil(read.ReadAt)

	again, err := store.MarkRead(ctx, msg.ID, receiver.ID)
	req.NoError(err)
	req.True(again.IsRead)
	req.Equal(read.ReadAt, again.ReadAt)
}

func Test_SendPrivateMessage_UnknownReceiver(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	sender := registerUser(t, store, db, "sender")

	_, err := store.SendPrivateMessage(ctx, sender.ID, models.SendPrivateMessageRequest{
		ReceiverID: uuid.New(),
		Content:    "into the void",
	})
	req.ErrorIs(err, chat.ErrUnknownUser)
}

func Test_UnreadCount(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	sender := registerUser(t, store, db, "sender")
	receiver := registerUser(t, store, db, "receiver")

	for i := 0; i < 3; i++ {
		_, err := store.SendPrivateMessage(ctx, sender.ID, models.SendPrivateMessageRequest{
			ReceiverID: receiver.ID,
			Content:    fmt.Sprintf("message %d", i),
		})
		req.NoError(err)
	}

	count, err := store.UnreadCount(ctx, receiver.ID)
	req.NoError(err)
	req.Equal(3, count)
}

func Test_CreateGroup_OwnerBecomesAdmin(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, store, db, "owner")

	group, err := store.CreateGroup(ctx, owner.ID, models.CreateGroupRequest{
		Name:            "design",
		Description:     "design talk",
		MaxParticipants: 10,
	})
	req.NoError(err)
	req.True(group.IsActive)

	membership, err := store.Membership(ctx, group.ID, owner.ID)
	req.NoError(err)
	req.True(membership.IsAdmin())
}

func Test_JoinGroup_CapacityAndRejoin(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, store, db, "owner")
	second := registerUser(t, store, db, "second")
	third := registerUser(t, store, db, "third")

	group, err := store.CreateGroup(ctx, owner.ID, models.CreateGroupRequest{
		Name:            "tiny",
		MaxParticipants: 2,
	})
	req.NoError(err)

	// Owner occupies one slot; the second user takes the last.
	first, err := store.JoinGroup(ctx, group.ID, second.ID)
	req.NoError(err)
	req.Equal(models.RoleMember, first.Role)

	_, err = store.JoinGroup(ctx, group.ID, third.ID)
	req.ErrorIs(err, chat.ErrGroupFull)

	_, err = store.JoinGroup(ctx, group.ID, second.ID)
	req.ErrorIs(err, chat.ErrAlreadyMember)

	// Leaving frees the slot; rejoining reuses the same membership row.
	req.NoError(store.LeaveGroup(ctx, group.ID, second.ID))
	rejoined, err := store.JoinGroup(ctx, group.ID, second.ID)
	req.NoError(err)
	req.Equal(first.ID, rejoined.ID)
	req.True(rejoined.IsActive)
}

func Test_PostGroupMessage_RequiresMembership(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	owner := registerUser(t, store, db, "owner")
	outsider := registerUser(t, store, db, "outsider")

	group, err := store.CreateGroup(ctx, owner.ID, models.CreateGroupRequest{Name: "members-only"})
	req.NoError(err)

	_, err = store.PostGroupMessage(ctx, group.ID, outsider.ID, "let me in", "", nil)
	req.ErrorIs(err, chat.ErrNotAMember)

	msg, err := store.PostGroupMessage(ctx, group.ID, owner.ID, "welcome", "", nil)
	req.NoError(err)
	req.Equal(models.MessageTypeText, msg.MessageType)

	// Deactivated groups reject new messages but keep history.
	req.NoError(store.DeactivateGroup(ctx, group.ID, owner.ID))
	_, err = store.PostGroupMessage(ctx, group.ID, owner.ID, "too late", "", nil)
	req.ErrorIs(err, chat.ErrGroupInactive)

	var count int
	err = db.QueryRow(ctx, "SELECT COUNT(*) FROM group_messages WHERE group_id = $1", group.ID).Scan(&count)
	req.NoError(err)
	req.Equal(1, count)
}

func Test_DeleteUser_CascadesToMessages(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	author := registerUser(t, store, db, "author")

	msg, err := store.PostPublicMessage(ctx, author.ID, "soon gone", "", nil)
	req.NoError(err)

	req.NoError(store.DeleteUser(ctx, author.ID))

	var count int
	err = db.QueryRow(ctx, "SELECT COUNT(*) FROM public_messages WHERE id = $1", msg.ID).Scan(&count)
	req.NoError(err)
	req.Equal(0, count)
}

func Test_DeleteMessage_NullsReplyReference(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	author := registerUser(t, store, db, "author")

	parent, err := store.PostPublicMessage(ctx, author.ID, "original", "", nil)
	req.NoError(err)
	reply, err := store.PostPublicMessage(ctx, author.ID, "reply", "", &parent.ID)
	req.NoError(err)
	req.Equal(&parent.ID, reply.ReplyToID)

	req.NoError(store.DeletePublicMessage(ctx, parent.ID, author.ID))

	var replyTo *uuid.UUID
	err = db.QueryRow(ctx, "SELECT reply_to_id FROM public_messages WHERE id = $1", reply.ID).Scan(&replyTo)
	req.NoError(err)
	req.Nil(replyTo)
}

func Test_Attachment_SurvivesMessageDeletion(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	sender := registerUser(t, store, db, "sender")
	receiver := registerUser(t, store, db, "receiver")

	msg, err := store.SendPrivateMessage(ctx, sender.ID, models.SendPrivateMessageRequest{
		ReceiverID: receiver.ID,
		Content:    "see attached",
	})
	req.NoError(err)

	file, err := store.CreateFile(ctx, chat.CreateFileParams{
		URL:          "https://blobs.example/chat-files/report.pdf",
		OriginalName: "report.pdf",
		FileSize:     1024,
		FileType:     "application/pdf",
		UploadedBy:   sender.ID,
		Target:       &models.MessageTarget{Kind: models.TargetPrivate, ID: msg.ID},
	})
	req.NoError(err)
	req.Equal(&msg.ID, file.PrivateMessageID)

	_, err = db.Exec(ctx, "DELETE FROM private_messages WHERE id = $1", msg.ID)
	req.NoError(err)

	survivor, err := store.GetFile(ctx, file.ID)
	req.NoError(err)
	req.Nil(survivor.PrivateMessageID)
	req.Equal("report.pdf", survivor.OriginalName)
}

func Test_Attachment_DeletedWithUploader(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	uploader := registerUser(t, store, db, "uploader")

	img, err := store.CreateImage(ctx, chat.CreateImageParams{
		URL:          "https://blobs.example/chat-images/pic.png",
		OriginalName: "pic.png",
		FileSize:     2048,
		UploadedBy:   uploader.ID,
	})
	req.NoError(err)

	req.NoError(store.DeleteUser(ctx, uploader.ID))

	_, err = store.GetImage(ctx, img.ID)
	req.ErrorIs(err, chat.ErrUnknownMessage)
}

func Test_EditPublicMessage_SetsEditedMetadata(t *testing.T) {
	req := require.New(t)
	store, db := setupTestStore(t)
	ctx := context.Background()

	author := registerUser(t, store, db, "author")
	other := registerUser(t, store, db, "other")

	msg, err := store.PostPublicMessage(ctx, author.ID, "draft", "", nil)
	req.NoError(err)
	req.False(msg.Edited)
	req.Nil(msg.EditedAt)

	_, err = store.EditPublicMessage(ctx, msg.ID, other.ID, "hijack")
	req.ErrorIs(err, chat.ErrNotAuthor)

	edited, err := store.EditPublicMessage(ctx, msg.ID, author.ID, "final")
	req.NoError(err)
	req.True(edited.Edited)
	req.NotNil(edited.EditedAt)
	req.Equal(msg.CreatedAt, edited.CreatedAt)
}
