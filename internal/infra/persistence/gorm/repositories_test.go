package gormpersistence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	gormpersistence "github.com/jkarlos000/sw1-p1/internal/infra/persistence/gorm"
	"github.com/jkarlos000/sw1-p1/internal/infra/setup"
	"github.com/jkarlos000/sw1-p1/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, setup.MigrateDB(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Password: "hash"}
	require.NoError(t, gormpersistence.NewGormUserRepository(db).Save(context.Background(), u))
	return u
}

func TestUserRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormUserRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "ana@example.com")
	assert.NotZero(t, u.ID)

	found, err := repo.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", byID.Email)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	err = repo.Save(ctx, &domain.User{Email: "ana@example.com", Password: "x"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
}

func TestRoomRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormRoomRepository(db)
	ctx := context.Background()

	room := &domain.Room{Name: "demo7", HostEmail: "ana@example.com"}
	require.NoError(t, repo.Create(ctx, room))
	require.NotZero(t, room.ID)

	found, err := repo.FindByName(ctx, "demo7")
	require.NoError(t, err)
	assert.Equal(t, room.ID, found.ID)
	assert.Equal(t, "ana@example.com", found.HostEmail)

	assert.ErrorIs(t, repo.Create(ctx, &domain.Room{Name: "demo7"}), repository.ErrDuplicateEntry)

	require.NoError(t, repo.UpdateDiagram(ctx, "demo7", `{"cells":[]}`))
	found, err = repo.FindByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"cells":[]}`, found.Diagram)

	assert.ErrorIs(t, repo.UpdateDiagram(ctx, "missing", "{}"), repository.ErrRoomNotFound)

	require.NoError(t, repo.Delete(ctx, room.ID))
	_, err = repo.FindByName(ctx, "demo7")
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)
}

func TestAttendanceRepository_DuplicatesTolerated(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormAttendanceRepository(db)
	ctx := context.Background()
	ana := seedUser(t, db, "ana@example.com")
	ben := seedUser(t, db, "ben@example.com")

	require.NoError(t, repo.Add(ctx, ana.ID, 1))
	require.NoError(t, repo.Add(ctx, ana.ID, 1))
	require.NoError(t, repo.Add(ctx, ben.ID, 1))

	count, err := repo.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	ok, err := repo.Exists(ctx, ben.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, ben.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	collaborators, err := repo.Collaborators(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.Collaborator{
		{Email: "ana@example.com"}, {Email: "ana@example.com"}, {Email: "ben@example.com"},
	}, collaborators)

	removed, err := repo.Remove(ctx, ana.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	removed, err = repo.Remove(ctx, ana.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestGormTransactor_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	tx := gormpersistence.NewGormTransactor(db)
	rooms := gormpersistence.NewGormRoomRepository(db)
	attendance := gormpersistence.NewGormAttendanceRepository(db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		room := &domain.Room{Name: "ghost"}
		if err := rooms.Create(ctx, room); err != nil {
			return err
		}
		if err := attendance.Add(ctx, 1, room.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = rooms.FindByName(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)
	count, err := attendance.Count(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestConversationRepository_SingleActive(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormConversationRepository(db)
	ctx := context.Background()

	first := &domain.Conversation{RoomID: 4, Title: "uno", Active: true}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.DeactivateAll(ctx, 4))
	second := &domain.Conversation{RoomID: 4, Title: "dos", Active: true}
	require.NoError(t, repo.Create(ctx, second))

	active, err := repo.FindActiveByRoom(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	old, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, old.Active)

	_, err = repo.FindActiveByRoom(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrConversationNotFound)
	require.NoError(t, repo.Touch(ctx, second.ID))
}

func TestMessageRepository_RecentAndList(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormMessageRepository(db)
	ctx := context.Background()
	ana := seedUser(t, db, "ana@example.com")

	var ids []uint
	for i := 0; i < 12; i++ {
		msg := &domain.Message{ConversationID: 1, Kind: domain.MessageKindUser, Content: string(rune('a' + i)), UserID: &ana.ID}
		require.NoError(t, repo.Append(ctx, msg))
		ids = append(ids, msg.ID)
	}

	recent, err := repo.Recent(ctx, 1, 10, ids[11])
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, ids[1], recent[0].ID, "oldest of the window first")
	assert.Equal(t, ids[10], recent[9].ID, "excluded id is skipped")

	page, err := repo.List(ctx, 1, 5, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "ana@example.com", page[0].UserEmail)

	one, err := repo.FindByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "a", one.Content)
	assert.Equal(t, "ana@example.com", one.UserEmail)
}

func TestSnapshotRepository_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormSnapshotRepository(db)
	ctx := context.Background()

	a := &domain.DiagramSnapshot{ConversationID: 2, Diagram: `{"v":1}`, Description: "a"}
	b := &domain.DiagramSnapshot{ConversationID: 2, Diagram: `{"v":2}`, Description: "b"}
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	snaps, err := repo.ListByConversation(ctx, 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "b", snaps[0].Description)
}

func TestAIConfigRepository_Upsert(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormAIConfigRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.AIConfig{RoomID: 3, Model: "gpt-4", Temperature: 0.7, MaxTokens: 2000}))
	require.NoError(t, repo.Upsert(ctx, &domain.AIConfig{RoomID: 3, Model: "claude-opus", Temperature: 0.2, MaxTokens: 500}))

	cfg, err := repo.FindByRoom(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "claude-opus", cfg.Model)
	assert.Equal(t, 500, cfg.MaxTokens)

	var count int64
	require.NoError(t, db.Model(&domain.AIConfig{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = repo.FindByRoom(ctx, 8)
	assert.ErrorIs(t, err, repository.ErrConfigNotFound)
}
