package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"residency-application-api/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Application{},
		&models.Experience{},
		&models.ApplicationDocument{},
		&models.EditRecord{},
		&models.EditRequest{},
		&models.ApplicationStatusHistory{},
	); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()

	now := time.Now()
	user := models.User{
		UserID:   uuid.New().String(),
		Email:    fmt.Sprintf("%s@example.org", uuid.New().String()[:8]),
		Role:     role,
		CreateAt: &now,
		UpdateAt: &now,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return &user
}

func createTestApplication(t *testing.T, db *gorm.DB, ownerID string, status models.ApplicationStatus, personalStatement string) *models.Application {
	t.Helper()

	now := time.Now()
	application := models.Application{
		ApplicationID:     uuid.New().String(),
		OwnerID:           ownerID,
		Status:            status,
		PackageType:       models.PackageFull,
		PersonalStatement: personalStatement,
		RowVersion:        1,
		CreateAt:          &now,
		UpdateAt:          &now,
	}
	if err := db.Create(&application).Error; err != nil {
		t.Fatalf("failed to create test application: %v", err)
	}
	return &application
}

// mockBlobStore counts calls so tests can assert that rejected uploads never
// reach storage and metadata lookups never read blobs.
type mockBlobStore struct {
	blobs       map[string][]byte
	putCalls    int
	getCalls    int
	deleteCalls int
	putErr      error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: make(map[string][]byte)}
}

func (m *mockBlobStore) Put(ctx context.Context, data []byte, nameHint string) (string, error) {
	m.putCalls++
	if m.putErr != nil {
		return "", m.putErr
	}
	handle := uuid.New().String()
	m.blobs[handle] = data
	return handle, nil
}

func (m *mockBlobStore) Get(ctx context.Context, handle string) ([]byte, error) {
	m.getCalls++
	data, ok := m.blobs[handle]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return data, nil
}

func (m *mockBlobStore) Delete(ctx context.Context, handle string) error {
	m.deleteCalls++
	delete(m.blobs, handle)
	return nil
}

// Sample payloads whose leading bytes sniff to the intended content types.
var (
	pdfBytes = []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	exeBytes = append([]byte("MZ\x90\x00\x03\x00\x00\x00"), make([]byte, 64)...)
	docBytes = append([]byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}, make([]byte, 64)...)
	txtBytes = []byte("To whom it may concern, my personal statement follows.")
)
