package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jkarlos000/sw1-p1/internal/domain"
)

// GormAttendanceRepository implements repository.AttendanceRepository.
type GormAttendanceRepository struct {
	db *gorm.DB
}

func NewGormAttendanceRepository(db *gorm.DB) *GormAttendanceRepository {
	if db == nil {
		panic("database connection cannot be nil for GormAttendanceRepository")
	}
	return &GormAttendanceRepository{db: db}
}

func (r *GormAttendanceRepository) Add(ctx context.Context, userID, roomID uint) error {
	row := &domain.Attendance{UserID: userID, RoomID: roomID}
	if err := conn(ctx, r.db).Create(row).Error; err != nil {
		return fmt.Errorf("gorm: add attendance (user %d, room %d): %w", userID, roomID, err)
	}
	return nil
}

func (r *GormAttendanceRepository) Exists(ctx context.Context, userID, roomID uint) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&domain.Attendance{}).
		Where("id_usuario = ? AND id_sala = ?", userID, roomID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check attendance (user %d, room %d): %w", userID, roomID, err)
	}
	return count > 0, nil
}

func (r *GormAttendanceRepository) Remove(ctx context.Context, userID, roomID uint) (int64, error) {
	result := conn(ctx, r.db).Where("id_usuario = ? AND id_sala = ?", userID, roomID).Delete(&domain.Attendance{})
	if result.Error != nil {
		return 0, fmt.Errorf("gorm: remove attendance (user %d, room %d): %w", userID, roomID, result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GormAttendanceRepository) Count(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&domain.Attendance{}).Where("id_sala = ?", roomID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("gorm: count attendance of room %d: %w", roomID, err)
	}
	return count, nil
}

func (r *GormAttendanceRepository) Collaborators(ctx context.Context, roomID uint) ([]domain.Collaborator, error) {
	collaborators := make([]domain.Collaborator, 0)
	err := conn(ctx, r.db).Table("asistencia").
		Select("usuario.email AS email").
		Joins("JOIN usuario ON asistencia.id_usuario = usuario.id_usuario").
		Where("asistencia.id_sala = ?", roomID).
		Order("asistencia.id_asistencia ASC").
		Scan(&collaborators).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list collaborators of room %d: %w", roomID, err)
	}
	return collaborators, nil
}
