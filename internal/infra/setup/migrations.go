package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jkarlos000/sw1-p1/internal/domain"
)

// MigrateDB creates or updates every table the service uses.
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	models := []interface{}{
		&domain.User{},
		&domain.Room{},
		&domain.Attendance{},
		&domain.Conversation{},
		&domain.Message{},
		&domain.DiagramSnapshot{},
		&domain.AIConfig{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			logrus.Errorf("Failed to auto-migrate %T: %v", m, err)
			return fmt.Errorf("failed to auto-migrate %T: %w", m, err)
		}
	}

	if db.Dialector.Name() == DriverMySQL {
		if err := widenLegacyPasswordColumn(db); err != nil {
			return err
		}
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

// widenLegacyPasswordColumn upgrades databases created with a short
// varchar password column so bcrypt hashes fit.
func widenLegacyPasswordColumn(db *gorm.DB) error {
	var maxLen int64
	row := db.Raw("SELECT COALESCE(CHARACTER_MAXIMUM_LENGTH, 0) FROM information_schema.columns " +
		"WHERE table_schema = DATABASE() AND table_name = 'usuario' AND column_name = 'password'").Row()
	if err := row.Scan(&maxLen); err != nil {
		logrus.Warnf("Could not inspect usuario.password column: %v", err)
		return nil
	}
	if maxLen > 0 && maxLen < 60 {
		if err := db.Exec("ALTER TABLE usuario MODIFY COLUMN password TEXT NOT NULL").Error; err != nil {
			return fmt.Errorf("failed to widen usuario.password: %w", err)
		}
		logrus.Info("usuario.password widened for hashed passwords")
	}
	return nil
}
