package migrations

import (
	"fmt"
	"time"

	"github.com/Xeladesign/shok/pkg/logger"
	"gorm.io/gorm"
)

// Migration is one schema change on top of what AutoMigrate creates.
// IDs sort in the order migrations must run.
type Migration struct {
	ID        string
	Name      string
	Up        func(db *gorm.DB) error
	Down      func(db *gorm.DB) error
	DependsOn []string
}

// Applied rows live in schema_migrations, one per finished migration.
type appliedRow struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Name      string    `gorm:"type:text"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (appliedRow) TableName() string { return "schema_migrations" }

// Migrator runs the registered migrations that are not recorded yet.
type Migrator struct {
	db  *gorm.DB
	all []Migration
}

func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{db: db, all: Registered()}
}

// Registered lists every migration in run order.
func Registered() []Migration {
	return []Migration{
		Migration001MessagingIndexes(),
		Migration002UnreadNotificationIndex(),
	}
}

// Applied returns the ids of recorded migrations, sorted.
func (m *Migrator) Applied() ([]string, error) {
	var ids []string
	err := m.db.Model(&appliedRow{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (m *Migrator) done() (map[string]bool, error) {
	if err := m.db.AutoMigrate(&appliedRow{}); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	ids, err := m.Applied()
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	done := make(map[string]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	return done, nil
}

// Run applies pending migrations one transaction each. A migration whose
// dependencies have not run stops the whole run.
func (m *Migrator) Run() error {
	done, err := m.done()
	if err != nil {
		return err
	}

	for _, mig := range m.all {
		if done[mig.ID] {
			continue
		}
		for _, dep := range mig.DependsOn {
			if !done[dep] {
				return fmt.Errorf("migration %s needs %s first", mig.ID, dep)
			}
		}

		log := logger.Component("migrations").With().Str("migration", mig.ID).Logger()
		log.Info().Str("name", mig.Name).Msg("Applying migration")
		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := mig.Up(tx); err != nil {
				return err
			}
			return tx.Create(&appliedRow{ID: mig.ID, Name: mig.Name}).Error
		})
		if err != nil {
			log.Error().Err(err).Msg("Migration failed")
			return fmt.Errorf("migration %s: %w", mig.ID, err)
		}
		done[mig.ID] = true
	}
	return nil
}

// Rollback reverts the most recently applied migration.
func (m *Migrator) Rollback() error {
	ids, err := m.Applied()
	if err != nil || len(ids) == 0 {
		return err
	}
	last := ids[len(ids)-1]
	for _, mig := range m.all {
		if mig.ID != last {
			continue
		}
		return m.db.Transaction(func(tx *gorm.DB) error {
			if err := mig.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&appliedRow{ID: last}).Error
		})
	}
	return fmt.Errorf("migration %s is recorded but not registered", last)
}
