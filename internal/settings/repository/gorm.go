package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"webstarter/backend/internal/settings/domain"
)

type settingsModel struct {
	UserID             string    `gorm:"column:user_id;primaryKey"`
	EmailNotifications bool      `gorm:"column:email_notifications"`
	MarketingEmails    bool      `gorm:"column:marketing_emails"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (settingsModel) TableName() string {
	return "user_settings"
}

// ErrUserNotFound is returned by Save when the settings owner does not exist.
var ErrUserNotFound = errors.New("user not found")

type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository returns a settings repository backed by db.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	var row settingsModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Defaults(userID), nil
		}
		return nil, err
	}
	return &domain.Settings{
		UserID:             row.UserID,
		EmailNotifications: row.EmailNotifications,
		MarketingEmails:    row.MarketingEmails,
		UpdatedAt:          row.UpdatedAt,
	}, nil
}

func (r *GormRepository) Upsert(ctx context.Context, s *domain.Settings) error {
	return upsert(r.db.WithContext(ctx), s)
}

// Save upserts s and, when name is not empty, renames the owning user in the same
// transaction. Returns ErrUserNotFound when the rename matches no user.
func (r *GormRepository) Save(ctx context.Context, s *domain.Settings, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if name != "" {
			res := tx.Table("users").Where("id = ?", s.UserID).Updates(map[string]any{
				"name":       name,
				"updated_at": s.UpdatedAt,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrUserNotFound
			}
		}
		return upsert(tx, s)
	})
}

func upsert(tx *gorm.DB, s *domain.Settings) error {
	row := settingsModel{
		UserID:             s.UserID,
		EmailNotifications: s.EmailNotifications,
		MarketingEmails:    s.MarketingEmails,
		UpdatedAt:          s.UpdatedAt,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"email_notifications": row.EmailNotifications,
			"marketing_emails":    row.MarketingEmails,
			"updated_at":          row.UpdatedAt,
		}),
	}).Create(&row).Error
}
