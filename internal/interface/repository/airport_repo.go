package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/internal/domain/repository"

	"gorm.io/gorm"
)

// GormAirportRepository implements the AirportRepository interface
type GormAirportRepository struct {
	db *gorm.DB
}

// NewGormAirportRepository creates a new GORM airport repository
func NewGormAirportRepository(db *gorm.DB) repository.AirportRepository {
	return &GormAirportRepository{
		db: db,
	}
}

// Timezonelist GORM model for database mapping
type Timezonelist struct {
	ID          uint           `gorm:"primaryKey"`
	AirportCode string         `gorm:"column:airportcode;unique"`
	AirportName string         `gorm:"column:airport_name"`
	CityCode    string         `gorm:"column:citycode"`
	CityName    string         `gorm:"column:cityname"`
	GmtTz       string         `gorm:"column:gmttz"`
	TzName      string         `gorm:"column:tzname"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides the default table name
func (Timezonelist) TableName() string {
	return "m_timezone_list"
}

// GetByCode finds an airport's time zone by IATA code
func (r *GormAirportRepository) GetByCode(ctx context.Context, code string) (*entity.Airport, error) {
	var row Timezonelist
	result := r.db.WithContext(ctx).Unscoped().
		Where("airportcode = ?", strings.ToUpper(code)).
		First(&row)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("airport %s: %w", code, repository.ErrAirportNotFound)
		}
		return nil, fmt.Errorf("failed to look up airport %s: %w", code, result.Error)
	}

	return row.toEntity(), nil
}

// Convert GORM model to domain entity
func (t Timezonelist) toEntity() *entity.Airport {
	return &entity.Airport{
		Code:     t.AirportCode,
		Name:     t.AirportName,
		CityName: t.CityName,
		TzName:   t.TzName,
	}
}
