package models

import (
	"time"
)

// Project - строительный объект с круговой геозоной
type Project struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"not null" json:"name"`

	// Центр геозоны; nil - геозона не настроена
	CenterLatitude  *float64 `json:"center_latitude"`
	CenterLongitude *float64 `json:"center_longitude"`

	GeofenceRadiusMeters  float64 `gorm:"not null;default:0" json:"geofence_radius_meters"`
	AllowedVarianceMeters float64 `gorm:"not null;default:0" json:"allowed_variance_meters"`
	StrictMode            bool    `gorm:"not null;default:false" json:"strict_mode"`

	// Разрешить отметки при отсутствующей геозоне
	GeofenceBypassAllowed bool `gorm:"not null;default:false" json:"geofence_bypass_allowed"`

	ScheduledShiftMinutes int `gorm:"not null;default:480" json:"scheduled_shift_minutes"` // 8 часов = 480 минут

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// HasGeofence проверяет, настроена ли геозона у проекта
func (p *Project) HasGeofence() bool {
	return p.CenterLatitude != nil && p.CenterLongitude != nil && p.GeofenceRadiusMeters >= 0
}

// IsValid проверяет валидность данных
func (p *Project) IsValid() bool {
	if p.Name == "" {
		return false
	}
	if p.GeofenceRadiusMeters < 0 || p.AllowedVarianceMeters < 0 {
		return false
	}
	if p.ScheduledShiftMinutes <= 0 || p.ScheduledShiftMinutes > 1440 {
		return false
	}
	if p.CenterLatitude != nil && (*p.CenterLatitude < -90 || *p.CenterLatitude > 90) {
		return false
	}
	if p.CenterLongitude != nil && (*p.CenterLongitude < -180 || *p.CenterLongitude > 180) {
		return false
	}
	return true
}
