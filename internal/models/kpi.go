package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KpiFrequency is advisory only; progress is always recorded per month.
type KpiFrequency string

const (
	FrequencyDaily     KpiFrequency = "Daily"
	FrequencyWeekly    KpiFrequency = "Weekly"
	FrequencyMonthly   KpiFrequency = "Monthly"
	FrequencyQuarterly KpiFrequency = "Quarterly"
	FrequencySemester  KpiFrequency = "Semester"
	FrequencyYearly    KpiFrequency = "Yearly"
)

type KPI struct {
	ID               uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	GoalID           uuid.UUID         `json:"goalId" gorm:"type:uuid;index;not null"`
	Title            string            `json:"title" gorm:"not null"`
	Unit             string            `json:"unit"`
	Frequency        KpiFrequency      `json:"frequency" gorm:"not null;default:Monthly"`
	OwnerID          uuid.UUID         `json:"ownerId" gorm:"type:uuid;index"`
	Weight           *float64          `json:"weight"`
	DefaultTarget    float64           `json:"defaultTarget"`
	ProgressBarColor *string           `json:"progressBarColor"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt    `json:"-" gorm:"index"`
	MonthlyProgress  []MonthlyProgress `json:"monthlyProgress" gorm:"foreignKey:KPIID"`
}

func (KPI) TableName() string { return "kpis" }

func (k *KPI) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	for i := range k.MonthlyProgress {
		k.MonthlyProgress[i].KPIID = k.ID
	}
	return nil
}

// WeightValue treats an absent weight as zero.
func (k *KPI) WeightValue() float64 {
	if k.Weight == nil {
		return 0
	}
	return *k.Weight
}

// MonthlyProgress is one (KPI, year, month) record. The unique index keeps a
// single row per period; logging progress updates it in place.
type MonthlyProgress struct {
	ID        uuid.UUID `json:"-" gorm:"type:uuid;primaryKey"`
	KPIID     uuid.UUID `json:"-" gorm:"column:kpi_id;type:uuid;not null;uniqueIndex:idx_kpi_period"`
	Year      int       `json:"year" gorm:"not null;uniqueIndex:idx_kpi_period"`
	Month     int       `json:"month" gorm:"not null;uniqueIndex:idx_kpi_period"`
	Target    float64   `json:"target"`
	Actual    float64   `json:"actual"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (MonthlyProgress) TableName() string { return "kpi_progress" }

func (p *MonthlyProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// KPI DTOs
type CreateKPIRequest struct {
	Title         string       `json:"title" validate:"required"`
	Unit          string       `json:"unit"`
	Frequency     KpiFrequency `json:"frequency" validate:"omitempty,oneof=Daily Weekly Monthly Quarterly Semester Yearly"`
	OwnerID       uuid.UUID    `json:"ownerId" validate:"required"`
	MonthlyTarget float64      `json:"monthlyTarget" validate:"gt=0"`
	Weight        *float64     `json:"weight"`
}

type UpdateKPIRequest struct {
	Title     *string       `json:"title" validate:"omitempty,min=1"`
	Unit      *string       `json:"unit"`
	Frequency *KpiFrequency `json:"frequency" validate:"omitempty,oneof=Daily Weekly Monthly Quarterly Semester Yearly"`
	OwnerID   *uuid.UUID    `json:"ownerId"`
	Weight    *float64      `json:"weight"`
}

type UpdateKPIColorRequest struct {
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

type LogProgressRequest struct {
	Year   int      `json:"year" validate:"required,gte=1970,lte=9999"`
	Month  int      `json:"month" validate:"required,gte=1,lte=12"`
	Actual *float64 `json:"actual"`
	Target *float64 `json:"target" validate:"omitempty,gte=0"`
	Notes  *string  `json:"notes"`
}
