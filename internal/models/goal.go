package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Goal struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID      `json:"companyId" gorm:"type:uuid;index;not null"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	ManagerID   uuid.UUID      `json:"managerId" gorm:"type:uuid;index;not null"`
	Position    int            `json:"position" gorm:"not null;default:0"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Staff       []GoalStaff    `json:"-" gorm:"foreignKey:GoalID"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	for i := range g.Staff {
		g.Staff[i].GoalID = g.ID
	}
	return nil
}

// StaffIDs returns the contributing staff in display order.
func (g *Goal) StaffIDs() []uuid.UUID {
	staff := make([]GoalStaff, len(g.Staff))
	copy(staff, g.Staff)
	sort.SliceStable(staff, func(i, j int) bool { return staff[i].Position < staff[j].Position })

	ids := make([]uuid.UUID, len(staff))
	for i, s := range staff {
		ids[i] = s.UserID
	}
	return ids
}

// SetStaff replaces the staff list, dropping duplicates but keeping first-seen order.
func (g *Goal) SetStaff(ids []uuid.UUID) {
	seen := make(map[uuid.UUID]bool, len(ids))
	g.Staff = make([]GoalStaff, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		g.Staff = append(g.Staff, GoalStaff{GoalID: g.ID, UserID: id, Position: len(g.Staff)})
	}
}

// HasStaff reports whether userID contributes to the goal.
func (g *Goal) HasStaff(userID uuid.UUID) bool {
	for _, s := range g.Staff {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// GoalStaff links a contributing user to a goal. Position is display order only.
type GoalStaff struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	GoalID   uuid.UUID `json:"goalId" gorm:"type:uuid;not null;uniqueIndex:idx_goal_staff"`
	UserID   uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_goal_staff"`
	Position int       `json:"position"`
}

func (GoalStaff) TableName() string { return "goal_staff" }

func (gs *GoalStaff) BeforeCreate(tx *gorm.DB) error {
	if gs.ID == uuid.Nil {
		gs.ID = uuid.New()
	}
	return nil
}

// Goal DTOs
type CreateGoalRequest struct {
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description" validate:"max=200"`
	ManagerID   uuid.UUID   `json:"managerId" validate:"required"`
	StaffIDs    []uuid.UUID `json:"staffIds"`
}

type UpdateGoalRequest struct {
	Title       *string      `json:"title" validate:"omitempty,min=1"`
	Description *string      `json:"description" validate:"omitempty,max=200"`
	ManagerID   *uuid.UUID   `json:"managerId"`
	StaffIDs    *[]uuid.UUID `json:"staffIds"`
}

type ReorderGoalsRequest struct {
	GoalIDs []uuid.UUID `json:"goalIds" validate:"required,min=1"`
}
