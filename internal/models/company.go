package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionExpired  SubscriptionStatus = "expired"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

type Company struct {
	ID                 uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	Name               string             `json:"name" gorm:"not null"`
	Subdomain          string             `json:"subdomain" gorm:"uniqueIndex;not null"`
	OwnerID            uuid.UUID          `json:"ownerId" gorm:"type:uuid"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus" gorm:"not null;default:trialing"`
	Plan               *string            `json:"plan"`
	TrialEndsAt        time.Time          `json:"trialEndsAt"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	DeletedAt          gorm.DeletedAt     `json:"-" gorm:"index"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Subdomain == "" {
		c.Subdomain = Subdomain(c.Name)
	}
	return nil
}

// EffectiveStatus is the status the paywall acts on. Anything other than an
// active subscription is judged purely by the trial end date.
func (c *Company) EffectiveStatus(now time.Time) SubscriptionStatus {
	if c.SubscriptionStatus == SubscriptionActive {
		return SubscriptionActive
	}
	if now.Before(c.TrialEndsAt) {
		return SubscriptionTrialing
	}
	return SubscriptionExpired
}

var nonSubdomainChars = regexp.MustCompile(`[^a-z0-9]`)

// Subdomain derives the company subdomain from its display name.
func Subdomain(name string) string {
	return nonSubdomainChars.ReplaceAllString(strings.ToLower(name), "")
}

// Plan is one entry on the pricing page. Prices are in IDR.
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    int      `json:"price"`
	Period   string   `json:"period"`
	ListedAt *int     `json:"listedAt,omitempty"`
	Features []string `json:"features"`
}

func Plans() []Plan {
	yearlyList := 900000
	return []Plan{
		{
			ID:     "monthly",
			Name:   "Monthly",
			Price:  75000,
			Period: "month",
			Features: []string{
				"Unlimited Users", "Unlimited Goals & KPIs", "Drag & Drop Management", "Email Support",
			},
		},
		{
			ID:       "yearly",
			Name:     "Yearly",
			Price:    630000,
			Period:   "year",
			ListedAt: &yearlyList,
			Features: []string{
				"Unlimited Users", "Unlimited Goals & KPIs", "Drag & Drop Management", "Priority Email Support",
			},
		},
	}
}

type SubscribeRequest struct {
	Plan string `json:"plan" validate:"required,oneof=monthly yearly"`
}
