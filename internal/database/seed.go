package database

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/arnold/kpigo-api/internal/models"
	"github.com/arnold/kpigo-api/internal/progress"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed.yaml
var defaultFixture []byte

// Fixture is a demo company described in YAML. Users and goals are referred
// to by key from the rest of the file.
type Fixture struct {
	Company struct {
		Name string  `yaml:"name"`
		Plan *string `yaml:"plan"`
	} `yaml:"company"`
	Users []struct {
		Key      string      `yaml:"key"`
		Name     string      `yaml:"name"`
		Email    string      `yaml:"email"`
		Password string      `yaml:"password"`
		Role     models.Role `yaml:"role"`
		JobTitle string      `yaml:"jobTitle"`
		Division string      `yaml:"division"`
	} `yaml:"users"`
	Goals []struct {
		Key         string   `yaml:"key"`
		Title       string   `yaml:"title"`
		Description string   `yaml:"description"`
		Manager     string   `yaml:"manager"`
		Staff       []string `yaml:"staff"`
	} `yaml:"goals"`
	KPIs []struct {
		Goal      string              `yaml:"goal"`
		Title     string              `yaml:"title"`
		Unit      string              `yaml:"unit"`
		Frequency models.KpiFrequency `yaml:"frequency"`
		Owner     string              `yaml:"owner"`
		Weight    *float64            `yaml:"weight"`
		Target    float64             `yaml:"target"`
		Color     *string             `yaml:"color"`
		Progress  []struct {
			Year   int     `yaml:"year"`
			Month  int     `yaml:"month"`
			Target float64 `yaml:"target"`
			Actual float64 `yaml:"actual"`
		} `yaml:"progress"`
	} `yaml:"kpis"`
}

// LoadFixture reads a fixture file, or the built-in demo company when path
// is empty.
func LoadFixture(path string) (*Fixture, error) {
	data := defaultFixture
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// Seed inserts the fixture as a new company. Progress entries without a year
// are placed in year. It does nothing if the company's subdomain is taken.
func Seed(db *gorm.DB, f *Fixture, year int, trialDays int) (*models.Company, error) {
	company := models.Company{
		Name:        f.Company.Name,
		Subdomain:   models.Subdomain(f.Company.Name),
		Plan:        f.Company.Plan,
		TrialEndsAt: time.Now().AddDate(0, 0, trialDays),
	}
	if company.Plan != nil {
		company.SubscriptionStatus = models.SubscriptionActive
	}

	var existing int64
	db.Model(&models.Company{}).Where("subdomain = ?", company.Subdomain).Count(&existing)
	if existing > 0 {
		return nil, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}

		users := make(map[string]uuid.UUID, len(f.Users))
		for i, fu := range f.Users {
			if !fu.Role.Valid() {
				return fmt.Errorf("user %s: unknown role %q", fu.Key, fu.Role)
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(fu.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			u := models.User{
				CompanyID: company.ID,
				Name:      fu.Name,
				Email:     fu.Email,
				Password:  string(hash),
				Role:      fu.Role,
				JobTitle:  fu.JobTitle,
				Division:  fu.Division,
				Theme:     models.ThemeLight,
				Notify:    models.DefaultNotifyPrefs(),
			}
			if err := tx.Create(&u).Error; err != nil {
				return err
			}
			users[fu.Key] = u.ID
			if i == 0 {
				company.OwnerID = u.ID
			}
		}
		if err := tx.Model(&company).Update("owner_id", company.OwnerID).Error; err != nil {
			return err
		}

		goals := make(map[string]uuid.UUID, len(f.Goals))
		for i, fg := range f.Goals {
			manager, ok := users[fg.Manager]
			if !ok {
				return fmt.Errorf("goal %s: unknown manager %q", fg.Key, fg.Manager)
			}
			g := models.Goal{
				ID:          uuid.New(),
				CompanyID:   company.ID,
				Title:       fg.Title,
				Description: fg.Description,
				ManagerID:   manager,
				Position:    i,
			}
			staff := make([]uuid.UUID, 0, len(fg.Staff))
			for _, key := range fg.Staff {
				staff = append(staff, users[key])
			}
			g.SetStaff(staff)
			if err := tx.Create(&g).Error; err != nil {
				return err
			}
			goals[fg.Key] = g.ID
		}

		for _, fk := range f.KPIs {
			goalID, ok := goals[fk.Goal]
			if !ok {
				return fmt.Errorf("kpi %q: unknown goal %q", fk.Title, fk.Goal)
			}
			k := models.KPI{
				GoalID:           goalID,
				Title:            fk.Title,
				Unit:             fk.Unit,
				Frequency:        fk.Frequency,
				OwnerID:          users[fk.Owner],
				Weight:           fk.Weight,
				DefaultTarget:    fk.Target,
				ProgressBarColor: fk.Color,
				MonthlyProgress:  progress.SeedYear(year, fk.Target),
			}
			for _, fp := range fk.Progress {
				y := fp.Year
				if y == 0 {
					y = year
				}
				k.MonthlyProgress = setPeriod(k.MonthlyProgress, models.MonthlyProgress{
					Year: y, Month: fp.Month, Target: fp.Target, Actual: fp.Actual,
				})
			}
			if err := tx.Create(&k).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func setPeriod(records []models.MonthlyProgress, p models.MonthlyProgress) []models.MonthlyProgress {
	for i := range records {
		if records[i].Year == p.Year && records[i].Month == p.Month {
			records[i] = p
			return records
		}
	}
	return append(records, p)
}
