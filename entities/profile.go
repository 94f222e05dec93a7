package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultCurrency    = "INR"
	DefaultFocusArea   = "ai_decide"
	DefaultPeopleCount = 2
)

// Currencies lists the accepted values of Profile.Currency.
var Currencies = []string{"INR", "USD", "EUR", "GBP", "AED"}

// ValidCurrency reports whether code is one of Currencies.
func ValidCurrency(code string) bool {
	for _, c := range Currencies {
		if c == code {
			return true
		}
	}
	return false
}

// Profile is the application record extending a verified identity.
// It never holds credentials; the identity authority owns those.
type Profile struct {
	ID                  string                         `gorm:"type:varchar(36);primaryKey" json:"id"`
	IdentitySubjectID   string                         `gorm:"type:varchar(128);uniqueIndex;not null" json:"identitySubjectId"`
	Email               string                         `gorm:"type:varchar(320);uniqueIndex;not null" json:"email"`
	DisplayName         *string                        `json:"displayName"`
	AvatarURL           *string                        `json:"avatarUrl"`
	MonthlyBudget       float64                        `gorm:"not null;default:0" json:"monthlyBudget"`
	Currency            string                         `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	Address             Address                        `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Household           Household                      `gorm:"embedded;embeddedPrefix:household_" json:"household"`
	PlanPreferences     PlanPreferences                `gorm:"embedded;embeddedPrefix:plan_" json:"planPreferences"`
	ActivePlan          datatypes.JSON                 `gorm:"not null" json:"activePlan"`
	PreviousPlans       datatypes.JSON                 `gorm:"not null" json:"previousPlans"`
	OnboardingCompleted bool                           `gorm:"not null;default:false" json:"onboardingCompleted"`
	Appliances          datatypes.JSONSlice[Appliance] `gorm:"not null" json:"appliances"`
	CreatedAt           time.Time                      `json:"createdAt"`
	UpdatedAt           time.Time                      `json:"updatedAt"`
}

type Address struct {
	State           *string  `json:"state"`
	City            *string  `json:"city"`
	UtilityProvider *string  `json:"utilityProvider"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
}

type Household struct {
	PeopleCount int     `gorm:"not null;default:2" json:"peopleCount"`
	FamilyType  *string `json:"familyType"`
	HouseType   *string `json:"houseType"`
}

type PlanPreferences struct {
	Goals     datatypes.JSONSlice[string] `gorm:"not null" json:"goals"`
	FocusArea string                      `gorm:"not null;default:'ai_decide'" json:"focusArea"`
}

// Appliance is one entry of the user's configured appliance list.
type Appliance struct {
	ApplianceID       string            `json:"applianceId"`
	Title             string            `json:"title"`
	Category          string            `json:"category"`
	UsageHours        float64           `json:"usageHours"`
	UsageLevel        string            `json:"usageLevel"`
	Count             int               `json:"count"`
	SelectedDropdowns map[string]string `json:"selectedDropdowns,omitempty"`
	SVGPath           string            `json:"svgPath"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Email = NormalizeEmail(p.Email)
	p.applyDefaults()
	return nil
}

func (p *Profile) applyDefaults() {
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if p.Household.PeopleCount == 0 {
		p.Household.PeopleCount = DefaultPeopleCount
	}
	if p.PlanPreferences.FocusArea == "" {
		p.PlanPreferences.FocusArea = DefaultFocusArea
	}
	if p.PlanPreferences.Goals == nil {
		p.PlanPreferences.Goals = datatypes.JSONSlice[string]{}
	}
	if p.Appliances == nil {
		p.Appliances = datatypes.JSONSlice[Appliance]{}
	}
	if len(p.ActivePlan) == 0 {
		p.ActivePlan = datatypes.JSON("null")
	}
	if len(p.PreviousPlans) == 0 {
		p.PreviousPlans = datatypes.JSON("[]")
	}
}

// NormalizeEmail trims and lowercases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
