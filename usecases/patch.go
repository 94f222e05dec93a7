package usecases

import (
	"encoding/json"
	"fmt"
	"strings"

	"wattwise-server/apperr"
	"wattwise-server/entities"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// Optional records whether a JSON key was present and whether it was null,
// so an update can tell "leave unchanged" from "clear".
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

func (o Optional[T]) ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// column value with SQL NULL for a cleared field
func (o Optional[T]) column() any {
	if o.Null {
		return nil
	}
	return o.Value
}

// ProfilePatch is a partial profile update. Keys missing from the request
// leave the stored value untouched; address and household merge key by key.
type ProfilePatch struct {
	DisplayName     Optional[string]                   `json:"displayName"`
	MonthlyBudget   Optional[float64]                  `json:"monthlyBudget"`
	Currency        Optional[string]                   `json:"currency"`
	AvatarURL       Optional[string]                   `json:"avatarUrl"`
	Address         *AddressPatch                      `json:"address"`
	Household       *HouseholdPatch                    `json:"household"`
	PlanPreferences Optional[entities.PlanPreferences] `json:"planPreferences"`
	ActivePlan      Optional[json.RawMessage]          `json:"activePlan"`
}

type AddressPatch struct {
	State           Optional[string]  `json:"state"`
	City            Optional[string]  `json:"city"`
	UtilityProvider Optional[string]  `json:"utilityProvider"`
	Lat             Optional[float64] `json:"lat"`
	Lng             Optional[float64] `json:"lng"`
}

type HouseholdPatch struct {
	PeopleCount Optional[int]    `json:"peopleCount"`
	FamilyType  Optional[string] `json:"familyType"`
	HouseType   Optional[string] `json:"houseType"`
}

// patchRules is the flat view of a patch checked by the validator.
type patchRules struct {
	Currency    *string  `validate:"omitnil,currency"`
	PeopleCount *int     `validate:"omitnil,gte=0"`
	Lat         *float64 `validate:"omitnil,latitude"`
	Lng         *float64 `validate:"omitnil,longitude"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return entities.ValidCurrency(fl.Field().String())
	})
	return v
}

// Validate rejects out-of-enum values and nulls on non-nullable fields.
func (p ProfilePatch) Validate() error {
	notNull := map[string]bool{
		"monthlyBudget":   p.MonthlyBudget.Null,
		"currency":        p.Currency.Null,
		"planPreferences": p.PlanPreferences.Null,
	}
	rules := patchRules{
		Currency: p.Currency.ptr(),
	}
	if p.Household != nil {
		notNull["household.peopleCount"] = p.Household.PeopleCount.Null
		rules.PeopleCount = p.Household.PeopleCount.ptr()
	}
	if p.Address != nil {
		rules.Lat = p.Address.Lat.ptr()
		rules.Lng = p.Address.Lng.ptr()
	}

	for _, field := range []string{"monthlyBudget", "currency", "planPreferences", "household.peopleCount"} {
		if notNull[field] {
			return apperr.Validationf("%s cannot be null.", field)
		}
	}

	if err := validate.Struct(rules); err != nil {
		return validationFault(err)
	}
	return nil
}

func validationFault(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return apperr.Wrap(err, apperr.Validation, "Invalid profile update.")
	}

	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "currency":
		msg = fmt.Sprintf("`%v` is not a valid currency. Allowed values: %s.",
			fe.Value(), strings.Join(entities.Currencies, ", "))
	case "latitude", "longitude":
		msg = fmt.Sprintf("%s must be a valid %s.", strings.ToLower(fe.Field()), fe.Tag())
	default:
		msg = fmt.Sprintf("%s is invalid.", fe.Field())
	}
	return apperr.Wrap(err, apperr.Validation, msg)
}

// Columns translates the patch into the store columns it touches.
func (p ProfilePatch) Columns() map[string]any {
	fields := map[string]any{}

	if p.DisplayName.Set {
		fields["display_name"] = p.DisplayName.column()
	}
	if p.MonthlyBudget.Set {
		fields["monthly_budget"] = p.MonthlyBudget.Value
	}
	if p.Currency.Set {
		fields["currency"] = p.Currency.Value
	}
	if p.AvatarURL.Set {
		fields["avatar_url"] = p.AvatarURL.column()
	}

	if a := p.Address; a != nil {
		setColumn(fields, "address_state", a.State)
		setColumn(fields, "address_city", a.City)
		setColumn(fields, "address_utility_provider", a.UtilityProvider)
		setColumn(fields, "address_lat", a.Lat)
		setColumn(fields, "address_lng", a.Lng)
	}

	if h := p.Household; h != nil {
		if h.PeopleCount.Set {
			fields["household_people_count"] = h.PeopleCount.Value
		}
		setColumn(fields, "household_family_type", h.FamilyType)
		setColumn(fields, "household_house_type", h.HouseType)
	}

	// plan preferences are replaced as a whole
	if p.PlanPreferences.Set {
		prefs := p.PlanPreferences.Value
		goals := prefs.Goals
		if goals == nil {
			goals = datatypes.JSONSlice[string]{}
		}
		focus := prefs.FocusArea
		if focus == "" {
			focus = entities.DefaultFocusArea
		}
		fields["plan_goals"] = goals
		fields["plan_focus_area"] = focus
	}

	if p.ActivePlan.Set {
		plan := datatypes.JSON("null")
		if !p.ActivePlan.Null && len(p.ActivePlan.Value) > 0 {
			plan = datatypes.JSON(p.ActivePlan.Value)
		}
		fields["active_plan"] = plan
	}

	return fields
}

func setColumn[T any](fields map[string]any, column string, o Optional[T]) {
	if o.Set {
		fields[column] = o.column()
	}
}
