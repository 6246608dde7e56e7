package v1

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/errors"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = time.DateOnly

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
	v *validator.Validate
}

// NewValidator returns a validator reporting JSON field names.
func NewValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fe.Field()+" failed "+fe.Tag())
	}
	return errors.Newf("invalid request: %s", strings.Join(parts, "; ")).
		Component("api").
		Category(errors.CategoryValidation).
		Build()
}

// parseDate parses a YYYY-MM-DD date at local midnight. Empty gives zero.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, errors.Newf("invalid date %q, expected YYYY-MM-DD", s).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return t, nil
}

// TreeRequest creates or edits a tree.
type TreeRequest struct {
	TreeName     string   `json:"tree_name" validate:"required,max=100"`
	Species      string   `json:"species" validate:"required,max=100"`
	DateAcquired string   `json:"date_acquired" validate:"required,datetime=2006-01-02"`
	OriginDate   string   `json:"origin_date" validate:"required,datetime=2006-01-02"`
	CurrentGirth *float64 `json:"current_girth" validate:"omitempty,gte=0"`
	Notes        string   `json:"notes"`
}

func (r *TreeRequest) input() (collection.TreeInput, error) {
	acquired, err := parseDate(r.DateAcquired)
	if err != nil {
		return collection.TreeInput{}, err
	}
	origin, err := parseDate(r.OriginDate)
	if err != nil {
		return collection.TreeInput{}, err
	}
	return collection.TreeInput{
		TreeName:     r.TreeName,
		Species:      r.Species,
		DateAcquired: acquired,
		OriginDate:   origin,
		CurrentGirth: r.CurrentGirth,
		Notes:        r.Notes,
	}, nil
}

// UpdateRequest records work on a tree. A reminder is requested by setting
// ReminderDate or ReminderMessage; the service requires both.
type UpdateRequest struct {
	UpdateDate       string   `json:"update_date" validate:"omitempty,datetime=2006-01-02"`
	Girth            *float64 `json:"girth" validate:"omitempty,gte=0"`
	WorkPerformed    string   `json:"work_performed" validate:"required"`
	PhotoDescription string   `json:"photo_description"`
	ReminderDate     string   `json:"reminder_date" validate:"omitempty,datetime=2006-01-02"`
	ReminderMessage  string   `json:"reminder_message"`
}

func (r *UpdateRequest) input() (collection.UpdateInput, error) {
	updateDate, err := parseDate(r.UpdateDate)
	if err != nil {
		return collection.UpdateInput{}, err
	}

	in := collection.UpdateInput{
		UpdateDate:       updateDate,
		Girth:            r.Girth,
		WorkPerformed:    r.WorkPerformed,
		PhotoDescription: r.PhotoDescription,
	}
	if r.ReminderDate != "" || r.ReminderMessage != "" {
		reminderDate, err := parseDate(r.ReminderDate)
		if err != nil {
			return collection.UpdateInput{}, err
		}
		in.Reminder = &collection.ReminderInput{ReminderDate: reminderDate, Message: r.ReminderMessage}
	}
	return in, nil
}

// ReminderRequest schedules a reminder.
type ReminderRequest struct {
	ReminderDate string `json:"reminder_date" validate:"required,datetime=2006-01-02"`
	Message      string `json:"message" validate:"required"`
}

// StarRequest stars or unstars a photo.
type StarRequest struct {
	Starred bool `json:"starred"`
}

// SettingsRequest edits the application settings.
type SettingsRequest struct {
	AppTitle     string `json:"app_title" validate:"max=100"` // empty restores the default
	SidebarImage string `json:"sidebar_image" validate:"max=255"`
}
