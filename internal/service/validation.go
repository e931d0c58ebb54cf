package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// custom validation tags
const (
	notBlankTag   = "notblank"
	hhmmTag       = "hhmm"
	weekdayTag    = "weekday"
	afterStartTag = "after_start"
)

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validator go-playground validator с json-именами полей и английскими сообщениями
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator() *Validator {
	v := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, translator)

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		return ok && strings.TrimSpace(str) != ""
	})
	_ = v.RegisterValidation(hhmmTag, func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation(weekdayTag, func(fl validator.FieldLevel) bool {
		return model.Weekday(fl.Field().String()).IsValid()
	})
	v.RegisterStructValidation(timeSlotStructValidation, model.TimeSlot{})

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, hhmmTag, weekdayTag, afterStartTag} {
		_ = v.RegisterTranslation(tag, translator, registerFn, translateCustomValidationErrs)
	}

	return &Validator{validate: v, translator: translator}
}

func translateCustomValidationErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return "this field cannot be blank"
	case hhmmTag:
		return "must be a time in HH:MM format"
	case weekdayTag:
		return "must be a day of the week (Monday..Sunday)"
	case afterStartTag:
		return "end time must be after start time"
	default:
		return ""
	}
}

// timeSlotStructValidation "HH:MM" сравниваются как строки
func timeSlotStructValidation(sl validator.StructLevel) {
	slot, ok := sl.Current().Interface().(model.TimeSlot)
	if !ok {
		return
	}
	if !hhmmPattern.MatchString(slot.StartTime) || !hhmmPattern.MatchString(slot.EndTime) {
		return
	}
	if slot.StartTime >= slot.EndTime {
		sl.ReportError(slot.EndTime, "endTime", "EndTime", afterStartTag, "")
	}
}

// Struct проверяет структуру и переводит ошибки в *model.ValidationError
func (v *Validator) Struct(s any) error {
	return v.translate(v.validate.Struct(s))
}

// Var проверяет одно значение; field - имя поля в ошибке
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return model.NewValidationError(field, errs[0].Translate(v.translator))
	}
	return err
}

func (v *Validator) translate(err error) error {
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fe.Translate(v.translator)
	}
	return &model.ValidationError{Fields: fields}
}
