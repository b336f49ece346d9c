package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidLog        = errors.New("invalid daily log")
	ErrInvalidPrediction = errors.New("invalid prediction result")
	ErrInvalidChat       = errors.New("invalid chat request")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func ValidateLog(entry DailyLog) error {
	return wrapValidation(ErrInvalidLog, validate.Struct(entry))
}

func ValidatePatch(patch LogPatch) error {
	return wrapValidation(ErrInvalidLog, validate.Struct(patch))
}

func ValidatePrediction(result PredictionResult) error {
	return wrapValidation(ErrInvalidPrediction, validate.Struct(result))
}

func ValidateChatRequest(request ChatRequest) error {
	return wrapValidation(ErrInvalidChat, validate.Struct(request))
}

func wrapValidation(sentinel error, err error) error {
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		first := fieldErrors[0]
		return fmt.Errorf("%w: %s failed %q", sentinel, first.Field(), first.Tag())
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
