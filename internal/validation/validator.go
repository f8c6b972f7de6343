// Timelines - Home Automation Telemetry Archiver
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/timelines

package validation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single failed rule.
type FieldError struct {
	Namespace string
	Tag       string
	Param     string
	Value     interface{}
	Message   string
}

func (e FieldError) Error() string {
	return e.Message
}

// Errors collects every failed rule of one validation pass.
type Errors []FieldError

func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve))
	for i, fe := range ve {
		messages[i] = fe.Message
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the shared validator with the custom tags registered:
//
//	mqtt_filter  a valid MQTT subscription filter
//	broker_uri   mqtt, mqtts, tcp, ssl, ws or wss URI with a host
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		mustRegister("mqtt_filter", func(fl validator.FieldLevel) bool {
			return IsTopicFilter(fl.Field().String())
		})
		mustRegister("broker_uri", func(fl validator.FieldLevel) bool {
			return IsBrokerURI(fl.Field().String())
		})
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

// ValidateStruct validates s. It returns nil or an Errors value.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return Errors{{Namespace: "unknown", Tag: "unknown", Message: err.Error()}}
	}

	out := make(Errors, len(validationErrs))
	for i, fe := range validationErrs {
		out[i] = FieldError{
			Namespace: fe.Namespace(),
			Tag:       fe.Tag(),
			Param:     fe.Param(),
			Value:     fe.Value(),
			Message:   translateError(fe),
		}
	}
	return out
}

// IsTopicFilter reports whether filter is a valid MQTT subscription filter:
// non-empty, '#' only as the whole last level and '+' only as a whole level.
func IsTopicFilter(filter string) bool {
	if filter == "" {
		return false
	}
	levels := strings.Split(filter, "/")
	for i, level := range levels {
		if strings.Contains(level, "#") && (level != "#" || i != len(levels)-1) {
			return false
		}
		if strings.Contains(level, "+") && level != "+" {
			return false
		}
	}
	return true
}

var brokerSchemes = map[string]bool{
	"mqtt": true, "mqtts": true, "tcp": true, "ssl": true, "tls": true, "ws": true, "wss": true,
}

// IsBrokerURI reports whether raw is a URI paho can dial.
func IsBrokerURI(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return brokerSchemes[u.Scheme] && u.Host != ""
}

var errorMessageTemplates = map[string]string{
	"required":    "%s is required",
	"mqtt_filter": "%s must be a valid MQTT topic filter",
	"broker_uri":  "%s must be a broker URI (mqtt://, mqtts://, tcp://, ssl://, ws://, wss://)",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Namespace()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}
	return translateMinMax(fe, field, tag, param)
}

// translateMinMax handles min/max with length wording for strings and slices.
func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	kind := fe.Kind().String()
	unit := ""
	switch kind {
	case "string":
		unit = " characters"
	case "slice", "array", "map":
		unit = " entries"
	}

	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
