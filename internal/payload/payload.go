// Package payload validates decoded telemetry payloads against the known
// message shapes and produces the typed form the staging store persists.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"sites-ingestion-service/internal/devicetime"
	"sites-ingestion-service/internal/model"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedPayload marks bytes that are not valid JSON at all. This is a
// distinct failure class from structural validation; the coordinator counts
// and logs the two separately.
var ErrMalformedPayload = errors.New("payload is not valid JSON")

// ValidationError reports every violated field path of a structurally invalid
// message, not just the first one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

// Message is a validated inbound telemetry message. Exactly one of Scc or
// Battery is set, selected by DataType.
type Message struct {
	DataType  string
	Timestamp time.Time
	Host      string
	Sites     model.SiteInfo
	Scc       *model.SccMessage
	Battery   *model.BatteryMessage
	Raw       json.RawMessage
}

// Validator checks untyped payloads against the known message variants.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator with json-tag field names and the
// device-timestamp format rule registered.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for a nil func or empty tag.
	_ = v.RegisterValidation("devicetime", func(fl validator.FieldLevel) bool {
		_, err := devicetime.Parse(fl.Field().String())
		return err == nil
	})
	return &Validator{validate: v}
}

// Validate decodes raw payload bytes and checks them against the variant
// selected by the data_type discriminator. It returns ErrMalformedPayload for
// non-JSON bytes and *ValidationError for structural failures.
func (v *Validator) Validate(raw []byte) (*Message, error) {
	var envelope struct {
		DataType string `json:"data_type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	msg := &Message{DataType: envelope.DataType, Raw: raw}
	switch envelope.DataType {
	case "scc":
		var scc model.SccMessage
		if err := decodeVariant(raw, &scc); err != nil {
			return nil, err
		}
		if err := v.check(&scc); err != nil {
			return nil, err
		}
		msg.Scc = &scc
		msg.Host = scc.Host
		msg.Sites = scc.Sites
		msg.Timestamp = mustParseTimestamp(scc.Timestamp)
	case "battery":
		var battery model.BatteryMessage
		if err := decodeVariant(raw, &battery); err != nil {
			return nil, err
		}
		if err := v.check(&battery); err != nil {
			return nil, err
		}
		msg.Battery = &battery
		msg.Host = battery.Host
		msg.Sites = battery.Sites
		msg.Timestamp = mustParseTimestamp(battery.Timestamp)
	case "":
		return nil, &ValidationError{Violations: []string{"data_type: required"}}
	default:
		return nil, &ValidationError{
			Violations: []string{fmt.Sprintf("data_type: unsupported value %q", envelope.DataType)},
		}
	}
	return msg, nil
}

// decodeVariant maps JSON type mismatches (e.g. data present but not the
// expected shape) onto the structural-failure class.
func decodeVariant(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			path := typeErr.Field
			if path == "" {
				path = "payload"
			}
			return &ValidationError{
				Violations: []string{fmt.Sprintf("%s: expected %s, got %s", path, typeErr.Type, typeErr.Value)},
			}
		}
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func (v *Validator) check(variant any) error {
	err := v.validate.Struct(variant)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating payload: %w", err)
	}
	violations := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, fmt.Sprintf("%s: %s", fieldPath(fe), fieldReason(fe)))
	}
	return &ValidationError{Violations: violations}
}

// fieldPath strips the variant type name off the namespace, leaving the json
// path of the violated field, e.g. "sites.site_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldReason(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}

// mustParseTimestamp is only called after the devicetime validation rule has
// accepted the field, so a parse failure here cannot happen.
func mustParseTimestamp(s string) time.Time {
	t, err := devicetime.Parse(s)
	if err != nil {
		panic(fmt.Sprintf("timestamp %q passed validation but failed to parse: %v", s, err))
	}
	return t
}
