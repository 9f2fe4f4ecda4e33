package payload

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validSccJSON() string {
	return `{
		"data_type": "scc",
		"timestamp": "20251125T145710",
		"host": "logger-01",
		"sites": {"site_id": "PAP0001", "site_name": "Papua Site 1"},
		"data": {"battery_voltage": 12.8, "pv_voltage1": 18.2, "load1": 0.5}
	}`
}

func validBatteryJSON() string {
	return `{
		"data_type": "battery",
		"timestamp": "2025-11-25 14:57:10",
		"host": "logger-02",
		"sites": {"site_id": "PAP0001", "site_name": "Papua Site 1"},
		"data": [
			{"pack_voltage": "51.2", "pack_current": "-3.1", "soc": "87",
			 "cell_voltages": ["3.201", "3.199"], "warning_flags": []}
		]
	}`
}

func TestValidateScc(t *testing.T) {
	v := NewValidator()
	msg, err := v.Validate([]byte(validSccJSON()))
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if msg.DataType != "scc" || msg.Scc == nil || msg.Battery != nil {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Sites.SiteID != "PAP0001" || msg.Host != "logger-01" {
		t.Fatalf("envelope not carried over: %+v", msg)
	}
	want := time.Date(2025, time.November, 25, 14, 57, 10, 0, time.Local)
	if !msg.Timestamp.Equal(want) {
		t.Fatalf("timestamp %v, want %v", msg.Timestamp, want)
	}
	if msg.Scc.Data == nil || msg.Scc.Data.BatteryVoltage == nil || *msg.Scc.Data.BatteryVoltage != 12.8 {
		t.Fatalf("telemetry readings not decoded: %+v", msg.Scc.Data)
	}
}

func TestValidateBattery(t *testing.T) {
	v := NewValidator()
	msg, err := v.Validate([]byte(validBatteryJSON()))
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if msg.Battery == nil || len(msg.Battery.Data) != 1 {
		t.Fatalf("battery packs not decoded: %+v", msg.Battery)
	}
	pack := msg.Battery.Data[0]
	if pack.PackVoltage == nil || *pack.PackVoltage != "51.2" {
		t.Fatalf("pack fields stay strings at this layer: %+v", pack)
	}
}

func TestValidateSccMissingSiteID(t *testing.T) {
	v := NewValidator()
	body := `{
		"data_type": "scc",
		"timestamp": "20251125T145710",
		"host": "logger-01",
		"sites": {"site_name": "Papua Site 1"}
	}`
	_, err := v.Validate([]byte(body))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Error(), "sites.site_id") {
		t.Fatalf("error must mention sites.site_id, got %q", verr.Error())
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	v := NewValidator()
	body := `{"data_type": "scc", "timestamp": "junk", "sites": {}}`
	_, err := v.Validate([]byte(body))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	msg := verr.Error()
	for _, path := range []string{"timestamp", "host", "sites.site_id", "sites.site_name"} {
		if !strings.Contains(msg, path) {
			t.Errorf("violation list missing %q: %q", path, msg)
		}
	}
}

func TestValidateSiteIDTooLong(t *testing.T) {
	v := NewValidator()
	body := `{
		"data_type": "scc",
		"timestamp": "20251125T145710",
		"host": "logger-01",
		"sites": {"site_id": "THIS_SITE_ID_IS_FAR_TOO_LONG", "site_name": "x"}
	}`
	_, err := v.Validate([]byte(body))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Error(), "sites.site_id") {
		t.Fatalf("error must mention sites.site_id, got %q", verr.Error())
	}
}

func TestValidateUnknownDataType(t *testing.T) {
	v := NewValidator()
	_, err := v.Validate([]byte(`{"data_type": "weather"}`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Error(), "weather") {
		t.Fatalf("error should name the unsupported discriminator: %q", verr.Error())
	}
}

func TestValidateMissingDataType(t *testing.T) {
	v := NewValidator()
	_, err := v.Validate([]byte(`{"host": "logger-01"}`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Error(), "data_type") {
		t.Fatalf("error should mention data_type: %q", verr.Error())
	}
}

func TestValidateMalformedBytes(t *testing.T) {
	v := NewValidator()
	_, err := v.Validate([]byte("not json at all"))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Fatal("malformed bytes must not be classed as a validation failure")
	}
}

func TestValidateWrongDataShape(t *testing.T) {
	v := NewValidator()
	// scc data must be an object, not an array
	body := `{
		"data_type": "scc",
		"timestamp": "20251125T145710",
		"host": "logger-01",
		"sites": {"site_id": "PAP0001", "site_name": "x"},
		"data": [1, 2, 3]
	}`
	_, err := v.Validate([]byte(body))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}
