package model

// SiteInfo identifies the site a device reports for. The site_id here, not the
// one in the MQTT topic, is what ends up on the staged row.
type SiteInfo struct {
	SiteID   string `json:"site_id" validate:"required,min=1,max=20"`
	SiteName string `json:"site_name" validate:"required"`
}

// SccMessage is a solar charge controller report. Envelope fields are
// mandatory; every telemetry reading is optional because individual sensors
// may be absent on a given logger.
type SccMessage struct {
	DataType  string   `json:"data_type" validate:"required,eq=scc"`
	Timestamp string   `json:"timestamp" validate:"required,devicetime"`
	Host      string   `json:"host" validate:"required"`
	Sites     SiteInfo `json:"sites"`
	Data      *SccData `json:"data,omitempty"`
}

// SccData carries the numeric readings of an scc report.
type SccData struct {
	BatteryVoltage *float64 `json:"battery_voltage,omitempty"`
	CPUTemperature *float64 `json:"cpu_temperature,omitempty"`

	Load1 *float64 `json:"load1,omitempty"`
	Load2 *float64 `json:"load2,omitempty"`
	Load3 *float64 `json:"load3,omitempty"`

	PVVoltage1 *float64 `json:"pv_voltage1,omitempty"`
	PVVoltage2 *float64 `json:"pv_voltage2,omitempty"`
	PVVoltage3 *float64 `json:"pv_voltage3,omitempty"`
	PVCurrent1 *float64 `json:"pv_current1,omitempty"`
	PVCurrent2 *float64 `json:"pv_current2,omitempty"`
	PVCurrent3 *float64 `json:"pv_current3,omitempty"`

	EnergyDischarge1 *float64 `json:"energy_discharge1,omitempty"`
	EnergyDischarge2 *float64 `json:"energy_discharge2,omitempty"`
	EnergyDischarge3 *float64 `json:"energy_discharge3,omitempty"`
	EnergyHarvest1   *float64 `json:"energy_harvest1,omitempty"`
	EnergyHarvest2   *float64 `json:"energy_harvest2,omitempty"`
	EnergyHarvest3   *float64 `json:"energy_harvest3,omitempty"`
}

// BatteryMessage is a battery-bank report. Data holds one record per pack.
type BatteryMessage struct {
	DataType  string        `json:"data_type" validate:"required,eq=battery"`
	Timestamp string        `json:"timestamp" validate:"required,devicetime"`
	Host      string        `json:"host" validate:"required"`
	Sites     SiteInfo      `json:"sites"`
	Data      []BatteryPack `json:"data,omitempty" validate:"omitempty,dive"`
}

// BatteryPack is one pack record. The device firmware encodes every reading
// as a string; numeric coercion belongs to the downstream ETL, so the fields
// stay strings here and are all optional.
type BatteryPack struct {
	PackID            *string  `json:"pack_id,omitempty"`
	PackVoltage       *string  `json:"pack_voltage,omitempty"`
	PackCurrent       *string  `json:"pack_current,omitempty"`
	StateOfCharge     *string  `json:"soc,omitempty"`
	StateOfHealth     *string  `json:"soh,omitempty"`
	RemainingCapacity *string  `json:"remaining_capacity,omitempty"`
	FullCapacity      *string  `json:"full_capacity,omitempty"`
	CycleCount        *string  `json:"cycle_count,omitempty"`
	MaxCellVoltage    *string  `json:"max_cell_voltage,omitempty"`
	MinCellVoltage    *string  `json:"min_cell_voltage,omitempty"`
	CellVoltages      []string `json:"cell_voltages,omitempty"`
	Temperatures      []string `json:"temperatures,omitempty"`
	AmbientTemp       *string  `json:"ambient_temp,omitempty"`
	MosfetTemp        *string  `json:"mosfet_temp,omitempty"`
	WarningFlags      []string `json:"warning_flags,omitempty"`
	ProtectionFlags   []string `json:"protection_flags,omitempty"`
	FaultStatus       *string  `json:"fault_status,omitempty"`
	BalanceStatus     *string  `json:"balance_status,omitempty"`
	ChargeMosfet      *string  `json:"charge_mosfet,omitempty"`
	DischargeMosfet   *string  `json:"discharge_mosfet,omitempty"`
}
