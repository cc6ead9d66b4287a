package decode

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"knmi-weather-mcp/internal/models"
)

var (
	schiphol = models.Station{ID: "240", Name: "Schiphol", Latitude: 52.318, Longitude: 4.790}
	deBilt   = models.Station{ID: "260", Name: "De Bilt", Latitude: 52.100, Longitude: 5.180}
)

func attrs(t *testing.T, kv map[string]interface{}) api.AttributeMap {
	t.Helper()
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	om, err := util.NewOrderedMap(keys, kv)
	if err != nil {
		t.Fatalf("NewOrderedMap: %v", err)
	}
	return om
}

// writeBundle builds a classic-format NetCDF file with the given variables
// and returns it as a RawBundle.
func writeBundle(t *testing.T, vars map[string]api.Variable) models.RawBundle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "obs.nc")
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	// Dimension variables first so shared dims exist before data variables.
	for _, name := range []string{"station", "time"} {
		if vr, ok := vars[name]; ok {
			if err := cw.AddVar(name, vr); err != nil {
				t.Fatalf("AddVar(%s): %v", name, err)
			}
		}
	}
	for name, vr := range vars {
		if name == "station" || name == "time" {
			continue
		}
		if err := cw.AddVar(name, vr); err != nil {
			t.Fatalf("AddVar(%s): %v", name, err)
		}
	}
	if err := cw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	return models.RawBundle{
		Data:        data,
		Filename:    "obs.nc",
		RetrievedAt: time.Date(2026, 8, 26, 12, 50, 0, 0, time.UTC),
	}
}

func defaultVars(t *testing.T) map[string]api.Variable {
	timeAttrs := attrs(t, map[string]interface{}{"units": "seconds since 1970-01-01 00:00:00"})
	return map[string]api.Variable{
		"station": {Values: []string{"06240", "06260"}, Dimensions: []string{"station"}},
		"time":    {Values: []float64{1756212000}, Dimensions: []string{"time"}, Attributes: timeAttrs},
		"ta":      {Values: [][]float64{{17.5}, {16.2}}, Dimensions: []string{"station", "time"}},
		"rh":      {Values: [][]float64{{78}, {82}}, Dimensions: []string{"station", "time"}},
		"ff":      {Values: [][]float64{{5.2}, {3.1}}, Dimensions: []string{"station", "time"}},
		"dd":      {Values: [][]float64{{225}, {240}}, Dimensions: []string{"station", "time"}},
		"rr":      {Values: [][]float64{{0}, {0.4}}, Dimensions: []string{"station", "time"}},
		"vis":     {Values: [][]float64{{18000}, {9500}}, Dimensions: []string{"station", "time"}},
		"pp":      {Values: [][]float64{{1013.2}, {1012.8}}, Dimensions: []string{"station", "time"}},
	}
}

func TestDecode_ExtractsStationRow(t *testing.T) {
	bundle := writeBundle(t, defaultVars(t))
	d := NewDecoder(nil)

	obs, err := d.Decode(bundle, schiphol)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if obs.StationID != "240" || obs.StationName != "Schiphol" {
		t.Errorf("attribution = %s/%s", obs.StationID, obs.StationName)
	}
	if obs.Temperature == nil || *obs.Temperature != 17.5 {
		t.Errorf("Temperature = %v, want 17.5", obs.Temperature)
	}
	if obs.WindSpeed == nil || *obs.WindSpeed != 5.2 {
		t.Errorf("WindSpeed = %v, want 5.2", obs.WindSpeed)
	}
	if obs.Pressure == nil || *obs.Pressure != 1013.2 {
		t.Errorf("Pressure = %v, want 1013.2", obs.Pressure)
	}
	want := time.Unix(1756212000, 0).UTC()
	if !obs.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", obs.Timestamp, want)
	}

	// The other station's row decodes independently.
	obs2, err := d.Decode(bundle, deBilt)
	if err != nil {
		t.Fatalf("Decode(260) error = %v", err)
	}
	if obs2.Temperature == nil || *obs2.Temperature != 16.2 {
		t.Errorf("Temperature(260) = %v, want 16.2", obs2.Temperature)
	}
}

func TestDecode_LatestTimeSlice(t *testing.T) {
	vars := defaultVars(t)
	vars["time"] = api.Variable{
		Values:     []float64{1756211400, 1756212000},
		Dimensions: []string{"time"},
		Attributes: attrs(t, map[string]interface{}{"units": "seconds since 1970-01-01 00:00:00"}),
	}
	vars["ta"] = api.Variable{Values: [][]float64{{16.9, 17.5}, {15.8, 16.2}}, Dimensions: []string{"station", "time"}}
	for _, name := range []string{"rh", "ff", "dd", "rr", "vis", "pp"} {
		vr := vars[name]
		old := vr.Values.([][]float64)
		vr.Values = [][]float64{{0, old[0][0]}, {0, old[1][0]}}
		vars[name] = vr
	}
	bundle := writeBundle(t, vars)

	obs, err := NewDecoder(nil).Decode(bundle, schiphol)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if obs.Temperature == nil || *obs.Temperature != 17.5 {
		t.Errorf("Temperature = %v, want latest slice value 17.5", obs.Temperature)
	}
	want := time.Unix(1756212000, 0).UTC()
	if !obs.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want latest %v", obs.Timestamp, want)
	}
}

func TestDecode_StationNotInBundle(t *testing.T) {
	bundle := writeBundle(t, defaultVars(t))

	_, err := NewDecoder(nil).Decode(bundle, models.Station{ID: "999", Name: "Ghost"})
	if !errors.Is(err, ErrStationNotInBundle) {
		t.Errorf("Decode() error = %v, want ErrStationNotInBundle", err)
	}
}

func TestDecode_MissingSentinelBecomesAbsent(t *testing.T) {
	vars := defaultVars(t)
	// NaN sentinel for precipitation, explicit _FillValue for visibility.
	vars["rr"] = api.Variable{Values: [][]float64{{math.NaN()}, {0.4}}, Dimensions: []string{"station", "time"}}
	vars["vis"] = api.Variable{
		Values:     [][]float64{{-9999}, {9500}},
		Dimensions: []string{"station", "time"},
		Attributes: attrs(t, map[string]interface{}{"_FillValue": -9999.0}),
	}
	bundle := writeBundle(t, vars)

	obs, err := NewDecoder(nil).Decode(bundle, schiphol)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if obs.Precipitation != nil {
		t.Errorf("Precipitation = %v, want absent for NaN sentinel", *obs.Precipitation)
	}
	if obs.Visibility != nil {
		t.Errorf("Visibility = %v, want absent for _FillValue sentinel", *obs.Visibility)
	}
	// Other fields still populate.
	if obs.Temperature == nil {
		t.Error("Temperature absent, want 17.5")
	}
}

func TestDecode_ScaleFactorApplied(t *testing.T) {
	rawTenths := []float64{52, 31}
	vars := defaultVars(t)
	vars["ff"] = api.Variable{
		Values:     [][]float64{{rawTenths[0]}, {rawTenths[1]}},
		Dimensions: []string{"station", "time"},
		Attributes: attrs(t, map[string]interface{}{"scale_factor": 0.1}),
	}
	bundle := writeBundle(t, vars)

	obs, err := NewDecoder(nil).Decode(bundle, schiphol)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if obs.WindSpeed == nil {
		t.Fatal("WindSpeed absent")
	}
	if math.Abs(*obs.WindSpeed-rawTenths[0]/10) > 1e-6 {
		t.Errorf("WindSpeed = %v, want raw/10 = %v within 1e-6", *obs.WindSpeed, rawTenths[0]/10)
	}
}

func TestDecode_AbsentVariableIsSkipped(t *testing.T) {
	vars := defaultVars(t)
	delete(vars, "vis")
	bundle := writeBundle(t, vars)

	obs, err := NewDecoder(nil).Decode(bundle, schiphol)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if obs.Visibility != nil {
		t.Errorf("Visibility = %v, want absent when variable missing", *obs.Visibility)
	}
}

func TestDecode_GarbageBytesAreMalformed(t *testing.T) {
	bundle := models.RawBundle{Data: []byte("definitely not netcdf"), Filename: "junk.nc", RetrievedAt: time.Now()}

	_, err := NewDecoder(nil).Decode(bundle, schiphol)
	if !errors.Is(err, ErrMalformedBundle) {
		t.Errorf("Decode() error = %v, want ErrMalformedBundle", err)
	}
}

func TestDecode_MissingStationVariableIsMalformed(t *testing.T) {
	vars := defaultVars(t)
	delete(vars, "station")
	bundle := writeBundle(t, vars)

	_, err := NewDecoder(nil).Decode(bundle, schiphol)
	if !errors.Is(err, ErrMalformedBundle) {
		t.Errorf("Decode() error = %v, want ErrMalformedBundle", err)
	}
}

func TestDecode_FallbackTimestampWithoutUnits(t *testing.T) {
	vars := defaultVars(t)
	vars["time"] = api.Variable{Values: []float64{12345}, Dimensions: []string{"time"}}
	bundle := writeBundle(t, vars)

	obs, err := NewDecoder(nil).Decode(bundle, schiphol)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !obs.Timestamp.Equal(bundle.RetrievedAt) {
		t.Errorf("Timestamp = %v, want retrieval-time fallback %v", obs.Timestamp, bundle.RetrievedAt)
	}
}

func TestParseTimeUnits(t *testing.T) {
	tests := []struct {
		units     string
		wantEpoch time.Time
		wantPer   time.Duration
		ok        bool
	}{
		{"seconds since 1950-01-01 00:00:00", time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), time.Second, true},
		{"seconds since 1970-01-01 00:00:00", time.Unix(0, 0).UTC(), time.Second, true},
		{"hours since 2000-01-01", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour, true},
		{"fortnights since 1970-01-01", time.Time{}, 0, false},
		{"no epoch here", time.Time{}, 0, false},
	}
	for _, tt := range tests {
		epoch, per, ok := parseTimeUnits(tt.units)
		if ok != tt.ok {
			t.Errorf("parseTimeUnits(%q) ok = %v, want %v", tt.units, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if !epoch.Equal(tt.wantEpoch) || per != tt.wantPer {
			t.Errorf("parseTimeUnits(%q) = %v,%v; want %v,%v", tt.units, epoch, per, tt.wantEpoch, tt.wantPer)
		}
	}
}

func TestFindStation(t *testing.T) {
	ids := []string{"06240", "06260", "215"}
	tests := []struct {
		id   string
		want int
	}{
		{"240", 0},
		{"06260", 1},
		{"260", 1},
		{"215", 2},
		{"999", -1},
	}
	for _, tt := range tests {
		if got := findStation(ids, tt.id); got != tt.want {
			t.Errorf("findStation(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}
