package decode

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"go.uber.org/zap"

	"knmi-weather-mcp/internal/models"
	"knmi-weather-mcp/internal/observability"
)

var (
	// ErrStationNotInBundle is returned when the station id is absent from
	// the bundle's station dimension, e.g. a station temporarily offline.
	ErrStationNotInBundle = errors.New("station not in bundle")

	// ErrMalformedBundle is returned when the structural parse fails. Usually
	// means an upstream format change.
	ErrMalformedBundle = errors.New("malformed bundle")
)

// netCDF default fill for floating-point variables; values at or above this
// magnitude are unmeasured.
const defaultFillThreshold = 9.9e36

// varSpec maps one bundle variable onto an Observation field.
type varSpec struct {
	ncName string
	assign func(o *models.Observation, v float64)
}

// Bundle variables of the 10-minute dataset. Scale factors and offsets come
// from each variable's attributes, so only the name mapping lives here.
var varTable = []varSpec{
	{"ta", func(o *models.Observation, v float64) { o.Temperature = &v }},
	{"rh", func(o *models.Observation, v float64) { o.Humidity = &v }},
	{"ff", func(o *models.Observation, v float64) { o.WindSpeed = &v }},
	{"dd", func(o *models.Observation, v float64) { o.WindDirection = &v }},
	{"rr", func(o *models.Observation, v float64) { o.Precipitation = &v }},
	{"dr", func(o *models.Observation, v float64) { o.PrecipDuration = &v }},
	{"vis", func(o *models.Observation, v float64) { o.Visibility = &v }},
	{"pp", func(o *models.Observation, v float64) { o.Pressure = &v }},
}

// Decoder extracts one station's latest readings from a NetCDF bundle.
type Decoder struct {
	logger *zap.Logger
}

// NewDecoder returns a Decoder.
func NewDecoder(logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{logger: logger}
}

// Decode parses the bundle and returns the observation for the given station
// at the latest time index. A variable carrying the missing sentinel maps to
// a nil field, never a zero.
func (d *Decoder) Decode(bundle models.RawBundle, station models.Station) (models.Observation, error) {
	obs, err := d.decode(bundle, station)
	switch {
	case err == nil:
		observability.DecodeResultsTotal.WithLabelValues("success").Inc()
	case errors.Is(err, ErrStationNotInBundle):
		observability.DecodeResultsTotal.WithLabelValues("station_not_in_bundle").Inc()
	default:
		observability.DecodeResultsTotal.WithLabelValues("malformed").Inc()
	}
	return obs, err
}

func (d *Decoder) decode(bundle models.RawBundle, station models.Station) (models.Observation, error) {
	path, cleanup, err := spool(bundle)
	if err != nil {
		return models.Observation{}, fmt.Errorf("%w: %v", ErrMalformedBundle, err)
	}
	defer cleanup()

	nc, err := netcdf.Open(path)
	if err != nil {
		d.logger.Error("bundle open failed", zap.String("filename", bundle.Filename), zap.Error(err))
		return models.Observation{}, fmt.Errorf("%w: open %s: %v", ErrMalformedBundle, bundle.Filename, err)
	}
	defer nc.Close()

	stationVar, err := nc.GetVariable("station")
	if err != nil {
		return models.Observation{}, fmt.Errorf("%w: no station dimension variable", ErrMalformedBundle)
	}
	ids, ok := stationVar.Values.([]string)
	if !ok {
		return models.Observation{}, fmt.Errorf("%w: station variable has type %T, want strings", ErrMalformedBundle, stationVar.Values)
	}
	stationIdx := findStation(ids, station.ID)
	if stationIdx < 0 {
		d.logger.Warn("station absent from bundle",
			zap.String("station_id", station.ID),
			zap.String("filename", bundle.Filename))
		return models.Observation{}, fmt.Errorf("%w: station %s not among %d bundle stations", ErrStationNotInBundle, station.ID, len(ids))
	}

	timeVar, err := nc.GetVariable("time")
	if err != nil {
		return models.Observation{}, fmt.Errorf("%w: no time variable", ErrMalformedBundle)
	}
	timeLen := sliceLen(timeVar.Values)
	if timeLen == 0 {
		return models.Observation{}, fmt.Errorf("%w: empty time dimension", ErrMalformedBundle)
	}
	timeIdx := timeLen - 1

	obs := models.Observation{
		StationID:   station.ID,
		StationName: station.Name,
		Timestamp:   bundle.RetrievedAt,
		SourceFile:  bundle.Filename,
	}
	if ts, ok := timestampAt(timeVar, timeIdx); ok {
		obs.Timestamp = ts
	}

	for _, spec := range varTable {
		vr, err := nc.GetVariable(spec.ncName)
		if err != nil {
			continue // variable not published in this bundle
		}
		raw, err := valueAt(vr, stationIdx, timeIdx)
		if err != nil {
			d.logger.Warn("could not extract variable",
				zap.String("variable", spec.ncName),
				zap.Strings("dimensions", vr.Dimensions),
				zap.Error(err))
			continue
		}
		if isMissing(raw, fillValue(vr.Attributes)) {
			continue
		}
		scale, hasScale := attrFloat(vr.Attributes, "scale_factor")
		if !hasScale {
			scale = 1
		}
		offset, _ := attrFloat(vr.Attributes, "add_offset")
		spec.assign(&obs, raw*scale+offset)
	}

	d.logger.Debug("decoded observation",
		zap.String("station_id", station.ID),
		zap.Time("timestamp", obs.Timestamp))
	return obs, nil
}

// spool writes the bundle bytes to a temporary file for the NetCDF reader.
func spool(bundle models.RawBundle) (string, func(), error) {
	f, err := os.CreateTemp("", "knmi-bundle-*.nc")
	if err != nil {
		return "", nil, err
	}
	if _, err := f.Write(bundle.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

// findStation matches a directory id against the bundle's station codes.
// Bundle codes carry the WMO block prefix ("06240" for station 240), so both
// forms are accepted.
func findStation(ids []string, id string) int {
	for i, v := range ids {
		v = strings.TrimSpace(v)
		if v == id || v == "06"+id || strings.TrimPrefix(v, "06") == id {
			return i
		}
	}
	return -1
}

// valueAt extracts the scalar for (station, time) honoring the variable's
// own dimension order; dimensions other than station/time index at 0.
func valueAt(vr *api.Variable, stationIdx, timeIdx int) (float64, error) {
	indices := make([]int, len(vr.Dimensions))
	for i, dim := range vr.Dimensions {
		switch dim {
		case "station":
			indices[i] = stationIdx
		case "time":
			indices[i] = timeIdx
		default:
			indices[i] = 0
		}
	}

	v := reflect.ValueOf(vr.Values)
	for _, idx := range indices {
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return 0, fmt.Errorf("value rank lower than dimension count %d", len(indices))
		}
		if idx < 0 || idx >= v.Len() {
			return 0, fmt.Errorf("index %d out of range (len %d)", idx, v.Len())
		}
		v = v.Index(idx)
	}
	return toFloat(v)
}

func toFloat(v reflect.Value) (float64, error) {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return float64(v.Int()), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return float64(v.Uint()), nil
	default:
		return 0, fmt.Errorf("non-numeric value of kind %s", v.Kind())
	}
}

func sliceLen(values interface{}) int {
	v := reflect.ValueOf(values)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return 0
	}
	return v.Len()
}

// isMissing reports whether a raw (pre-scale) value is the missing sentinel:
// NaN, the variable's _FillValue, or the netCDF default fill.
func isMissing(raw float64, fill *float64) bool {
	if math.IsNaN(raw) {
		return true
	}
	if fill != nil && raw == *fill {
		return true
	}
	return math.Abs(raw) >= defaultFillThreshold
}

func fillValue(attrs api.AttributeMap) *float64 {
	if v, ok := attrFloat(attrs, "_FillValue"); ok {
		return &v
	}
	return nil
}

// attrFloat reads a numeric attribute; attributes may be stored as scalars
// or single-element arrays.
func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	raw, has := attrs.Get(key)
	if !has || raw == nil {
		return 0, false
	}
	v := reflect.ValueOf(raw)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		if v.Len() == 0 {
			return 0, false
		}
		v = v.Index(0)
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// timestampAt converts the time variable's value at idx using its CF units
// attribute ("<unit> since <epoch>").
func timestampAt(timeVar *api.Variable, idx int) (time.Time, bool) {
	raw, err := valueAt(timeVar, 0, idx) // time vars carry only the time dim
	if err != nil {
		return time.Time{}, false
	}
	units, has := attrString(timeVar.Attributes, "units")
	if !has {
		return time.Time{}, false
	}
	epoch, perUnit, ok := parseTimeUnits(units)
	if !ok {
		return time.Time{}, false
	}
	return epoch.Add(time.Duration(raw * float64(perUnit))), true
}

func attrString(attrs api.AttributeMap, key string) (string, bool) {
	if attrs == nil {
		return "", false
	}
	raw, has := attrs.Get(key)
	if !has {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// parseTimeUnits parses CF-style time units such as
// "seconds since 1950-01-01 00:00:00".
func parseTimeUnits(units string) (time.Time, time.Duration, bool) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, false
	}
	var perUnit time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[0])) {
	case "seconds", "second", "s":
		perUnit = time.Second
	case "minutes", "minute":
		perUnit = time.Minute
	case "hours", "hour":
		perUnit = time.Hour
	default:
		return time.Time{}, 0, false
	}
	ref := strings.TrimSpace(parts[1])
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05Z", time.RFC3339, "2006-01-02"} {
		if epoch, err := time.Parse(layout, ref); err == nil {
			return epoch.UTC(), perUnit, true
		}
	}
	return time.Time{}, 0, false
}
