package stations

import "knmi-weather-mcp/internal/models"

// Dataset bounding box for valid coordinates, taken from the KNMI dataset
// metadata. Wider than the mainland: includes the BES islands and North Sea
// platforms.
const (
	MinLatitude  = 12.0
	MaxLatitude  = 55.7
	MinLongitude = -68.5
	MaxLongitude = 7.4
)

// Directory is a read-only lookup over the fixed KNMI station network.
type Directory struct {
	stations []models.Station
	byID     map[string]int
}

// NewDirectory builds a Directory over the default station network.
func NewDirectory() *Directory {
	return newDirectory(networkStations)
}

func newDirectory(list []models.Station) *Directory {
	d := &Directory{
		stations: list,
		byID:     make(map[string]int, len(list)),
	}
	for i, s := range list {
		d.byID[s.ID] = i
	}
	return d
}

// All returns the stations in directory order. Callers must not modify the
// returned slice.
func (d *Directory) All() []models.Station {
	return d.stations
}

// Get returns the station with the given identifier.
func (d *Directory) Get(id string) (models.Station, bool) {
	i, ok := d.byID[id]
	if !ok {
		return models.Station{}, false
	}
	return d.stations[i], true
}

// Len returns the number of stations in the directory.
func (d *Directory) Len() int {
	return len(d.stations)
}

// InNetherlands reports whether the coordinate falls inside the dataset
// bounding box.
func InNetherlands(c models.Coordinates) bool {
	return c.Latitude >= MinLatitude && c.Latitude <= MaxLatitude &&
		c.Longitude >= MinLongitude && c.Longitude <= MaxLongitude
}

// networkStations is the KNMI automatic weather station network. Positions
// are WGS84 degrees, elevation in meters above NAP.
var networkStations = []models.Station{
	{ID: "209", Name: "IJmond", Region: "Noord-Holland", Latitude: 52.465, Longitude: 4.518, Elevation: 0.0},
	{ID: "210", Name: "Valkenburg", Region: "Zuid-Holland", Latitude: 52.171, Longitude: 4.430, Elevation: -0.2},
	{ID: "215", Name: "Voorschoten", Region: "Zuid-Holland", Latitude: 52.141, Longitude: 4.437, Elevation: -1.1},
	{ID: "225", Name: "IJmuiden", Region: "Noord-Holland", Latitude: 52.463, Longitude: 4.555, Elevation: 4.4},
	{ID: "235", Name: "De Kooy", Region: "Noord-Holland", Latitude: 52.928, Longitude: 4.781, Elevation: 1.2},
	{ID: "240", Name: "Schiphol", Region: "Noord-Holland", Latitude: 52.318, Longitude: 4.790, Elevation: -3.3},
	{ID: "242", Name: "Vlieland", Region: "Friesland", Latitude: 53.241, Longitude: 4.921, Elevation: 10.8},
	{ID: "248", Name: "Wijdenes", Region: "Noord-Holland", Latitude: 52.634, Longitude: 5.174, Elevation: 0.8},
	{ID: "249", Name: "Berkhout", Region: "Noord-Holland", Latitude: 52.644, Longitude: 4.979, Elevation: -2.4},
	{ID: "251", Name: "Hoorn Terschelling", Region: "Friesland", Latitude: 53.392, Longitude: 5.346, Elevation: 0.7},
	{ID: "257", Name: "Wijk aan Zee", Region: "Noord-Holland", Latitude: 52.506, Longitude: 4.603, Elevation: 8.5},
	{ID: "258", Name: "Houtribdijk", Region: "Flevoland", Latitude: 52.649, Longitude: 5.401, Elevation: 7.3},
	{ID: "260", Name: "De Bilt", Region: "Utrecht", Latitude: 52.100, Longitude: 5.180, Elevation: 1.9},
	{ID: "265", Name: "Soesterberg", Region: "Utrecht", Latitude: 52.130, Longitude: 5.274, Elevation: 13.9},
	{ID: "267", Name: "Stavoren", Region: "Friesland", Latitude: 52.898, Longitude: 5.384, Elevation: -1.3},
	{ID: "269", Name: "Lelystad", Region: "Flevoland", Latitude: 52.458, Longitude: 5.520, Elevation: -3.7},
	{ID: "270", Name: "Leeuwarden", Region: "Friesland", Latitude: 53.224, Longitude: 5.752, Elevation: 1.2},
	{ID: "273", Name: "Marknesse", Region: "Flevoland", Latitude: 52.703, Longitude: 5.888, Elevation: -3.3},
	{ID: "275", Name: "Deelen", Region: "Gelderland", Latitude: 52.056, Longitude: 5.873, Elevation: 48.2},
	{ID: "277", Name: "Lauwersoog", Region: "Groningen", Latitude: 53.413, Longitude: 6.200, Elevation: 2.9},
	{ID: "278", Name: "Heino", Region: "Overijssel", Latitude: 52.435, Longitude: 6.259, Elevation: 3.6},
	{ID: "279", Name: "Hoogeveen", Region: "Drenthe", Latitude: 52.750, Longitude: 6.574, Elevation: 15.8},
	{ID: "280", Name: "Eelde", Region: "Drenthe", Latitude: 53.125, Longitude: 6.585, Elevation: 5.2},
	{ID: "283", Name: "Hupsel", Region: "Gelderland", Latitude: 52.069, Longitude: 6.657, Elevation: 29.1},
	{ID: "286", Name: "Nieuw Beerta", Region: "Groningen", Latitude: 53.196, Longitude: 7.150, Elevation: -0.2},
	{ID: "290", Name: "Twenthe", Region: "Overijssel", Latitude: 52.274, Longitude: 6.891, Elevation: 34.8},
	{ID: "308", Name: "Cadzand", Region: "Zeeland", Latitude: 51.381, Longitude: 3.379, Elevation: 0.0},
	{ID: "310", Name: "Vlissingen", Region: "Zeeland", Latitude: 51.442, Longitude: 3.596, Elevation: 8.0},
	{ID: "315", Name: "Hansweert", Region: "Zeeland", Latitude: 51.447, Longitude: 3.998, Elevation: 0.0},
	{ID: "319", Name: "Westdorpe", Region: "Zeeland", Latitude: 51.226, Longitude: 3.861, Elevation: 1.7},
	{ID: "323", Name: "Wilhelminadorp", Region: "Zeeland", Latitude: 51.527, Longitude: 3.884, Elevation: 1.4},
	{ID: "330", Name: "Hoek van Holland", Region: "Zuid-Holland", Latitude: 51.992, Longitude: 4.122, Elevation: 11.9},
	{ID: "340", Name: "Woensdrecht", Region: "Noord-Brabant", Latitude: 51.449, Longitude: 4.342, Elevation: 19.2},
	{ID: "344", Name: "Rotterdam", Region: "Zuid-Holland", Latitude: 51.962, Longitude: 4.447, Elevation: -4.3},
	{ID: "348", Name: "Cabauw", Region: "Utrecht", Latitude: 51.970, Longitude: 4.926, Elevation: -0.7},
	{ID: "350", Name: "Gilze-Rijen", Region: "Noord-Brabant", Latitude: 51.566, Longitude: 4.936, Elevation: 14.9},
	{ID: "356", Name: "Herwijnen", Region: "Gelderland", Latitude: 51.859, Longitude: 5.146, Elevation: 0.7},
	{ID: "370", Name: "Eindhoven", Region: "Noord-Brabant", Latitude: 51.451, Longitude: 5.377, Elevation: 22.6},
	{ID: "375", Name: "Volkel", Region: "Noord-Brabant", Latitude: 51.659, Longitude: 5.707, Elevation: 22.0},
	{ID: "377", Name: "Ell", Region: "Limburg", Latitude: 51.198, Longitude: 5.763, Elevation: 30.0},
	{ID: "380", Name: "Maastricht", Region: "Limburg", Latitude: 50.906, Longitude: 5.762, Elevation: 114.3},
	{ID: "391", Name: "Arcen", Region: "Limburg", Latitude: 51.498, Longitude: 6.197, Elevation: 19.5},
}
