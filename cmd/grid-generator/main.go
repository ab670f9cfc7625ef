package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/forecast-api/internal/domain"
)

const fillValue = float32(-9999)

// DomainGrid defines the geographic bounds, resolution and time axis of a domain
type DomainGrid struct {
	Name       string
	LatMin     float64
	LatMax     float64
	LonMin     float64
	LonMax     float64
	Resolution float64 // degrees
	Dt         time.Duration
	Hours      int
	Variables  []string
}

func main() {
	// Command line flags
	outDir := flag.String("out", "./data", "Output directory for domain NetCDF files and domains.csv")
	model := flag.String("model", "demo", "Model name written to domains.csv")
	startStr := flag.String("start", "", "First forecast step (RFC3339, default: today 00:00 UTC)")
	globalHours := flag.Int("global-hours", 240, "Forecast length of the global domain in hours")
	regionalHours := flag.Int("regional-hours", 72, "Forecast length of the regional domain in hours")
	peakLat := flag.Float64("peak-lat", 46.5, "Latitude of the synthetic mountain")
	peakLon := flag.Float64("peak-lon", 8.5, "Longitude of the synthetic mountain")

	flag.Parse()

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if *startStr != "" {
		t, err := time.Parse(time.RFC3339, *startStr)
		if err != nil {
			log.Fatalf("Invalid start time: %v", err)
		}
		start = t.UTC()
	}

	// Coarse global-style domain first; the regional nest overrides it.
	grids := []DomainGrid{
		{
			Name:       "global",
			LatMin:     36.0,
			LatMax:     56.0,
			LonMin:     -4.0,
			LonMax:     20.0,
			Resolution: 1.0,
			Dt:         3 * time.Hour,
			Hours:      *globalHours,
			Variables:  []string{"temperature_2m", "precipitation", "snow_depth", "wave_height", "wave_direction"},
		},
		{
			Name:       "regional",
			LatMin:     44.0,
			LatMax:     49.0,
			LonMin:     5.0,
			LonMax:     12.0,
			Resolution: 0.1,
			Dt:         time.Hour,
			Hours:      *regionalHours,
			Variables:  []string{"temperature_2m", "precipitation", "snow_depth"},
		},
	}

	log.Printf("Generating model %s starting %s", *model, start.Format(time.RFC3339))

	for _, g := range grids {
		dir := filepath.Join(*outDir, g.Name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}

		if err := generateDomain(g, dir, start, *peakLat, *peakLon); err != nil {
			log.Fatalf("Failed to generate domain %s: %v", g.Name, err)
		}

		nLat, nLon := g.size()
		log.Printf("✓ Generated %s: %d × %d points, %d variables, %dh every %s",
			g.Name, nLat, nLon, len(g.Variables), g.Hours, g.Dt)
	}

	catalogPath := filepath.Join(*outDir, "domains.csv")
	if err := writeCatalog(catalogPath, *model, grids); err != nil {
		log.Fatalf("Failed to write catalog: %v", err)
	}

	// Print summary
	log.Printf("\n=== Generation Complete ===")
	log.Printf("Files created in: %s", *outDir)
	log.Printf("Catalog: %s", catalogPath)
}

func (g DomainGrid) size() (int, int) {
	nLat := int(math.Round((g.LatMax-g.LatMin)/g.Resolution)) + 1
	nLon := int(math.Round((g.LonMax-g.LonMin)/g.Resolution)) + 1
	return nLat, nLon
}

func (g DomainGrid) axes() ([]float64, []float64) {
	nLat, nLon := g.size()
	lat := make([]float64, nLat)
	for i := range lat {
		lat[i] = g.LatMin + float64(i)*g.Resolution
	}
	lon := make([]float64, nLon)
	for i := range lon {
		lon[i] = g.LonMin + float64(i)*g.Resolution
	}
	return lat, lon
}

// terrain returns a mountain around the peak with sea west of 0°E and south of 43°N.
func terrain(lat, lon, peakLat, peakLon float64) float32 {
	if lon < 0 || lat < 43 {
		return fillValue
	}
	dLat := lat - peakLat
	dLon := (lon - peakLon) * math.Cos(peakLat*math.Pi/180)
	dist := math.Sqrt(dLat*dLat + dLon*dLon)
	return float32(200 + 3500*math.Exp(-dist*dist/2))
}

// generateDomain writes elevation.nc and one file per variable
func generateDomain(g DomainGrid, dir string, start time.Time, peakLat, peakLon float64) error {
	lat, lon := g.axes()
	nLat, nLon := len(lat), len(lon)

	elevation := make([]float32, nLat*nLon)
	for i := range lat {
		for j := range lon {
			elevation[i*nLon+j] = terrain(lat[i], lon[j], peakLat, peakLon)
		}
	}
	if err := writeElevation(filepath.Join(dir, "elevation.nc"), lat, lon, elevation); err != nil {
		return err
	}

	nTime := g.Hours*int(time.Hour)/int(g.Dt) + 1
	times := make([]float64, nTime)
	for k := range times {
		times[k] = float64(start.Add(time.Duration(k) * g.Dt).Unix())
	}

	for _, name := range g.Variables {
		v, ok := domain.LookupVariable(name)
		if !ok {
			return fmt.Errorf("unknown variable %s", name)
		}

		data := make([]float32, nTime*nLat*nLon)
		for k := 0; k < nTime; k++ {
			hours := float64(k) * g.Dt.Hours()
			for i := range lat {
				for j := range lon {
					elev := elevation[i*nLon+j]
					data[(k*nLat+i)*nLon+j] = sample(v.Name, hours, lat[i], lon[j], elev)
				}
			}
		}

		path := filepath.Join(dir, v.Name+".nc")
		if err := writeVariable(path, v, times, lat, lon, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", v.Name, err)
		}
	}
	return nil
}

// sample produces a smooth synthetic value. Land-only and sea-only variables
// are filled where they do not apply.
func sample(name string, hours, lat, lon float64, elevation float32) float32 {
	sea := elevation == fillValue
	h := 0.0
	if !sea {
		h = float64(elevation)
	}
	diurnal := math.Sin((hours - 9) * math.Pi / 12)

	switch name {
	case "temperature_2m":
		return float32(28 - 0.5*(lat-36) - 0.0065*h + 4*diurnal)
	case "precipitation":
		return float32(math.Max(0, 2*math.Sin(hours*math.Pi/30+lon/5)))
	case "snow_depth":
		if sea {
			return fillValue
		}
		// Accumulates above 1500 m.
		return float32(math.Max(0, (h-1500)/1000) * (1 + hours/240))
	case "wave_height":
		if !sea {
			return fillValue
		}
		return float32(1.5 + math.Sin(hours*math.Pi/24+lat/10))
	case "wave_direction":
		if !sea {
			return fillValue
		}
		return float32(math.Mod(270+hours*5, 360))
	default:
		return 0
	}
}

// writeElevation writes the cell elevations of a domain
func writeElevation(path string, lat, lon []float64, elevation []float32) error {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer ds.Close()

	latDim, lonDim, latVar, lonVar, err := addAxes(ds, lat, lon)
	if err != nil {
		return err
	}

	elevVar, err := ds.AddVar("elevation", netcdf.FLOAT, []netcdf.Dim{latDim, lonDim})
	if err != nil {
		return err
	}
	if err := elevVar.Attr("_FillValue").WriteFloat32s([]float32{fillValue}); err != nil {
		return err
	}
	if err := elevVar.Attr("units").WriteBytes([]byte("metre")); err != nil {
		return err
	}

	if err := ds.EndDef(); err != nil {
		return err
	}
	if err := latVar.WriteFloat64s(lat); err != nil {
		return err
	}
	if err := lonVar.WriteFloat64s(lon); err != nil {
		return err
	}
	return elevVar.WriteFloat32s(elevation)
}

// writeVariable writes data[time,lat,lon] of one variable
func writeVariable(path string, v domain.Variable, times, lat, lon []float64, data []float32) error {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer ds.Close()

	timeDim, err := ds.AddDim("time", uint64(len(times)))
	if err != nil {
		return err
	}
	timeVar, err := ds.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	if err != nil {
		return err
	}
	if err := timeVar.Attr("units").WriteBytes([]byte("seconds since 1970-01-01 00:00:00")); err != nil {
		return err
	}

	latDim, lonDim, latVar, lonVar, err := addAxes(ds, lat, lon)
	if err != nil {
		return err
	}

	dataVar, err := ds.AddVar(v.Name, netcdf.FLOAT, []netcdf.Dim{timeDim, latDim, lonDim})
	if err != nil {
		return err
	}
	if err := dataVar.Attr("_FillValue").WriteFloat32s([]float32{fillValue}); err != nil {
		return err
	}
	if err := dataVar.Attr("units").WriteBytes([]byte(v.Unit.String())); err != nil {
		return err
	}

	if err := ds.EndDef(); err != nil {
		return err
	}
	if err := timeVar.WriteFloat64s(times); err != nil {
		return err
	}
	if err := latVar.WriteFloat64s(lat); err != nil {
		return err
	}
	if err := lonVar.WriteFloat64s(lon); err != nil {
		return err
	}
	return dataVar.WriteFloat32s(data)
}

func addAxes(ds netcdf.Dataset, lat, lon []float64) (netcdf.Dim, netcdf.Dim, netcdf.Var, netcdf.Var, error) {
	var (
		latDim, lonDim netcdf.Dim
		latVar, lonVar netcdf.Var
		err            error
	)
	if latDim, err = ds.AddDim("lat", uint64(len(lat))); err != nil {
		return latDim, lonDim, latVar, lonVar, err
	}
	if lonDim, err = ds.AddDim("lon", uint64(len(lon))); err != nil {
		return latDim, lonDim, latVar, lonVar, err
	}
	if latVar, err = ds.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim}); err != nil {
		return latDim, lonDim, latVar, lonVar, err
	}
	lonVar, err = ds.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	return latDim, lonDim, latVar, lonVar, err
}

// writeCatalog writes domains.csv, coarse domains first
func writeCatalog(path, model string, grids []DomainGrid) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"model", "domain", "priority", "dt_seconds", "directory"}); err != nil {
		return err
	}
	for i, g := range grids {
		record := []string{
			model,
			g.Name,
			strconv.Itoa(i),
			strconv.Itoa(int(g.Dt / time.Second)),
			g.Name,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
