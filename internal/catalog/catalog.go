// Package catalog loads the reference volcano, plate boundary, plate and site
// catalogs from YAML. The default catalogs are embedded in the binary; a
// directory holding files with the same names overrides them file by file.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

// Catalog file names, shared by the embedded data and override directories.
const (
	VolcanoFile  = "volcanoes.yaml"
	BoundaryFile = "boundaries.yaml"
	PlateFile    = "plates.yaml"
	SiteFile     = "sites.yaml"
)

//go:embed data/*.yaml
var embedded embed.FS

var validate = validator.New()

type pointRecord struct {
	Lat float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `yaml:"lon" validate:"gte=-180,lte=180"`
}

func (p pointRecord) point() domain.Point {
	return domain.Point{Lat: p.Lat, Lon: p.Lon}
}

type volcanoRecord struct {
	ID           string  `yaml:"id" validate:"required"`
	Name         string  `yaml:"name" validate:"required"`
	Lat          float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Lon          float64 `yaml:"lon" validate:"gte=-180,lte=180"`
	ElevationM   float64 `yaml:"elevation_m"`
	VEI          int     `yaml:"vei" validate:"gte=0,lte=8"`
	LastEruption int     `yaml:"last_eruption"`
	Status       string  `yaml:"status" validate:"required,oneof=active dormant extinct"`
}

type boundaryRecord struct {
	Name         string      `yaml:"name" validate:"required"`
	System       string      `yaml:"system"`
	Type         string      `yaml:"type" validate:"required,oneof=convergent transform divergent"`
	PlatePair    string      `yaml:"plate_pair"`
	MovementRate float64     `yaml:"movement_rate_cm_yr" validate:"gte=0"`
	Activity     float64     `yaml:"activity" validate:"gte=0,lte=1"`
	Start        pointRecord `yaml:"start"`
	End          pointRecord `yaml:"end"`
}

type plateRecord struct {
	Name        string      `yaml:"name" validate:"required"`
	Center      pointRecord `yaml:"center"`
	Velocity    pointRecord `yaml:"velocity"`
	ThicknessKm float64     `yaml:"thickness_km" validate:"gte=0"`
	Density     float64     `yaml:"density" validate:"gte=0"`
}

type siteRecord struct {
	Name string  `yaml:"name" validate:"required"`
	Lat  float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `yaml:"lon" validate:"gte=-180,lte=180"`
}

type volcanoFile struct {
	Volcanoes []volcanoRecord `yaml:"volcanoes" validate:"dive"`
}

type boundaryFile struct {
	Boundaries []boundaryRecord `yaml:"boundaries" validate:"dive"`
}

type plateFile struct {
	Plates []plateRecord `yaml:"plates" validate:"dive"`
}

type siteFile struct {
	Sites []siteRecord `yaml:"sites" validate:"dive"`
}

// Default loads the embedded catalogs.
func Default() (*domain.Catalog, error) {
	return LoadFS(embeddedFS())
}

// Load reads catalogs from dir, falling back to the embedded copy for any
// file the directory does not contain. An empty dir loads the defaults.
func Load(dir string) (*domain.Catalog, error) {
	if dir == "" {
		return Default()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog dir: %s is not a directory", dir)
	}
	return LoadFS(overlayFS{primary: os.DirFS(dir), fallback: embeddedFS()})
}

// LoadFS reads and validates all four catalog files from fsys.
func LoadFS(fsys fs.FS) (*domain.Catalog, error) {
	var vf volcanoFile
	if err := decode(fsys, VolcanoFile, &vf); err != nil {
		return nil, err
	}
	var bf boundaryFile
	if err := decode(fsys, BoundaryFile, &bf); err != nil {
		return nil, err
	}
	var pf plateFile
	if err := decode(fsys, PlateFile, &pf); err != nil {
		return nil, err
	}
	var sf siteFile
	if err := decode(fsys, SiteFile, &sf); err != nil {
		return nil, err
	}

	volcanoes := make([]domain.Volcano, 0, len(vf.Volcanoes))
	for _, r := range vf.Volcanoes {
		volcanoes = append(volcanoes, domain.Volcano{
			ID:           r.ID,
			Name:         r.Name,
			Location:     domain.Point{Lat: r.Lat, Lon: r.Lon},
			VEI:          r.VEI,
			LastEruption: r.LastEruption,
			Status:       domain.VolcanoStatus(r.Status),
			ElevationM:   r.ElevationM,
		})
	}

	boundaries := make([]domain.BoundarySegment, 0, len(bf.Boundaries))
	for _, r := range bf.Boundaries {
		boundaries = append(boundaries, domain.BoundarySegment{
			Name:         r.Name,
			System:       r.System,
			Type:         domain.BoundaryType(r.Type),
			Start:        r.Start.point(),
			End:          r.End.point(),
			MovementRate: r.MovementRate,
			PlatePair:    r.PlatePair,
			Activity:     r.Activity,
		})
	}

	plates := make([]domain.Plate, 0, len(pf.Plates))
	for _, r := range pf.Plates {
		plates = append(plates, domain.Plate{
			Name:        r.Name,
			Center:      r.Center.point(),
			Velocity:    domain.Velocity{Lat: r.Velocity.Lat, Lon: r.Velocity.Lon},
			ThicknessKm: r.ThicknessKm,
			Density:     r.Density,
		})
	}

	sites := make([]domain.Site, 0, len(sf.Sites))
	for _, r := range sf.Sites {
		sites = append(sites, domain.Site{Name: r.Name, Location: domain.Point{Lat: r.Lat, Lon: r.Lon}})
	}

	c, err := domain.NewCatalog(volcanoes, boundaries)
	if err != nil {
		return nil, err
	}
	if c, err = c.WithPlates(plates); err != nil {
		return nil, err
	}
	return c.WithSites(sites)
}

func decode(fsys fs.FS, name string, out any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("validate %s: %w: %w", name, domain.ErrInvalidRecord, err)
	}
	return nil
}

func embeddedFS() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// overlayFS serves files from primary and falls back to fallback when a file
// is missing.
type overlayFS struct {
	primary  fs.FS
	fallback fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return o.fallback.Open(name)
	}
	return f, err
}
