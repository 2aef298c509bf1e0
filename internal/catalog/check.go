package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

// Phase is the outcome of one validation step.
type Phase struct {
	Name    string
	Records int
	Errors  []string
}

func (p *Phase) errorf(format string, args ...any) {
	p.Errors = append(p.Errors, fmt.Sprintf(format, args...))
}

// Passed reports whether the phase found no problems.
func (p Phase) Passed() bool { return len(p.Errors) == 0 }

// CheckDir validates the catalogs in dir the same way Load would, but keeps
// going after the first problem so every issue is reported. An empty dir
// checks the embedded catalogs.
func CheckDir(dir string) []Phase {
	if dir == "" {
		return CheckFS(embeddedFS())
	}
	return CheckFS(overlayFS{primary: os.DirFS(dir), fallback: embeddedFS()})
}

// CheckFS runs one phase per catalog file followed by an end-to-end phase
// that builds an engine and assesses every named site.
func CheckFS(fsys fs.FS) []Phase {
	var vf volcanoFile
	var bf boundaryFile
	var pf plateFile
	var sf siteFile

	phases := []Phase{
		checkFile(fsys, VolcanoFile, &vf, func() int { return len(vf.Volcanoes) }),
		checkFile(fsys, BoundaryFile, &bf, func() int { return len(bf.Boundaries) }),
		checkFile(fsys, PlateFile, &pf, func() int { return len(pf.Plates) }),
		checkFile(fsys, SiteFile, &sf, func() int { return len(sf.Sites) }),
	}

	boundaries := &phases[1]
	for _, b := range bf.Boundaries {
		if b.Start == b.End {
			boundaries.errorf("segment %q has identical endpoints", b.Name)
		}
	}

	phases = append(phases, checkEngine(fsys))
	return phases
}

func checkFile(fsys fs.FS, name string, out any, count func() int) Phase {
	p := Phase{Name: name}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		p.errorf("read: %v", err)
		return p
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		p.errorf("parse: %v", err)
		return p
	}
	p.Records = count()

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			p.errorf("validate: %v", err)
			return p
		}
		for _, fe := range verrs {
			p.errorf("%s: value %v fails %q", fe.Namespace(), fe.Value(), fe.Tag())
		}
	}
	return p
}

func checkEngine(fsys fs.FS) Phase {
	p := Phase{Name: "site assessments"}
	c, err := LoadFS(fsys)
	if err != nil {
		p.errorf("load: %v", err)
		return p
	}
	e, err := domain.NewEngine(c)
	if err != nil {
		p.errorf("engine: %v", err)
		return p
	}
	for _, s := range c.Sites {
		if _, err := e.Assess(domain.AssessmentRequest{Location: s.Location}); err != nil {
			p.errorf("assess %s: %v", s.Name, err)
			continue
		}
		p.Records++
	}
	return p
}
