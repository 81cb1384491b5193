package scenario

import (
	"path/filepath"
	"strings"
)

// Paths derives every artifact location for scenario Name inside Dir.
// Methods without the Rel prefix return paths joined with Dir; tools run
// with Dir as working directory and get the bare names.
type Paths struct {
	Dir  string
	Name string
}

// NewPaths returns the artifact layout for name under dir.
func NewPaths(dir, name string) Paths {
	return Paths{Dir: dir, Name: name}
}

// Rel is the bare artifact name for suffix, e.g. Rel(".net.xml").
func (p Paths) Rel(suffix string) string { return p.Name + suffix }

func (p Paths) join(name string) string { return filepath.Join(p.Dir, name) }

func (p Paths) OSM() string        { return p.join(p.Rel(".osm")) }
func (p Paths) OSMXML() string     { return p.join(p.Rel(".osm.xml")) }
func (p Paths) BBox() string       { return p.join(p.Rel("_bbox.osm.xml")) }
func (p Paths) BBoxGlob() string   { return p.join(p.Rel("*_bbox.osm.xml")) }
func (p Paths) Net() string        { return p.join(p.Rel(".net.xml")) }
func (p Paths) Poly() string       { return p.join(p.Rel(".poly.xml")) }
func (p Paths) Trips() string      { return p.join(p.Rel(".trip.xml")) }
func (p Paths) Routes() string     { return p.join(p.Rel(".rou.xml")) }
func (p Paths) RoutesAlt() string  { return p.join(p.Rel(".rou.alt.xml")) }
func (p Paths) Launch() string     { return p.join(p.Rel(".launchd.xml")) }
func (p Paths) SumoConfig() string { return p.join(p.Rel(".sumo.cfg")) }
func (p Paths) Ini() string        { return p.join(p.Rel(".omnetpp.ini")) }
func (p Paths) LogDir() string     { return p.join(p.Rel("-logs")) }

// OwnsDownload reports whether a BBoxGlob match belongs to this scenario
// rather than to one whose name merely starts with Name, e.g. city2 for city.
func (p Paths) OwnsDownload(path string) bool {
	rest, ok := strings.CutPrefix(filepath.Base(path), p.Name)
	return ok && strings.HasPrefix(rest, "_")
}

// EdgeChart is the usage bar chart location inside the log directory.
func (p Paths) EdgeChart() string {
	return filepath.Join(p.LogDir(), p.Name+"_edge_usage.png")
}

// Temporaries lists the intermediate files Cleanup removes.
func (p Paths) Temporaries() []string {
	return []string{p.join("routes.rou.xml"), p.RoutesAlt(), p.Trips()}
}
