package maprender

import (
	"math"
	"math/rand"
	"sync"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371000.0

// Generator produces randomized offset coordinates for fuzzy-area display.
// The random source is injectable so tests can pin it; production uses a
// time-seeded source. Generation must go through an OffsetCache so a given
// (session, site) pair always resolves to the same displaced point -
// recomputing per render would let a viewer triangulate the true position by
// sampling fuzzy positions over time.
type Generator struct {
	mu           sync.Mutex
	rnd          *rand.Rand
	radiusMeters float64
}

// NewGenerator builds a generator with the given disc radius and source.
func NewGenerator(radiusMeters float64, src rand.Source) *Generator {
	return &Generator{
		rnd:          rand.New(src),
		radiusMeters: radiusMeters,
	}
}

// Displace picks a uniformly random bearing and a uniformly random distance
// in [0, radius] and projects the true position to an offset coordinate
// using an equirectangular approximation (longitude scaled by cos(lat)).
func (g *Generator) Displace(p s2.LatLng) s2.LatLng {
	g.mu.Lock()
	bearing := g.rnd.Float64() * 2 * math.Pi
	distance := g.rnd.Float64() * g.radiusMeters
	g.mu.Unlock()

	north := distance * math.Cos(bearing)
	east := distance * math.Sin(bearing)

	lat := p.Lat.Radians() + north/earthRadiusMeters
	lng := p.Lng.Radians() + east/(earthRadiusMeters*math.Cos(p.Lat.Radians()))

	return s2.LatLng{Lat: s1.Angle(lat), Lng: s1.Angle(lng)}
}

// DistanceMeters computes the distance between two coordinates with the same
// equirectangular approximation used to generate offsets, so a displaced
// point always measures within the generation radius.
func DistanceMeters(a, b s2.LatLng) float64 {
	meanLat := (a.Lat.Radians() + b.Lat.Radians()) / 2
	dLat := b.Lat.Radians() - a.Lat.Radians()
	dLng := (b.Lng.Radians() - a.Lng.Radians()) * math.Cos(meanLat)
	return earthRadiusMeters * math.Sqrt(dLat*dLat+dLng*dLng)
}
