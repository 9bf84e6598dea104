package maprender

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "patrimonio/pkg/domain"
)

// San Pedro de Atacama, roughly.
var sitePos = s2.LatLngFromDegrees(-22.9087, -68.1997)

func TestDisplace(t *testing.T) {
	t.Run("stays within the generation radius", func(t *testing.T) {
		gen := NewGenerator(FuzzyRadiusMeters, rand.NewSource(1))
		for i := 0; i < 1000; i++ {
			displaced := gen.Displace(sitePos)
			d := DistanceMeters(sitePos, displaced)
			require.LessOrEqual(t, d, FuzzyRadiusMeters+1e-6, "iteration %d moved %.2f m", i, d)
		}
	})

	t.Run("deterministic for a fixed source", func(t *testing.T) {
		a := NewGenerator(FuzzyRadiusMeters, rand.NewSource(42)).Displace(sitePos)
		b := NewGenerator(FuzzyRadiusMeters, rand.NewSource(42)).Displace(sitePos)
		assert.Equal(t, a, b)
	})

	t.Run("actually moves the point", func(t *testing.T) {
		gen := NewGenerator(FuzzyRadiusMeters, rand.NewSource(7))
		moved := 0
		for i := 0; i < 100; i++ {
			if DistanceMeters(sitePos, gen.Displace(sitePos)) > 1 {
				moved++
			}
		}
		// A uniform distance draw lands within 1 m of the center almost never.
		assert.Greater(t, moved, 95)
	})
}

func TestDistanceMeters(t *testing.T) {
	t.Run("zero for identical points", func(t *testing.T) {
		assert.Zero(t, DistanceMeters(sitePos, sitePos))
	})

	t.Run("roughly matches a known displacement", func(t *testing.T) {
		// One degree of latitude is ~111 km under the spherical model.
		north := s2.LatLngFromDegrees(-21.9087, -68.1997)
		d := DistanceMeters(sitePos, north)
		assert.InDelta(t, 111195, d, 100)
	})
}

func TestInMemoryOffsetCache(t *testing.T) {
	ctx := context.Background()
	session := id.NewSessionID()
	report := id.NewReportID()

	t.Run("memoizes per session and site", func(t *testing.T) {
		cache := NewInMemoryOffsetCache()
		gen := NewGenerator(FuzzyRadiusMeters, rand.NewSource(3))

		first, err := cache.GetOrCreate(ctx, session, report, func() s2.LatLng { return gen.Displace(sitePos) })
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			again, err := cache.GetOrCreate(ctx, session, report, func() s2.LatLng { return gen.Displace(sitePos) })
			require.NoError(t, err)
			assert.Equal(t, first, again, "offset jittered between renders")
		}
	})

	t.Run("different sessions get independent offsets", func(t *testing.T) {
		cache := NewInMemoryOffsetCache()
		gen := NewGenerator(FuzzyRadiusMeters, rand.NewSource(3))
		create := func() s2.LatLng { return gen.Displace(sitePos) }

		a, err := cache.GetOrCreate(ctx, id.NewSessionID(), report, create)
		require.NoError(t, err)
		b, err := cache.GetOrCreate(ctx, id.NewSessionID(), report, create)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("concurrent readers settle on one offset", func(t *testing.T) {
		cache := NewInMemoryOffsetCache()
		gen := NewGenerator(FuzzyRadiusMeters, rand.NewSource(9))
		create := func() s2.LatLng { return gen.Displace(sitePos) }

		results := make([]s2.LatLng, 32)
		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p, err := cache.GetOrCreate(ctx, session, report, create)
				assert.NoError(t, err)
				results[i] = p
			}(i)
		}
		wg.Wait()

		for _, p := range results[1:] {
			assert.Equal(t, results[0], p)
		}
	})
}
