// Package recommend suggests nearby parcels worth a look.
package recommend

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
)

var (
	offsets = [4][2]float64{{0.008, 0.005}, {-0.006, 0.009}, {0.012, -0.004}, {-0.010, -0.007}}
	names   = [4]string{"Riverside Agricultural Plot", "Hilltop Farmstead", "Valley View Parcel", "Sunrise Meadow Tract"}
)

const milesPerDegree = 69

// Recommender draws parcel attributes from its random source. Safe for concurrent use.
type Recommender struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New uses rnd, or a time-seeded source when rnd is nil.
func New(rnd *rand.Rand) *Recommender {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Recommender{rnd: rnd}
}

// Near returns four rectangular parcels around the point.
func (r *Recommender) Near(lat, lng float64) wire.FeatureCollection {
	r.mu.Lock()
	defer r.mu.Unlock()

	fc := wire.FeatureCollection{Type: "FeatureCollection", Features: make([]wire.Feature, 0, len(offsets))}
	for i, off := range offsets {
		dlat, dlng := off[0], off[1]
		plat := lat + dlat + r.uniform(-0.001, 0.001)
		plng := lng + dlng + r.uniform(-0.001, 0.001)
		yield := 82 + r.rnd.Intn(17)
		soil := 78 + r.rnd.Intn(19)
		size := round1(r.uniform(5, 45))

		spread := 0.002 + r.uniform(0, 0.001)
		h := spread * 0.7
		ring := [][2]float64{
			{plng - spread, plat - h},
			{plng + spread, plat - h},
			{plng + spread, plat + h},
			{plng - spread, plat + h},
			{plng - spread, plat - h},
		}

		fc.Features = append(fc.Features, wire.Feature{
			Type:     "Feature",
			Geometry: wire.Geometry{Type: "Polygon", Coordinates: [][][2]float64{ring}},
			Properties: wire.ParcelProperties{
				Name:           names[i],
				ProjectedYield: yield,
				SoilMatchScore: soil,
				Acreage:        size,
				DistanceMiles:  round1(math.Sqrt(dlat*dlat+dlng*dlng) * milesPerDegree),
			},
		})
	}
	return fc
}

func (r *Recommender) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*r.rnd.Float64()
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
