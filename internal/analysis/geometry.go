package analysis

import (
	"math"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

const (
	earthRadiusM = 6371000.0
	sqmPerAcre   = 4046.86
)

// Ring converts [lng, lat] pairs into a closed ring. It fails with
// ErrTooFewPoints below three vertices and ErrInvalidPolygon on malformed pairs.
func Ring(coords [][]float64) ([][2]float64, error) {
	if len(coords) < 3 {
		return nil, ErrTooFewPoints
	}
	ring := make([][2]float64, 0, len(coords)+1)
	for _, c := range coords {
		if len(c) < 2 || math.IsNaN(c[0]) || math.IsNaN(c[1]) || math.Abs(c[0]) > 180 || math.Abs(c[1]) > 90 {
			return nil, ErrInvalidPolygon
		}
		ring = append(ring, [2]float64{c[0], c[1]})
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	if len(ring) < 4 {
		return nil, ErrTooFewPoints
	}
	return ring, nil
}

// RingAreaAcres is the spherical area of a closed ring, rounded to 0.01 acre.
func RingAreaAcres(ring [][2]float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	area := 0.0
	for i := 0; i < len(ring)-1; i++ {
		lng1, lat1 := ring[i][0], ring[i][1]
		lng2, lat2 := ring[i+1][0], ring[i+1][1]
		area += toRad(lng2-lng1) * (2 + math.Sin(toRad(lat1)) + math.Sin(toRad(lat2)))
	}
	area = math.Abs(area * earthRadiusM * earthRadiusM / 2)
	return roundHalfUp(area/sqmPerAcre*100) / 100
}

// VertexCentroid is the mean of the distinct vertices.
func VertexCentroid(ring [][2]float64) entities.Coordinates {
	pts := openRing(ring)
	var c entities.Coordinates
	for _, p := range pts {
		c.Lng += p[0]
		c.Lat += p[1]
	}
	n := float64(len(pts))
	return entities.Coordinates{Lat: c.Lat / n, Lng: c.Lng / n}
}

// AreaCentroid is the planar area-weighted centroid of a closed ring, rounded
// to six decimals. A ring enclosing no area is an invalid polygon.
func AreaCentroid(ring [][2]float64) (entities.Coordinates, error) {
	var a, cx, cy float64
	for i := 0; i < len(ring)-1; i++ {
		x0, y0 := ring[i][0], ring[i][1]
		x1, y1 := ring[i+1][0], ring[i+1][1]
		cross := x0*y1 - x1*y0
		a += cross
		cx += (x0 + x1) * cross
		cy += (y0 + y1) * cross
	}
	if math.Abs(a) < 1e-15 {
		return entities.Coordinates{}, ErrInvalidPolygon
	}
	a /= 2
	round6 := func(x float64) float64 { return math.Round(x*1e6) / 1e6 }
	return entities.Coordinates{Lat: round6(cy / (6 * a)), Lng: round6(cx / (6 * a))}, nil
}

func openRing(ring [][2]float64) [][2]float64 {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		return ring[:n-1]
	}
	return ring
}
