package heat

import (
	"math"
	"math/rand/v2"
)

// Default analysis area: Bhubaneswar.
const (
	DefaultCenterLat = 20.2961
	DefaultCenterLon = 85.8245
	DefaultSpread    = 0.08
)

// GenerateOptions controls synthetic dataset generation.
type GenerateOptions struct {
	Points    int
	CenterLat float64
	CenterLon float64
	Spread    float64 // degrees either side of the center
	Seed      uint64  // zero draws a random seed
}

// Generate produces a synthetic UHI dataset. Temperatures are drawn
// uniformly, NDVI is inversely related to temperature, zones follow the LST
// thresholds and UHI intensity is each point's deviation from the mean LST.
func Generate(opts GenerateOptions) *Dataset {
	if opts.Points <= 0 {
		return NewDataset(nil)
	}
	if opts.CenterLat == 0 && opts.CenterLon == 0 {
		opts.CenterLat, opts.CenterLon = DefaultCenterLat, DefaultCenterLon
	}
	if opts.Spread <= 0 {
		opts.Spread = DefaultSpread
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	uniform := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }

	points := make([]Point, 0, opts.Points)
	var sum float64
	for range opts.Points {
		lat := opts.CenterLat + uniform(-opts.Spread, opts.Spread)
		lon := opts.CenterLon + uniform(-opts.Spread, opts.Spread)

		lst := round(uniform(28, 45), 2)
		ndvi := round(uniform(0.1, 0.8)*(1-(lst-28)/20), 3)
		ndvi = math.Max(0.05, math.Min(0.85, ndvi))

		zone := ClassifyZone(lst)
		points = append(points, Point{
			Lon:            lon,
			Lat:            lat,
			LST:            lst,
			NDVI:           ndvi,
			Zone:           zone,
			Vegetation:     ClassifyVegetation(ndvi),
			Color:          ZoneColor(zone),
			Severity:       Severity(zone),
			Recommendation: Recommend(zone, ndvi),
		})
		sum += lst
	}

	mean := sum / float64(len(points))
	for i := range points {
		points[i].UHIIntensity = round(points[i].LST-mean, 2)
	}
	return &Dataset{points: points}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
