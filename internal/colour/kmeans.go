package colour

import (
	stdimage "image"
	"math"
	"math/rand"
)

// Metric weights for clustering in HSV space. Hue is mapped onto a circle
// of radius hueWeight so the straight-line distance between two hues is the
// chord length, which respects wraparound (hue 359 and hue 1 are close).
// Saturation and value use plain linear distance.
const (
	hueWeight = 2.0
	satWeight = 2.0
	valWeight = 1.0
)

// Cluster is a group of HSV samples with its centroid and population.
type Cluster struct {
	Centroid HSV
	Count    int
}

// HSVExtractor extracts a single dominant colour by k-means clustering in
// HSV space with a circular hue metric.
type HSVExtractor struct {
	opts Options
}

// NewHSVExtractor creates an HSVExtractor with the given options.
// Zero-valued fields fall back to the documented defaults.
func NewHSVExtractor(opts Options) *HSVExtractor {
	def := DefaultOptions()
	if opts.Clusters <= 0 {
		opts.Clusters = def.Clusters
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Sample == (SampleOptions{}) {
		opts.Sample = def.Sample
	}
	return &HSVExtractor{opts: opts}
}

// Dominant returns the representative colour of an image.
// ok is false when no usable pixels remain after filtering.
func (e *HSVExtractor) Dominant(img stdimage.Image) (RGB, bool) {
	samples := Samples(img, e.opts.Sample)
	return e.FromSamples(samples)
}

// FromSamples selects the dominant colour from an already filtered sample
// set. For a fixed sample sequence and seed the result is reproducible.
func (e *HSVExtractor) FromSamples(samples []HSV) (RGB, bool) {
	if len(samples) == 0 {
		return RGB{}, false
	}

	k := min(e.opts.Clusters, len(samples))
	clusters := e.kmeans(samples, k)

	best := 0
	bestScore := e.score(clusters[0])
	for i := 1; i < len(clusters); i++ {
		// Strict comparison: ties keep the earlier cluster.
		if s := e.score(clusters[i]); s > bestScore {
			best = i
			bestScore = s
		}
	}

	return clusters[best].Centroid.RGB(), true
}

// score ranks a candidate cluster. The default is plain population size;
// with SaturationScore enabled, saturated clusters are boosted so a vivid
// subject wins over a washed-out but slightly larger background region.
func (e *HSVExtractor) score(c Cluster) float64 {
	if e.opts.SaturationScore {
		return float64(c.Count) * (1 + c.Centroid.S)
	}
	return float64(c.Count)
}

// point is a sample in the weighted clustering space: hue unrolled onto a
// circle (x, y) plus scaled saturation and value.
type point struct {
	x, y, s, v float64
}

func toPoint(hsv HSV) point {
	rad := hsv.H * math.Pi / 180
	return point{
		x: hueWeight * math.Cos(rad),
		y: hueWeight * math.Sin(rad),
		s: satWeight * hsv.S,
		v: valWeight * hsv.V,
	}
}

// distance calculates the Euclidean distance between two points in the
// weighted space.
func (p point) distance(other point) float64 {
	dx := p.x - other.x
	dy := p.y - other.y
	ds := p.s - other.s
	dv := p.v - other.v
	return math.Sqrt(dx*dx + dy*dy + ds*ds + dv*dv)
}

// kmeans performs k-means clustering on the sample data.
// The random source is seeded from the options, so a fixed sample sequence
// always yields the same clusters.
func (e *HSVExtractor) kmeans(samples []HSV, k int) []Cluster {
	rng := rand.New(rand.NewSource(e.opts.Seed))

	points := make([]point, len(samples))
	for i, s := range samples {
		points[i] = toPoint(s)
	}

	// Initialize centroids using k-means++ seeding.
	centroids := initializeCentroidsKMeansPlusPlus(points, k, rng)

	// Track cluster assignments.
	assignments := make([]int, len(points))

	for iter := 0; iter < e.opts.MaxIterations; iter++ {
		// Assign each point to its nearest centroid.
		changed := 0
		for i, p := range points {
			nearest := findNearestCentroid(p, centroids)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed++
			}
		}

		// Assignments have stabilised.
		if changed == 0 {
			break
		}

		centroids = recalculateCentroids(points, assignments, k, rng)
	}

	// Build clusters with proper circular hue centroids from the final
	// assignments. The hue centroid is the circular mean of the member
	// hues; saturation and value are arithmetic means.
	sinSum := make([]float64, k)
	cosSum := make([]float64, k)
	satSum := make([]float64, k)
	valSum := make([]float64, k)
	counts := make([]int, k)

	for i, s := range samples {
		c := assignments[i]
		rad := s.H * math.Pi / 180
		sinSum[c] += math.Sin(rad)
		cosSum[c] += math.Cos(rad)
		satSum[c] += s.S
		valSum[c] += s.V
		counts[c]++
	}

	clusters := make([]Cluster, k)
	for i := 0; i < k; i++ {
		if counts[i] == 0 {
			continue
		}
		n := float64(counts[i])
		hue := math.Atan2(sinSum[i]/n, cosSum[i]/n) * 180 / math.Pi
		if hue < 0 {
			hue += 360
		}
		clusters[i] = Cluster{
			Centroid: HSV{H: hue, S: satSum[i] / n, V: valSum[i] / n},
			Count:    counts[i],
		}
	}

	return clusters
}

// initializeCentroidsKMeansPlusPlus initializes centroids using the
// k-means++ algorithm, which spreads the initial centroids across the
// sample distribution.
func initializeCentroidsKMeansPlusPlus(points []point, k int, rng *rand.Rand) []point {
	if len(points) == 0 || k == 0 {
		return []point{}
	}

	centroids := make([]point, 0, k)

	// Choose first centroid randomly.
	centroids = append(centroids, points[rng.Intn(len(points))])

	// Choose remaining centroids with probability proportional to the
	// squared distance from the nearest existing centroid.
	for len(centroids) < k {
		distances := make([]float64, len(points))
		totalDistance := 0.0

		for i, p := range points {
			minDist := math.MaxFloat64
			for _, c := range centroids {
				if d := p.distance(c); d < minDist {
					minDist = d
				}
			}
			distances[i] = minDist * minDist
			totalDistance += distances[i]
		}

		if totalDistance == 0 {
			// All remaining points coincide with existing centroids.
			centroids = append(centroids, centroids[len(centroids)-1])
			continue
		}

		target := rng.Float64() * totalDistance
		cumulative := 0.0
		for i, d := range distances {
			cumulative += d
			if cumulative >= target {
				centroids = append(centroids, points[i])
				break
			}
		}
	}

	return centroids
}

// findNearestCentroid finds the index of the nearest centroid to a point.
func findNearestCentroid(p point, centroids []point) int {
	minDist := math.MaxFloat64
	nearest := 0

	for i, centroid := range centroids {
		if d := p.distance(centroid); d < minDist {
			minDist = d
			nearest = i
		}
	}

	return nearest
}

// recalculateCentroids recalculates centroid positions based on assigned
// points. Averaging in the unrolled (x, y) hue plane is a circular mean,
// so wraparound hues average correctly.
func recalculateCentroids(points []point, assignments []int, k int, rng *rand.Rand) []point {
	sums := make([]point, k)
	counts := make([]int, k)

	for i, p := range points {
		c := assignments[i]
		sums[c].x += p.x
		sums[c].y += p.y
		sums[c].s += p.s
		sums[c].v += p.v
		counts[c]++
	}

	centroids := make([]point, k)
	for i := 0; i < k; i++ {
		if counts[i] > 0 {
			n := float64(counts[i])
			centroids[i] = point{
				x: sums[i].x / n,
				y: sums[i].y / n,
				s: sums[i].s / n,
				v: sums[i].v / n,
			}
		} else {
			// Empty cluster - reinitialize from a random sample.
			centroids[i] = points[rng.Intn(len(points))]
		}
	}

	return centroids
}
