package planner

// Source names a sentiment contributor recognized by the Aggregator.
type Source string

const (
	SourceNews    Source = "news"
	SourceSocial  Source = "social"
	SourceOnChain Source = "onchain"
)

// baseWeights are the nominal per-source weights from spec §4.3. They sum
// to 1.0 when all three sources are present.
var baseWeights = map[Source]float64{
	SourceNews:    0.4,
	SourceSocial:  0.3,
	SourceOnChain: 0.3,
}

// Aggregator reduces per-source sentiment readings into a single score
// using the fixed weighting scheme, redistributing any missing source's
// weight proportionally across the sources that did report.
type Aggregator struct{}

// NewAggregator constructs an Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Reduce combines the available per-source scores (each expected in
// [-1, 1]) into a single weighted sentiment score. Sources absent from
// readings are excluded and their nominal weight is redistributed
// proportionally among the sources present. An empty readings map yields
// 0.
func (a *Aggregator) Reduce(readings map[Source]float64) float64 {
	if len(readings) == 0 {
		return 0
	}

	presentWeight := 0.0
	for source := range readings {
		if w, ok := baseWeights[source]; ok {
			presentWeight += w
		}
	}
	if presentWeight == 0 {
		return 0
	}

	var weighted float64
	for source, score := range readings {
		w, ok := baseWeights[source]
		if !ok {
			continue
		}
		normalized := w / presentWeight
		weighted += score * normalized
	}
	return weighted
}
