package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Tunables for the synthetic greenhouse.
const (
	seedPH   = 5.0
	seedSoil = 45.0 // percent
	seedTemp = 22.0
	seedHum  = 60.0

	// Soil dries slowly on its own and re-wets in proportion to how far
	// the valve is open. Dosing also nudges the pH upward.
	soilDecayPerMin = 0.15
	soilGainPerMin  = 0.5 // at fully open (180°)
	phDriftPerMin   = 0.02
	phGainPerMin    = 0.03
)

// Sample is one synthetic observation.
type Sample struct {
	PH            float64
	SoilMoisture  float64
	Temperature   float64
	Humidity      float64
	ServoPosition int
}

// DataGenerator walks the greenhouse state forward in time. The current
// servo position feeds back into soil moisture and pH, so closed-loop
// behavior shows up in the generated data.
type DataGenerator struct {
	mu    sync.Mutex
	last  time.Time
	rng   *rand.Rand
	ph    float64
	soil  float64
	temp  float64
	hum   float64
	servo int
}

func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		last: time.Now().UTC(),
		rng:  rand.New(rand.NewSource(seed)),
		ph:   seedPH,
		soil: seedSoil,
		temp: seedTemp,
		hum:  seedHum,
	}
}

// SetServo records the last commanded valve position.
func (g *DataGenerator) SetServo(position int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.servo = clampInt(position, 0, 180)
}

// Next advances the state and returns a fresh sample.
func (g *DataGenerator) Next() Sample {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UTC()
	dtMin := now.Sub(g.last).Minutes()
	if dtMin < 0 {
		dtMin = 0
	}
	g.last = now

	open := float64(g.servo) / 180.0
	g.soil = clampF(g.soil-soilDecayPerMin*dtMin+soilGainPerMin*open*dtMin+g.rng.Float64()*0.4-0.2, 0, 100)
	g.ph = clampF(g.ph-phDriftPerMin*dtMin+phGainPerMin*open*dtMin+g.rng.Float64()*0.04-0.02, 3.5, 7.5)
	g.temp = clampF(g.temp+g.rng.Float64()*0.4-0.2, 10, 40)
	g.hum = clampF(g.hum+g.rng.Float64()*1.0-0.5, 20, 95)

	return Sample{
		PH:            round2(g.ph),
		SoilMoisture:  round2(g.soil),
		Temperature:   round2(g.temp),
		Humidity:      round2(g.hum),
		ServoPosition: g.servo,
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
