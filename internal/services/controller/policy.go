package controller

// Valve positions commanded by the decision table, in servo degrees.
const (
	PositionClosed   = 0
	PositionQuarter  = 45
	PositionHalf     = 90
	PositionFullOpen = 180
)

// Policy thresholds. Below phLow the solution is too acidic and the base
// dosing valve opens fully; above phHigh it closes. Soil moisture bands
// drive the intermediate openings.
const (
	phLow   = 4.4
	phHigh  = 5.5
	soilDry = 30.0
	soilWet = 70.0
	soilLow = 40.0
	soilMid = 50.0
)

// Decide maps the current (pH, soil moisture) state to a target valve
// position. Pure and stateless; hysteresis lives in the Tracker.
//
// Rules are evaluated in order, first match wins. Boundary values fall to
// the lower-priority side: ph == 4.4 is not "too low" and soil == 30 is
// not "too dry". Inside rule 3, soil == 50 still sits in the quarter
// band, so Decide(4.4, 50) lands on 45.
func Decide(ph, soilMoisture float64) int {
	switch {
	case ph < phLow || soilMoisture < soilDry:
		return PositionFullOpen
	case ph > phHigh || soilMoisture > soilWet:
		return PositionClosed
	case soilMoisture < soilLow:
		return PositionHalf
	case soilMoisture <= soilMid:
		return PositionQuarter
	default:
		return PositionClosed
	}
}
