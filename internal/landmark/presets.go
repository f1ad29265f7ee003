package landmark

// Preset hands used by tests, the mock detector and the demo replay. They are
// drawn for a right hand, palm facing the camera, wrist at (0.5, 0.8), with a
// wrist-to-middle-MCP distance of 0.15.

type finger struct {
	mcp, pip, dip, tip Point
}

var (
	extendedIndex  = finger{Point{X: 0.55, Y: 0.66}, Point{X: 0.56, Y: 0.56}, Point{X: 0.565, Y: 0.50}, Point{X: 0.57, Y: 0.44}}
	extendedMiddle = finger{Point{X: 0.50, Y: 0.65}, Point{X: 0.50, Y: 0.54}, Point{X: 0.50, Y: 0.47}, Point{X: 0.50, Y: 0.40}}
	extendedRing   = finger{Point{X: 0.45, Y: 0.66}, Point{X: 0.44, Y: 0.56}, Point{X: 0.435, Y: 0.50}, Point{X: 0.43, Y: 0.44}}
	extendedPinky  = finger{Point{X: 0.41, Y: 0.69}, Point{X: 0.39, Y: 0.61}, Point{X: 0.38, Y: 0.56}, Point{X: 0.37, Y: 0.51}}

	curledIndex  = finger{Point{X: 0.55, Y: 0.66}, Point{X: 0.56, Y: 0.62}, Point{X: 0.545, Y: 0.67}, Point{X: 0.535, Y: 0.70}}
	curledMiddle = finger{Point{X: 0.50, Y: 0.65}, Point{X: 0.50, Y: 0.61}, Point{X: 0.50, Y: 0.66}, Point{X: 0.50, Y: 0.69}}
	curledRing   = finger{Point{X: 0.45, Y: 0.66}, Point{X: 0.445, Y: 0.62}, Point{X: 0.45, Y: 0.67}, Point{X: 0.46, Y: 0.70}}
	curledPinky  = finger{Point{X: 0.41, Y: 0.69}, Point{X: 0.40, Y: 0.66}, Point{X: 0.41, Y: 0.70}, Point{X: 0.42, Y: 0.72}}

	thumbOut    = finger{Point{X: 0.55, Y: 0.77}, Point{X: 0.60, Y: 0.72}, Point{X: 0.64, Y: 0.68}, Point{X: 0.68, Y: 0.64}}
	thumbTucked = finger{Point{X: 0.55, Y: 0.77}, Point{X: 0.58, Y: 0.73}, Point{X: 0.56, Y: 0.69}, Point{X: 0.53, Y: 0.68}}
	thumbUp     = finger{Point{X: 0.55, Y: 0.76}, Point{X: 0.58, Y: 0.70}, Point{X: 0.59, Y: 0.62}, Point{X: 0.60, Y: 0.54}}
)

func build(thumb, index, middle, ring, pinky finger) Hand {
	h := Hand{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = Point{X: 0.5, Y: 0.8}

	for base, f := range map[int]finger{ThumbCMC: thumb, IndexMCP: index, MiddleMCP: middle, RingMCP: ring, PinkyMCP: pinky} {
		h.Points[base] = f.mcp
		h.Points[base+1] = f.pip
		h.Points[base+2] = f.dip
		h.Points[base+3] = f.tip
	}
	return h
}

// OpenPalm returns a hand with all five digits extended.
func OpenPalm() Hand {
	return build(thumbOut, extendedIndex, extendedMiddle, extendedRing, extendedPinky)
}

// ClosedHand returns a fist with the thumb folded across the fingers.
func ClosedHand() Hand {
	return build(thumbTucked, curledIndex, curledMiddle, curledRing, curledPinky)
}

// ThumbsUp returns a fist with the thumb straight and pointing up.
func ThumbsUp() Hand {
	return build(thumbUp, curledIndex, curledMiddle, curledRing, curledPinky)
}

// SpecialPose returns the thumb, index and pinky extended with the middle and
// ring fingers folded.
func SpecialPose() Hand {
	return build(thumbOut, extendedIndex, curledMiddle, curledRing, extendedPinky)
}

// Pointing returns a hand with only the index finger extended, pointing up.
// Rotate it around the wrist to point in other directions.
func Pointing() Hand {
	return build(thumbTucked, extendedIndex, curledMiddle, curledRing, curledPinky)
}
