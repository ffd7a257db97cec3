package wiz

// SignalStrength is a coarse classification of a device's RSSI.
type SignalStrength uint8

const (
	SignalWeak SignalStrength = iota
	SignalFair
	SignalGood
	SignalExcellent
)

// SignalStrengthFromRSSI buckets an RSSI value at -70, -60 and -50 dBm.
func SignalStrengthFromRSSI(rssi int8) SignalStrength {
	switch {
	case rssi < -70:
		return SignalWeak
	case rssi < -60:
		return SignalFair
	case rssi < -50:
		return SignalGood
	default:
		return SignalExcellent
	}
}

func (s SignalStrength) String() string {
	switch s {
	case SignalWeak:
		return "weak"
	case SignalFair:
		return "fair"
	case SignalGood:
		return "good"
	default:
		return "excellent"
	}
}

// Bars renders the strength as two braille cells, one to four bars.
func (s SignalStrength) Bars() string {
	switch s {
	case SignalWeak:
		return "⡀ "
	case SignalFair:
		return "⣠ "
	case SignalGood:
		return "⣠⡆"
	default:
		return "⣠⣾"
	}
}
