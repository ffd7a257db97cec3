package wiz

import "strings"

// Family is the coarse device category.
type Family uint8

const (
	FamilyPlug Family = iota + 1
	FamilyBulb
	FamilyLightStrip
)

func (f Family) String() string {
	switch f {
	case FamilyPlug:
		return "plug"
	case FamilyBulb:
		return "bulb"
	case FamilyLightStrip:
		return "light strip"
	default:
		return "unknown"
	}
}

// BulbKind distinguishes bulb variants.
type BulbKind uint8

const (
	BulbDimmableWhite BulbKind = iota + 1
	BulbTunableWhite
	BulbColor
)

func (b BulbKind) String() string {
	switch b {
	case BulbDimmableWhite:
		return "dimmable white"
	case BulbTunableWhite:
		return "tunable white"
	case BulbColor:
		return "color"
	default:
		return "unknown"
	}
}

// DeviceKind is the closed set of device kinds: a plug, one of the bulb
// variants, or a light strip. The zero value is not a valid kind.
type DeviceKind struct {
	family Family
	bulb   BulbKind
}

var (
	KindPlug       = DeviceKind{family: FamilyPlug}
	KindLightStrip = DeviceKind{family: FamilyLightStrip}
)

// Bulb returns the bulb kind for variant b.
func Bulb(b BulbKind) DeviceKind {
	return DeviceKind{family: FamilyBulb, bulb: b}
}

// Family returns the device family.
func (k DeviceKind) Family() Family {
	return k.family
}

// BulbKind returns the bulb variant; ok is false when k is not a bulb.
func (k DeviceKind) BulbKind() (BulbKind, bool) {
	if k.family != FamilyBulb {
		return 0, false
	}
	return k.bulb, true
}

// IsDimmable reports whether brightness can be set. Only plugs are not dimmable.
func (k DeviceKind) IsDimmable() bool {
	switch k.family {
	case FamilyBulb, FamilyLightStrip:
		return true
	default:
		return false
	}
}

// SupportsColor reports whether RGBCW colour can be set. Light strips and
// colour bulbs support it.
func (k DeviceKind) SupportsColor() bool {
	switch k.family {
	case FamilyLightStrip:
		return true
	case FamilyBulb:
		return k.bulb == BulbColor
	default:
		return false
	}
}

func (k DeviceKind) String() string {
	if k.family == FamilyBulb {
		return k.bulb.String() + " bulb"
	}
	return k.family.String()
}

// lightStripSuffix marks the strip enclosure on otherwise RGB modules.
const lightStripSuffix = "ABI"

// Classify derives the device kind from the module name reported by
// getSystemConfig, e.g. "ESP01_SHRGB1C_31" or "ESP20_SHRGB_01ABI".
//
// Module names follow ESP<nn>_<FEATURE>_<nn><suffix>. The feature token is
// checked for SOCKET, TW, DW and RGB in that order; an RGB module whose name
// ends in ABI is a light strip. A name that does not split into three parts
// is matched as a whole.
func Classify(moduleName string) (DeviceKind, error) {
	upper := strings.ToUpper(strings.TrimSpace(moduleName))
	feature := featureToken(upper)

	switch {
	case strings.Contains(feature, "SOCKET"):
		return KindPlug, nil
	case strings.Contains(feature, "TW"):
		return Bulb(BulbTunableWhite), nil
	case strings.Contains(feature, "DW"):
		return Bulb(BulbDimmableWhite), nil
	case strings.Contains(feature, "RGB"):
		if strings.HasSuffix(upper, lightStripSuffix) {
			return KindLightStrip, nil
		}
		return Bulb(BulbColor), nil
	}
	return DeviceKind{}, &UnrecognizedModuleError{Raw: moduleName}
}

func featureToken(moduleName string) string {
	parts := strings.Split(moduleName, "_")
	if len(parts) < 3 {
		return moduleName
	}
	return strings.Join(parts[1:len(parts)-1], "_")
}
