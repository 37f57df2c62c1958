package outfit

import "strings"

// Bucket is a coarse palette group used for harmony scoring.
type Bucket string

const (
	BucketNeutral Bucket = "neutral"
	BucketRed     Bucket = "red"
	BucketBlue    Bucket = "blue"
	BucketGreen   Bucket = "green"
	BucketYellow  Bucket = "yellow"
	BucketOrange  Bucket = "orange"
	BucketPurple  Bucket = "purple"
	BucketOther   Bucket = "other"
)

var palette = map[string]Bucket{
	"black": BucketNeutral, "white": BucketNeutral, "grey": BucketNeutral, "gray": BucketNeutral,
	"beige": BucketNeutral, "tan": BucketNeutral, "khaki": BucketNeutral, "cream": BucketNeutral,
	"navy": BucketNeutral, "denim": BucketNeutral, "jean": BucketNeutral,

	"red": BucketRed, "burgundy": BucketRed, "maroon": BucketRed, "pink": BucketRed, "rose": BucketRed,

	"blue": BucketBlue, "azure": BucketBlue, "teal": BucketBlue, "turquoise": BucketBlue,

	"green": BucketGreen, "olive": BucketGreen, "forest": BucketGreen, "sage": BucketGreen,

	"yellow": BucketYellow, "gold": BucketYellow,
	"orange": BucketOrange, "rust": BucketOrange, "coral": BucketOrange,

	"purple": BucketPurple, "violet": BucketPurple, "lavender": BucketPurple, "lilac": BucketPurple,
}

var complementary = map[Bucket]Bucket{
	BucketBlue:   BucketOrange,
	BucketOrange: BucketBlue,
	BucketRed:    BucketGreen,
	BucketGreen:  BucketRed,
	BucketPurple: BucketYellow,
	BucketYellow: BucketPurple,
}

// Harmony points.
const (
	emptyColorsScore   = 5
	monochromaticScore = 8
	neutralScore       = 6
	complementaryScore = 10
)

// NormalizeColor maps a free-text color word to its palette bucket.
func NormalizeColor(color string) Bucket {
	if b, ok := palette[strings.ToLower(strings.TrimSpace(color))]; ok {
		return b
	}
	return BucketOther
}

func pairScore(a, b Bucket) int {
	score := 0
	if a == b {
		score += monochromaticScore
	}
	if a == BucketNeutral || b == BucketNeutral {
		score += neutralScore
	}
	if complementary[a] == b {
		score += complementaryScore
	}
	return score
}

// Harmony scores the best color pairing between two garments. Missing color
// data on either side yields a neutral baseline instead of a penalty.
func Harmony(colorsA, colorsB []string) int {
	if len(colorsA) == 0 || len(colorsB) == 0 {
		return emptyColorsScore
	}
	best := 0
	for _, a := range colorsA {
		na := NormalizeColor(a)
		for _, b := range colorsB {
			best = max(best, pairScore(na, NormalizeColor(b)))
		}
	}
	return best
}
