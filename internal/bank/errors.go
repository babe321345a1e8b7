package bank

import "fmt"

// Region names the part of the bank an access was aimed at.
type Region uint8

const (
	RegionMemory Region = iota + 1
	RegionVideo
	RegionColor
	RegionGlyph
	RegionAxis
	RegionChannel
	RegionSound
	RegionVolume
	RegionMusic
)

func (r Region) String() string {
	switch r {
	case RegionMemory:
		return "memory"
	case RegionVideo:
		return "video cell"
	case RegionColor:
		return "color"
	case RegionGlyph:
		return "glyph"
	case RegionAxis:
		return "axis"
	case RegionChannel:
		return "audio channel"
	case RegionSound:
		return "sound"
	case RegionVolume:
		return "volume"
	case RegionMusic:
		return "music"
	}
	return fmt.Sprintf("region(%d)", uint8(r))
}

// RangeError is returned by every accessor that is given an index or value
// outside its region. Values are never clamped.
type RangeError struct {
	Region Region
	Index  int
	Limit  int
}

func (e *RangeError) Error() string {
	if e.Limit == 0 {
		return fmt.Sprintf("%s: %d is not available", e.Region, e.Index)
	}
	return fmt.Sprintf("%s: %d out of range [0, %d)", e.Region, e.Index, e.Limit)
}

func checkRange(region Region, index, limit int) error {
	if index < 0 || index >= limit {
		return &RangeError{Region: region, Index: index, Limit: limit}
	}
	return nil
}
