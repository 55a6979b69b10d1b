package analysis

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

//go:embed crops.yaml
var defaultCropsYAML []byte

// DefaultCrops returns the embedded crop reference table.
func DefaultCrops() []entities.CropProfile {
	crops, err := ParseCrops(defaultCropsYAML)
	if err != nil {
		panic(fmt.Sprintf("analysis: embedded crop table: %v", err))
	}
	return crops
}

// LoadCrops reads a crop table from path, or the embedded table when path is empty.
func LoadCrops(path string) ([]entities.CropProfile, error) {
	if strings.TrimSpace(path) == "" {
		return ParseCrops(defaultCropsYAML)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crop table: %w", err)
	}
	return ParseCrops(b)
}

// ParseCrops decodes and validates a YAML crop table.
func ParseCrops(b []byte) ([]entities.CropProfile, error) {
	var crops []entities.CropProfile
	if err := yaml.Unmarshal(b, &crops); err != nil {
		return nil, fmt.Errorf("decode crop table: %w", err)
	}
	if len(crops) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrInvalidCrop)
	}
	for i, c := range crops {
		if err := validateCrop(c); err != nil {
			return nil, fmt.Errorf("crop %d: %w", i, err)
		}
	}
	return crops, nil
}

func validateCrop(c entities.CropProfile) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCrop)
	}
	if c.PHMin > c.PHMax {
		return fmt.Errorf("%w: %s phMin %.1f > phMax %.1f", ErrInvalidCrop, c.Name, c.PHMin, c.PHMax)
	}
	lo, hi := ZoneIndex(c.ZoneMin), ZoneIndex(c.ZoneMax)
	if lo < 0 || hi < 0 {
		return fmt.Errorf("%w: %s zones %q-%q", ErrUnknownZone, c.Name, c.ZoneMin, c.ZoneMax)
	}
	if lo > hi {
		return fmt.Errorf("%w: %s zoneMin after zoneMax", ErrInvalidCrop, c.Name)
	}
	return nil
}
