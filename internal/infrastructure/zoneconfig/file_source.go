// Package zoneconfig loads zone configuration and the picker scoring policy
// from a YAML file.
package zoneconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout
type File struct {
	Zones   []*domain.ZoneConfiguration `yaml:"zones" validate:"dive,required"`
	Scoring domain.ScoringPolicy        `yaml:"scoring"`
}

// FileSource serves zones read once at startup.
// Implements domain.ZoneConfigSource.
type FileSource struct {
	zones   map[string]*domain.ZoneConfiguration
	order   []string
	scoring domain.ScoringPolicy
}

// NewFileSource reads and validates the YAML file at path
func NewFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zone config: %w", err)
	}
	return NewFileSourceFromBytes(data)
}

// NewFileSourceFromBytes parses zone configuration. Scoring fields left out of
// the file keep their defaults.
func NewFileSourceFromBytes(data []byte) (*FileSource, error) {
	file := File{Scoring: domain.DefaultScoringPolicy()}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse zone config: %w", err)
	}

	if err := validator.New().Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid zone config: %w", err)
	}

	source := &FileSource{
		zones:   make(map[string]*domain.ZoneConfiguration, len(file.Zones)),
		scoring: file.Scoring,
	}
	for _, zone := range file.Zones {
		if _, exists := source.zones[zone.ZoneID]; exists {
			return nil, fmt.Errorf("invalid zone config: duplicate zone %s", zone.ZoneID)
		}
		source.zones[zone.ZoneID] = zone
		source.order = append(source.order, zone.ZoneID)
	}
	return source, nil
}

// GetZone returns a copy of the zone, or nil if it is not configured
func (s *FileSource) GetZone(_ context.Context, zoneID string) (*domain.ZoneConfiguration, error) {
	zone, ok := s.zones[zoneID]
	if !ok {
		return nil, nil
	}
	return cloneZone(zone), nil
}

// ListZones returns every zone in file order
func (s *FileSource) ListZones(_ context.Context) ([]*domain.ZoneConfiguration, error) {
	zones := make([]*domain.ZoneConfiguration, 0, len(s.order))
	for _, id := range s.order {
		zones = append(zones, cloneZone(s.zones[id]))
	}
	return zones, nil
}

// Scoring returns the configured scoring policy
func (s *FileSource) Scoring() domain.ScoringPolicy {
	return s.scoring
}

func cloneZone(z *domain.ZoneConfiguration) *domain.ZoneConfiguration {
	c := *z
	c.Pickers = append([]string(nil), z.Pickers...)
	c.Locations = append([]string(nil), z.Locations...)
	c.Routing.OptimalPath = append([]string(nil), z.Routing.OptimalPath...)
	return &c
}
