package recovery

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

//go:embed timeline.yaml
var defaultTimelineYAML []byte

type timelineFile struct {
	LookAheadDays int                     `yaml:"look_ahead_days"`
	DeliveryTypes map[string]scheduleFile `yaml:"delivery_types"`
}

type scheduleFile struct {
	ExpectedDays int             `yaml:"expected_days"`
	Phases       []phaseFile     `yaml:"phases"`
	Milestones   []milestoneFile `yaml:"milestones"`
}

type phaseFile struct {
	UntilDay *int   `yaml:"until_day"`
	Name     string `yaml:"name"`
}

type milestoneFile struct {
	Day         int    `yaml:"day"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type phaseBucket struct {
	untilDay int
	open     bool
	name     string
}

type schedule struct {
	expectedDays int
	phases       []phaseBucket
	milestones   []entities.Milestone
}

// Timeline holds the immutable per-delivery-type recovery schedules.
type Timeline struct {
	lookAheadDays int
	schedules     map[entities.DeliveryType]schedule
}

// DefaultTimeline parses the schedules compiled into the binary.
func DefaultTimeline() (*Timeline, error) {
	return ParseTimeline(defaultTimelineYAML)
}

// LoadTimeline reads schedules from path, or the compiled-in ones when path is empty.
func LoadTimeline(path string) (*Timeline, error) {
	if path == "" {
		return DefaultTimeline()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recovery timeline %s: %w", path, err)
	}
	return ParseTimeline(data)
}

// ParseTimeline decodes and validates a timeline document. Both delivery
// types must be present.
func ParseTimeline(data []byte) (*Timeline, error) {
	var file timelineFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse recovery timeline: %w", err)
	}
	if file.LookAheadDays < 0 {
		return nil, fmt.Errorf("look_ahead_days must not be negative")
	}

	tl := &Timeline{
		lookAheadDays: file.LookAheadDays,
		schedules:     make(map[entities.DeliveryType]schedule),
	}
	for name, sf := range file.DeliveryTypes {
		dt := entities.DeliveryType(name)
		if dt != entities.DeliveryVaginal && dt != entities.DeliveryCesarean {
			return nil, fmt.Errorf("unknown delivery type %q", name)
		}
		s, err := buildSchedule(sf)
		if err != nil {
			return nil, fmt.Errorf("delivery type %s: %w", name, err)
		}
		tl.schedules[dt] = s
	}
	for _, dt := range []entities.DeliveryType{entities.DeliveryVaginal, entities.DeliveryCesarean} {
		if _, ok := tl.schedules[dt]; !ok {
			return nil, fmt.Errorf("timeline missing delivery type %q", dt)
		}
	}
	return tl, nil
}

func buildSchedule(sf scheduleFile) (schedule, error) {
	if sf.ExpectedDays <= 0 {
		return schedule{}, fmt.Errorf("expected_days must be positive")
	}
	s := schedule{expectedDays: sf.ExpectedDays}

	if len(sf.Phases) == 0 {
		return schedule{}, fmt.Errorf("no phases defined")
	}
	prev := -1
	for i, p := range sf.Phases {
		if p.Name == "" {
			return schedule{}, fmt.Errorf("phase %d has no name", i)
		}
		last := i == len(sf.Phases)-1
		if p.UntilDay == nil {
			if !last {
				return schedule{}, fmt.Errorf("only the last phase may be open-ended")
			}
			s.phases = append(s.phases, phaseBucket{open: true, name: p.Name})
			continue
		}
		if *p.UntilDay <= prev {
			return schedule{}, fmt.Errorf("phase %q boundary %d does not increase", p.Name, *p.UntilDay)
		}
		prev = *p.UntilDay
		s.phases = append(s.phases, phaseBucket{untilDay: *p.UntilDay, name: p.Name})
	}
	if !s.phases[len(s.phases)-1].open {
		return schedule{}, fmt.Errorf("last phase must be open-ended")
	}

	prev = -1
	for _, m := range sf.Milestones {
		if m.Day <= prev {
			return schedule{}, fmt.Errorf("milestone %q offset %d does not increase", m.Title, m.Day)
		}
		prev = m.Day
		s.milestones = append(s.milestones, entities.Milestone{
			DayOffset:   m.Day,
			Title:       m.Title,
			Description: m.Description,
		})
	}
	return s, nil
}

func (t *Timeline) schedule(dt entities.DeliveryType) schedule {
	if s, ok := t.schedules[dt]; ok {
		return s
	}
	return t.schedules[entities.DeliveryVaginal]
}

// ExpectedDays is the full recovery window for a delivery type.
func (t *Timeline) ExpectedDays(dt entities.DeliveryType) int {
	return t.schedule(dt).expectedDays
}
