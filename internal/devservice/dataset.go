package devservice

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/dataservice"
	"github.com/danielpatrickdp/jalsathi/go-controller/internal/match"
)

//go:embed sample.yaml
var sampleYAML []byte

// Assessment is one year of figures for a location.
type Assessment struct {
	Year              int      `yaml:"year" json:"year,omitempty"`
	AnnualExtractable *float64 `yaml:"annual_extractable" json:"annual_extractable,omitempty"`
	TotalExtraction   *float64 `yaml:"total_extraction" json:"total_extraction,omitempty"`
	StagePercent      *float64 `yaml:"stage_percent" json:"stage_percent,omitempty"`
	Categorization    string   `yaml:"categorization" json:"categorization,omitempty"`
}

// Block is the finest administrative unit.
type Block struct {
	Name        string       `yaml:"name" json:"name,omitempty"`
	Assessments []Assessment `yaml:"assessments" json:"assessments,omitempty"`
}

// District groups blocks.
type District struct {
	Name        string       `yaml:"name" json:"name,omitempty"`
	Assessments []Assessment `yaml:"assessments" json:"assessments,omitempty"`
	Blocks      []Block      `yaml:"blocks" json:"blocks,omitempty"`
}

// State groups districts.
type State struct {
	Name        string       `yaml:"name" json:"name,omitempty"`
	Assessments []Assessment `yaml:"assessments" json:"assessments,omitempty"`
	Districts   []District   `yaml:"districts" json:"districts,omitempty"`
}

// Dataset is an in-memory reference hierarchy with assessments at every
// level. It serves both the metadata lookups and queries without HTTP.
// A Dataset is read-only after loading and safe for concurrent use.
type Dataset struct {
	National  []Assessment `yaml:"national" json:"national,omitempty"`
	StateList []State      `yaml:"states" json:"states,omitempty"`
}

// ParseDataset decodes a YAML dataset.
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return &ds, nil
}

// LoadDataset reads a YAML dataset from path.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return ParseDataset(data)
}

// SampleDataset returns the bundled sample hierarchy.
func SampleDataset() *Dataset {
	ds, err := ParseDataset(sampleYAML)
	if err != nil {
		panic(err)
	}
	return ds
}

// #region lookups
func notFound(endpoint, format string, args ...any) error {
	return &dataservice.Error{
		Kind:     dataservice.KindNotFound,
		Status:   404,
		Endpoint: endpoint,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (ds *Dataset) state(name string) (*State, bool) {
	key := match.Normalize(name)
	for i := range ds.StateList {
		if match.Normalize(ds.StateList[i].Name) == key {
			return &ds.StateList[i], true
		}
	}
	return nil, false
}

func (s *State) district(name string) (*District, bool) {
	key := match.Normalize(name)
	for i := range s.Districts {
		if match.Normalize(s.Districts[i].Name) == key {
			return &s.Districts[i], true
		}
	}
	return nil, false
}

func (d *District) block(name string) (*Block, bool) {
	key := match.Normalize(name)
	for i := range d.Blocks {
		if match.Normalize(d.Blocks[i].Name) == key {
			return &d.Blocks[i], true
		}
	}
	return nil, false
}

// States lists state names in dataset order.
func (ds *Dataset) States(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(ds.StateList))
	for _, s := range ds.StateList {
		out = append(out, s.Name)
	}
	return out, nil
}

// Districts lists the districts of state.
func (ds *Dataset) Districts(ctx context.Context, state string) ([]string, error) {
	s, ok := ds.state(state)
	if !ok {
		return nil, notFound("districts", "unknown state %q", state)
	}
	out := make([]string, 0, len(s.Districts))
	for _, d := range s.Districts {
		out = append(out, d.Name)
	}
	return out, nil
}

// Blocks lists the blocks of district in state.
func (ds *Dataset) Blocks(ctx context.Context, state, district string) ([]string, error) {
	s, ok := ds.state(state)
	if !ok {
		return nil, notFound("blocks", "unknown state %q", state)
	}
	d, ok := s.district(district)
	if !ok {
		return nil, notFound("blocks", "unknown district %q in %s", district, s.Name)
	}
	out := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		out = append(out, b.Name)
	}
	return out, nil
}

// #endregion lookups

// #region query
// Query resolves the request location exactly and returns the requested
// years. An empty year list selects the most recent assessment.
func (ds *Dataset) Query(ctx context.Context, req dataservice.QueryRequest) (dataservice.QueryResponse, error) {
	var (
		summary     dataservice.LocationSummary
		assessments = ds.National
	)

	if req.State != nil {
		s, ok := ds.state(*req.State)
		if !ok {
			return dataservice.QueryResponse{}, notFound("query", "no data for state %q", *req.State)
		}
		summary.State, assessments = s.Name, s.Assessments

		if req.District != nil {
			d, ok := s.district(*req.District)
			if !ok {
				return dataservice.QueryResponse{}, notFound("query", "no data for district %q", *req.District)
			}
			summary.District, assessments = d.Name, d.Assessments

			if req.Block != nil {
				b, ok := d.block(*req.Block)
				if !ok {
					return dataservice.QueryResponse{}, notFound("query", "no data for block %q", *req.Block)
				}
				summary.Block, assessments = b.Name, b.Assessments
			}
		}
	}

	return dataservice.QueryResponse{
		LocationSummary: summary,
		Years:           selectYears(assessments, req.Years),
	}, nil
}

func selectYears(all []Assessment, years []int) []dataservice.YearRecord {
	var picked []Assessment
	if len(years) == 0 {
		if len(all) > 0 {
			latest := slices.MaxFunc(all, func(a, b Assessment) int { return a.Year - b.Year })
			picked = []Assessment{latest}
		}
	} else {
		for _, a := range all {
			if slices.Contains(years, a.Year) {
				picked = append(picked, a)
			}
		}
		slices.SortFunc(picked, func(a, b Assessment) int { return a.Year - b.Year })
	}

	out := make([]dataservice.YearRecord, 0, len(picked))
	for _, a := range picked {
		out = append(out, dataservice.YearRecord{
			Year:              a.Year,
			AnnualExtractable: quantity(a.AnnualExtractable),
			TotalExtraction:   quantity(a.TotalExtraction),
			StagePercent:      quantity(a.StagePercent),
			Categorization:    a.Categorization,
		})
	}
	return out
}

func quantity(v *float64) dataservice.Quantity {
	if v == nil {
		return dataservice.Quantity{}
	}
	return dataservice.Some(*v)
}

// #endregion query
