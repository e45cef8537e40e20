// Package dataset loads a simulation dataset from YAML or XLSX input
// files into the domain's model types.
package dataset

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/costrisk-sim/internal/model"
)

const dateLayout = "2006-01-02"

// rawDataset mirrors model.Dataset but with the scalar representations a
// YAML document naturally carries: dates as strings, optional fields as
// pointers already, so the shapes line up one-to-one with the YAML tags.
type rawDataset struct {
	Items       []rawCapexItem   `yaml:"capex_items"`
	ItemActions []rawCapexAction `yaml:"capex_actions"`
	Risks       []rawRisk        `yaml:"risks"`
	RiskActions []rawRiskAction  `yaml:"risk_actions"`
	Lookups     rawLookups       `yaml:"lookups"`
}

type rawCapexItem struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	P10        float64  `yaml:"p10"`
	ML         *float64 `yaml:"ml"`
	P90        float64  `yaml:"p90"`
	BaseDate   string   `yaml:"base_date"`
	Owner      string   `yaml:"owner"`
	Discipline string   `yaml:"discipline"`
	Phase      string   `yaml:"phase"`
	Location   string   `yaml:"location"`
}

type rawCapexAction struct {
	ID            string  `yaml:"id"`
	ItemID        string  `yaml:"item_id"`
	Name          string  `yaml:"name"`
	Kind          string  `yaml:"kind"`
	P10           float64 `yaml:"p10"`
	P90           float64 `yaml:"p90"`
	EffectiveDate string  `yaml:"effective_date"`
}

type rawRisk struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Probability  float64  `yaml:"probability"`
	P10Impact    float64  `yaml:"p10_impact"`
	ML           *float64 `yaml:"ml"`
	P90Impact    float64  `yaml:"p90_impact"`
	Owner        string   `yaml:"owner"`
	Discipline   string   `yaml:"discipline"`
	Phase        string   `yaml:"phase"`
	Location     string   `yaml:"location"`
	RiskCategory string   `yaml:"risk_category"`
	RiskLog      string   `yaml:"risk_log"`
	RiskLogDate  string   `yaml:"risk_log_date"`
}

type rawRiskAction struct {
	ID                    string   `yaml:"id"`
	RiskID                string   `yaml:"risk_id"`
	Name                  string   `yaml:"name"`
	Kind                  string   `yaml:"kind"`
	ProbabilityMultiplier float64  `yaml:"probability_multiplier"`
	ProbabilityCap        *float64 `yaml:"probability_cap"`
	P10Impact             float64  `yaml:"p10_impact"`
	P90Impact             float64  `yaml:"p90_impact"`
	EffectiveDate         string   `yaml:"effective_date"`
}

type rawLookups struct {
	Disciplines []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"disciplines"`
	Phases []struct {
		ID         string `yaml:"id"`
		Name       string `yaml:"name"`
		PhaseOrder int    `yaml:"phase_order"`
	} `yaml:"phases"`
	Locations []struct {
		ID             string  `yaml:"id"`
		Name           string  `yaml:"name"`
		ParentLocation *string `yaml:"parent_location_id"`
	} `yaml:"locations"`
	RiskCategories []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"risk_categories"`
	RiskLogs []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"risk_logs"`
}

// LoadYAML reads a dataset from a YAML file at path.
func LoadYAML(path string) (model.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Dataset{}, eris.Wrap(err, "dataset: read file")
	}

	var raw rawDataset
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return model.Dataset{}, eris.Wrap(err, "dataset: unmarshal yaml")
	}

	return convert(raw)
}

func convert(raw rawDataset) (model.Dataset, error) {
	items := make([]model.CapexItem, len(raw.Items))
	for i, r := range raw.Items {
		d, err := parseDate(r.BaseDate)
		if err != nil {
			return model.Dataset{}, eris.Wrapf(err, "dataset: capex_items[%s].base_date", r.ID)
		}
		items[i] = model.CapexItem{
			ID: r.ID, Name: r.Name, P10: r.P10, ML: r.ML, P90: r.P90,
			BaseDate: d, Owner: r.Owner, Discipline: r.Discipline, Phase: r.Phase, Location: r.Location,
		}
	}

	itemActions := make([]model.CapexAction, len(raw.ItemActions))
	for i, r := range raw.ItemActions {
		d, err := parseDate(r.EffectiveDate)
		if err != nil {
			return model.Dataset{}, eris.Wrapf(err, "dataset: capex_actions[%s].effective_date", r.ID)
		}
		kind := model.CapexAdjustment
		if r.Kind == "replacement" {
			kind = model.CapexReplacement
		}
		itemActions[i] = model.CapexAction{
			ID: r.ID, ItemID: r.ItemID, Name: r.Name, Kind: kind,
			P10: r.P10, P90: r.P90, EffectiveDate: d,
		}
	}

	risks := make([]model.Risk, len(raw.Risks))
	for i, r := range raw.Risks {
		var logDate *time.Time
		if r.RiskLogDate != "" {
			d, err := parseDate(r.RiskLogDate)
			if err != nil {
				return model.Dataset{}, eris.Wrapf(err, "dataset: risks[%s].risk_log_date", r.ID)
			}
			logDate = &d
		}
		risks[i] = model.Risk{
			ID: r.ID, Name: r.Name, Probability: r.Probability,
			P10Impact: r.P10Impact, ML: r.ML, P90Impact: r.P90Impact,
			Owner: r.Owner, Discipline: r.Discipline, Phase: r.Phase, Location: r.Location,
			RiskCategory: r.RiskCategory, RiskLog: r.RiskLog, RiskLogDate: logDate,
		}
	}

	riskActions := make([]model.RiskAction, len(raw.RiskActions))
	for i, r := range raw.RiskActions {
		d, err := parseDate(r.EffectiveDate)
		if err != nil {
			return model.Dataset{}, eris.Wrapf(err, "dataset: risk_actions[%s].effective_date", r.ID)
		}
		riskActions[i] = model.RiskAction{
			ID: r.ID, RiskID: r.RiskID, Name: r.Name, Kind: riskActionKind(r.Kind),
			ProbabilityMultiplier: r.ProbabilityMultiplier, ProbabilityCap: r.ProbabilityCap,
			P10Impact: r.P10Impact, P90Impact: r.P90Impact, EffectiveDate: d,
		}
	}

	lookups := model.Lookups{
		Disciplines:    make(map[string]model.Discipline, len(raw.Lookups.Disciplines)),
		Phases:         make(map[string]model.ProjectPhase, len(raw.Lookups.Phases)),
		Locations:      make(map[string]model.Location, len(raw.Lookups.Locations)),
		RiskCategories: make(map[string]model.RiskCategory, len(raw.Lookups.RiskCategories)),
		RiskLogs:       make(map[string]model.RiskLog, len(raw.Lookups.RiskLogs)),
	}
	for _, d := range raw.Lookups.Disciplines {
		lookups.Disciplines[d.ID] = model.Discipline{ID: d.ID, Name: d.Name}
	}
	for _, p := range raw.Lookups.Phases {
		lookups.Phases[p.ID] = model.ProjectPhase{ID: p.ID, Name: p.Name, PhaseOrder: p.PhaseOrder}
	}
	for _, l := range raw.Lookups.Locations {
		lookups.Locations[l.ID] = model.Location{ID: l.ID, Name: l.Name, ParentLocation: l.ParentLocation}
	}
	for _, c := range raw.Lookups.RiskCategories {
		lookups.RiskCategories[c.ID] = model.RiskCategory{ID: c.ID, Name: c.Name}
	}
	for _, l := range raw.Lookups.RiskLogs {
		lookups.RiskLogs[l.ID] = model.RiskLog{ID: l.ID, Name: l.Name}
	}

	return model.Dataset{
		Items: items, ItemActions: itemActions,
		Risks: risks, RiskActions: riskActions,
		Lookups: lookups,
	}, nil
}

func riskActionKind(s string) model.RiskActionKind {
	switch s {
	case "impact_reduction":
		return model.RiskImpactReduction
	case "elimination":
		return model.RiskElimination
	default:
		return model.RiskProbabilityReduction
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, eris.New("date is required")
	}
	return time.Parse(dateLayout, s)
}
