package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/costrisk-sim/internal/model"
)

// sheetNames maps the workbook tabs this loader expects, one per table.
var sheetNames = struct {
	Items, ItemActions, Risks, RiskActions string
}{
	Items:       "capex_items",
	ItemActions: "capex_actions",
	Risks:       "risks",
	RiskActions: "risk_actions",
}

// LoadXLSX reads a dataset workbook where each table lives on its own
// named sheet with a header row. Lookup tables are not read from XLSX;
// pass them in separately or load the dataset from YAML when lookups are
// needed.
func LoadXLSX(path string) (model.Dataset, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return model.Dataset{}, eris.Wrap(err, "dataset: open xlsx file")
	}

	items, err := readCapexItems(f)
	if err != nil {
		return model.Dataset{}, err
	}
	itemActions, err := readCapexActions(f)
	if err != nil {
		return model.Dataset{}, err
	}
	risks, err := readRisks(f)
	if err != nil {
		return model.Dataset{}, err
	}
	riskActions, err := readRiskActions(f)
	if err != nil {
		return model.Dataset{}, err
	}

	return model.Dataset{
		Items: items, ItemActions: itemActions,
		Risks: risks, RiskActions: riskActions,
	}, nil
}

func readCapexItems(f *xlsx.File) ([]model.CapexItem, error) {
	rows, header, err := sheetRows(f, sheetNames.Items)
	if err != nil {
		return nil, err
	}
	items := make([]model.CapexItem, 0, len(rows))
	for _, row := range rows {
		get := cellGetter(header, row)
		d, err := parseDate(get("base_date"))
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: capex_items[%s].base_date", get("id"))
		}
		items = append(items, model.CapexItem{
			ID: get("id"), Name: get("name"),
			P10: parseFloat(get("p10")), ML: parseOptionalFloat(get("ml")), P90: parseFloat(get("p90")),
			BaseDate: d, Owner: get("owner"), Discipline: get("discipline"),
			Phase: get("phase"), Location: get("location"),
		})
	}
	return items, nil
}

func readCapexActions(f *xlsx.File) ([]model.CapexAction, error) {
	rows, header, err := sheetRows(f, sheetNames.ItemActions)
	if err != nil {
		return nil, err
	}
	actions := make([]model.CapexAction, 0, len(rows))
	for _, row := range rows {
		get := cellGetter(header, row)
		d, err := parseDate(get("effective_date"))
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: capex_actions[%s].effective_date", get("id"))
		}
		kind := model.CapexAdjustment
		if strings.EqualFold(get("kind"), "replacement") {
			kind = model.CapexReplacement
		}
		actions = append(actions, model.CapexAction{
			ID: get("id"), ItemID: get("item_id"), Name: get("name"), Kind: kind,
			P10: parseFloat(get("p10")), P90: parseFloat(get("p90")), EffectiveDate: d,
		})
	}
	return actions, nil
}

func readRisks(f *xlsx.File) ([]model.Risk, error) {
	rows, header, err := sheetRows(f, sheetNames.Risks)
	if err != nil {
		return nil, err
	}
	risks := make([]model.Risk, 0, len(rows))
	for _, row := range rows {
		get := cellGetter(header, row)
		logDate, err := parseOptionalDate(get("risk_log_date"))
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: risks[%s].risk_log_date", get("id"))
		}
		risks = append(risks, model.Risk{
			ID: get("id"), Name: get("name"), Probability: parseFloat(get("probability")),
			P10Impact: parseFloat(get("p10_impact")), ML: parseOptionalFloat(get("ml")), P90Impact: parseFloat(get("p90_impact")),
			Owner: get("owner"), Discipline: get("discipline"), Phase: get("phase"), Location: get("location"),
			RiskCategory: get("risk_category"), RiskLog: get("risk_log"), RiskLogDate: logDate,
		})
	}
	return risks, nil
}

func readRiskActions(f *xlsx.File) ([]model.RiskAction, error) {
	rows, header, err := sheetRows(f, sheetNames.RiskActions)
	if err != nil {
		return nil, err
	}
	actions := make([]model.RiskAction, 0, len(rows))
	for _, row := range rows {
		get := cellGetter(header, row)
		d, err := parseDate(get("effective_date"))
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: risk_actions[%s].effective_date", get("id"))
		}
		actions = append(actions, model.RiskAction{
			ID: get("id"), RiskID: get("risk_id"), Name: get("name"), Kind: riskActionKind(get("kind")),
			ProbabilityMultiplier: parseFloat(get("probability_multiplier")),
			ProbabilityCap:        parseOptionalFloat(get("probability_cap")),
			P10Impact:             parseFloat(get("p10_impact")),
			P90Impact:             parseFloat(get("p90_impact")),
			EffectiveDate:         d,
		})
	}
	return actions, nil
}

// sheetRows reads a named sheet and splits it into its header row and
// every subsequent row. The first row of each sheet is always taken as
// the header.
func sheetRows(f *xlsx.File, name string) (rows [][]string, header []string, err error) {
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, nil, eris.Errorf("dataset: sheet %q not found", name)
	}
	for i, row := range sheet.Rows {
		cells := rowToStrings(row)
		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	return rows, header, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func cellGetter(header, row []string) func(column string) string {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return func(column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
