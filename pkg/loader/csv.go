package loader

import (
	"encoding/csv"
	"os"
	"strings"

	"admhist/pkg/faults"
	"admhist/pkg/units"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{}) {}

// LoadRegionDistrictCSV reads a CSV with "region" and "district" columns and
// standardizes every name to its registry identifier. Variant names are
// accepted with a warning; names absent from the registries fail the load.
func LoadRegionDistrictCSV(path string, regions, districts *units.Registry, log Logger) ([][]string, error) {
	if log == nil {
		log = nopLogger{}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, faults.Shapef("%s: empty CSV", path)
	}
	regionCol, districtCol := -1, -1
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "region":
			regionCol = i
		case "district":
			districtCol = i
		}
	}
	if regionCol < 0 || districtCol < 0 {
		return nil, faults.Shapef("%s: CSV needs both a region and a district column", path)
	}

	var rows [][]string
	var unknown []string
	for _, record := range records[1:] {
		regionID, err := standardizeName(regions, record[regionCol], log)
		if err != nil {
			unknown = append(unknown, record[regionCol])
			continue
		}
		districtID, err := standardizeName(districts, record[districtCol], log)
		if err != nil {
			unknown = append(unknown, record[districtCol])
			continue
		}
		rows = append(rows, []string{regionID, districtID})
	}
	if len(unknown) > 0 {
		return nil, faults.Consistencyf("%s: names not in the registries: %s", path, strings.Join(unknown, ", "))
	}
	return rows, nil
}

func standardizeName(reg *units.Registry, name string, log Logger) (string, error) {
	name = strings.TrimSpace(name)
	u, err := reg.FindUnit(name)
	if err != nil {
		return "", err
	}
	if u.NameID != name {
		log.Warnf("name %q is a variant, processing as %q", name, u.NameID)
	}
	return u.NameID, nil
}
