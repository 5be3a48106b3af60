package loader

import (
	"github.com/tidwall/gjson"

	"admhist/pkg/admstate"
	"admhist/pkg/changes"
	"admhist/pkg/faults"
	"admhist/pkg/units"
)

// LoadChanges reads the dated change records. The matter is a discriminated
// union on "change_type" with exactly four accepted kinds.
func LoadChanges(path string) ([]*changes.Change, error) {
	doc, err := readJSON(path)
	if err != nil {
		return nil, err
	}
	if !doc.IsArray() {
		return nil, faults.Shapef("%s: expected a JSON array of changes", path)
	}
	var out []*changes.Change
	for _, entry := range doc.Array() {
		c, err := parseChange(entry)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseChange(entry gjson.Result) (*changes.Change, error) {
	date, err := ParseDate(entry.Get("date").String())
	if err != nil {
		return nil, err
	}
	var order *int
	if o := entry.Get("order"); o.Exists() && o.Type != gjson.Null {
		n := int(o.Int())
		order = &n
	}
	matter, err := parseMatter(entry.Get("matter"))
	if err != nil {
		return nil, err
	}
	return changes.New(date, entry.Get("source").String(), entry.Get("description").String(), order, matter)
}

func parseMatter(doc gjson.Result) (changes.Matter, error) {
	if !doc.Exists() {
		return nil, faults.Shapef("change record has no matter")
	}
	switch kind := doc.Get("change_type").String(); kind {
	case "UnitReform":
		return parseUnitReform(doc)
	case "OneToMany":
		return parseOneToMany(doc)
	case "ManyToOne":
		return parseManyToOne(doc)
	case "ChangeAdmState":
		return parseChangeAdmState(doc)
	default:
		return nil, faults.Shapef("unknown change type %q", kind)
	}
}

func parseUnitKind(doc gjson.Result) (units.Kind, error) {
	switch doc.Get("unit_type").String() {
	case "Region":
		return units.KindRegion, nil
	case "District":
		return units.KindDistrict, nil
	default:
		return "", faults.Shapef("unknown unit type %q", doc.Get("unit_type").String())
	}
}

func stringMap(res gjson.Result) map[string]string {
	out := make(map[string]string)
	res.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = value.String()
		return true
	})
	return out
}

func parseUnitReform(doc gjson.Result) (changes.Matter, error) {
	kind, err := parseUnitKind(doc)
	if err != nil {
		return nil, err
	}
	return changes.NewUnitReform(kind,
		doc.Get("current_name").String(),
		stringMap(doc.Get("to_reform")),
		stringMap(doc.Get("after_reform")))
}

func parseSource(doc gjson.Result) changes.TransferSource {
	return changes.TransferSource{
		CurrentName: doc.Get("current_name").String(),
		DeleteUnit:  doc.Get("delete_unit").Bool(),
	}
}

func parseSink(doc gjson.Result) (changes.TransferSink, error) {
	sink := changes.TransferSink{
		Create:      doc.Get("create").Bool(),
		CurrentName: doc.Get("current_name").String(),
	}
	if !sink.Create {
		return sink, nil
	}
	payload := doc.Get("district")
	if !payload.Exists() {
		return sink, faults.Shapef("transfer sink with create=true carries no district payload")
	}
	u, err := parseUnit(payload, units.KindDistrict)
	if err != nil {
		return sink, err
	}
	u.States[0].Span = nil // bound at apply time
	sink.NewUnit = u
	addr, err := parseAddress(doc.Get("new_address"))
	if err != nil {
		return sink, err
	}
	sink.NewAddress = addr
	return sink, nil
}

func parseOneToMany(doc gjson.Result) (changes.Matter, error) {
	kind, err := parseUnitKind(doc)
	if err != nil {
		return nil, err
	}
	var sinks []changes.TransferSink
	for _, entry := range doc.Get("take_to").Array() {
		sink, err := parseSink(entry)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return changes.NewOneToMany(kind, parseSource(doc.Get("take_from")), sinks)
}

func parseManyToOne(doc gjson.Result) (changes.Matter, error) {
	kind, err := parseUnitKind(doc)
	if err != nil {
		return nil, err
	}
	var sources []changes.TransferSource
	for _, entry := range doc.Get("take_from").Array() {
		sources = append(sources, parseSource(entry))
	}
	sink, err := parseSink(doc.Get("take_to"))
	if err != nil {
		return nil, err
	}
	return changes.NewManyToOne(kind, sources, sink)
}

func parseChangeAdmState(doc gjson.Result) (changes.Matter, error) {
	from, err := parseAddress(doc.Get("take_from"))
	if err != nil {
		return nil, err
	}
	to, err := parseAddress(doc.Get("take_to"))
	if err != nil {
		return nil, err
	}
	return changes.NewChangeAdmState(from, to)
}

func parseAddress(doc gjson.Result) (admstate.Address, error) {
	parts := stringList(doc)
	switch len(parts) {
	case 2:
		return admstate.RegionAddress(admstate.Country(parts[0]), parts[1]), nil
	case 3:
		return admstate.DistrictAddress(admstate.Country(parts[0]), parts[1], parts[2]), nil
	default:
		return admstate.Address{}, faults.Shapef("address %v must have 2 or 3 segments", parts)
	}
}
