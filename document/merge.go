package document

// Source identifies an extraction strategy.
type Source string

const (
	SourceICAO   Source = "icao"
	SourceMRZ    Source = "mrz"
	SourceVisual Source = "visual"
	SourceScan   Source = "scan"
)

// Partial holds the fields one strategy managed to read. Empty values are
// never stored.
type Partial struct {
	source Source
	values map[Field]string
}

func NewPartial(source Source) *Partial {
	return &Partial{source: source, values: make(map[Field]string)}
}

func (p *Partial) Source() Source {
	return p.source
}

func (p *Partial) Set(f Field, value string) {
	if value == "" {
		return
	}
	p.values[f] = value
}

func (p *Partial) Get(f Field) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[f]
	return v, ok
}

func (p *Partial) Empty() bool {
	return p == nil || len(p.values) == 0
}

// Rule resolves a group of fields from the first source, in order, whose
// partial sets any field of the group. Grouped fields always come from the
// same source.
type Rule struct {
	Fields  []Field
	Sources []Source
}

// DefaultPrecedence is the reconciliation policy for passport records.
var DefaultPrecedence = []Rule{
	{Fields: []Field{FieldPassportNumber}, Sources: []Source{SourceICAO, SourceMRZ, SourceScan}},
	{Fields: []Field{FieldDateOfBirth}, Sources: []Source{SourceICAO, SourceMRZ}},
	{Fields: []Field{FieldExpiryDate}, Sources: []Source{SourceICAO, SourceMRZ}},
	{Fields: []Field{FieldGender}, Sources: []Source{SourceICAO, SourceMRZ}},
	{Fields: []Field{FieldSurname, FieldGivenName}, Sources: []Source{SourceICAO, SourceMRZ, SourceVisual}},
	{Fields: []Field{FieldNationalIDNumber}, Sources: []Source{SourceMRZ, SourceScan}},
	{Fields: []Field{FieldFatherOrHusbandName}, Sources: []Source{SourceVisual}},
}

type Merger struct {
	rules []Rule
}

func NewMerger(rules []Rule) *Merger {
	if rules == nil {
		rules = DefaultPrecedence
	}
	return &Merger{rules: rules}
}

// Merge folds the partials into a record. Nil partials are ignored; when
// two partials share a source the earlier one wins.
func (m *Merger) Merge(partials ...*Partial) PassportRecord {
	bySource := make(map[Source]*Partial, len(partials))
	for _, p := range partials {
		if p.Empty() {
			continue
		}
		if _, seen := bySource[p.source]; !seen {
			bySource[p.source] = p
		}
	}

	record := PassportRecord{
		values:  make(map[Field]string),
		sources: make(map[Field]Source),
	}
	for _, rule := range m.rules {
		for _, src := range rule.Sources {
			p, ok := bySource[src]
			if !ok || !p.setsAny(rule.Fields) {
				continue
			}
			for _, f := range rule.Fields {
				if v, ok := p.Get(f); ok {
					record.values[f] = v
					record.sources[f] = src
				}
			}
			break
		}
	}
	return record
}

func (p *Partial) setsAny(fields []Field) bool {
	for _, f := range fields {
		if _, ok := p.values[f]; ok {
			return true
		}
	}
	return false
}
