package collectdwasm

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
)

// SchemaRegistry is an in-memory SchemaSource, typically populated from a
// types.db-style definition file.
type SchemaRegistry struct {
	mu   sync.RWMutex
	sets map[string]*DataSet
}

// NewSchemaRegistry returns an empty registry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{sets: make(map[string]*DataSet)}
}

// Register adds or replaces a data set.
func (r *SchemaRegistry) Register(ds *DataSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[ds.Type] = ds
}

// LookupDataSet implements SchemaSource.
func (r *SchemaRegistry) LookupDataSet(typeName string) (*DataSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.sets[typeName]
	return ds, ok
}

// Len returns the number of registered data sets.
func (r *SchemaRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sets)
}

// ParseSchemas reads data-set definitions in the daemon's types.db format:
// one set per line, the type name followed by comma-separated
// name:kind:min:max tuples. "U" leaves a bound open. Comment lines start
// with '#'.
func ParseSchemas(r io.Reader) (*SchemaRegistry, error) {
	reg := NewSchemaRegistry()
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected type name and at least one data source", lineno)
		}

		ds := &DataSet{Type: fields[0]}
		for _, spec := range strings.Split(strings.Join(fields[1:], " "), ",") {
			src, err := parseSource(strings.TrimSpace(spec))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno, err)
			}
			ds.Sources = append(ds.Sources, src)
		}
		reg.Register(ds)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return reg, nil
}

func parseSource(spec string) (DataSource, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 4 {
		return DataSource{}, fmt.Errorf("malformed data source %q", spec)
	}

	var kind ValueKind
	switch strings.ToUpper(parts[1]) {
	case "GAUGE":
		kind = KindGauge
	case "COUNTER", "DERIVE", "ABSOLUTE":
		kind = KindCounter
	default:
		return DataSource{}, fmt.Errorf("unknown data source kind %q", parts[1])
	}

	min, err := parseBound(parts[2])
	if err != nil {
		return DataSource{}, err
	}
	max, err := parseBound(parts[3])
	if err != nil {
		return DataSource{}, err
	}

	return DataSource{Name: parts[0], Kind: kind, Min: min, Max: max}, nil
}

func parseBound(s string) (float64, error) {
	if strings.EqualFold(s, "U") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed bound %q", s)
	}
	return v, nil
}
