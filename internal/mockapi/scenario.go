package mockapi

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Scenario describes scripted behavior for the mock endpoint:
//
//	token: secret
//	default:
//	  - status: 429
//	transactions:
//	  tx-1:
//	    - status: 503
//	      body: unavailable
//	    - drop: true
type Scenario struct {
	Token        string            `yaml:"token"`
	Default      []Step            `yaml:"default"`
	Transactions map[string][]Step `yaml:"transactions"`
}

// LoadScenario decodes a YAML scenario.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		if eris.Is(err, io.EOF) {
			return &sc, nil
		}
		return nil, eris.Wrap(err, "decode scenario")
	}
	for id, steps := range sc.Transactions {
		for i, st := range steps {
			if st.Status != 0 && (st.Status < 100 || st.Status > 599) {
				return nil, eris.Errorf("scenario: transaction %s step %d: invalid status %d", id, i, st.Status)
			}
		}
	}
	for i, st := range sc.Default {
		if st.Status != 0 && (st.Status < 100 || st.Status > 599) {
			return nil, eris.Errorf("scenario: default step %d: invalid status %d", i, st.Status)
		}
	}
	return &sc, nil
}

// LoadScenarioFile reads a YAML scenario from path.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open scenario %s", path)
	}
	defer func() { _ = f.Close() }()
	return LoadScenario(f)
}
